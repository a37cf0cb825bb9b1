// Package loader reads the raw orders and users CSV files into memory.
// It fails fast on missing files, missing columns, empty tables, duplicate
// keys and negative numeric values, so later stages can assume well-formed
// input.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

// Required input columns, matching the raw CSV headers exactly.
var (
	orderColumns = []string{"order_id", "user_id", "amount", "quantity", "created_at", "status"}
	userColumns  = []string{"user_id", "country", "signup_date"}
)

// timestampLayouts are tried in order when parsing created_at. Rows whose
// timestamp matches none of them are kept with CreatedAtValid=false.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Loader reads raw CSV inputs into domain rows.
type Loader struct {
	logger *slog.Logger
}

// New creates a Loader. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// ReadOrders loads orders.csv from path.
func (l *Loader) ReadOrders(ctx context.Context, path string) ([]domain.Order, error) {
	header, records, err := l.readCSV(ctx, path)
	if err != nil {
		return nil, err
	}

	idx, err := requireColumns(header, orderColumns, path)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, errors.NewSchemaError(fmt.Sprintf("orders table is empty: %s", path), nil)
	}

	orders := make([]domain.Order, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, record := range records {
		line := i + 2 // 1-based, after header

		orderID := strings.TrimSpace(record[idx["order_id"]])
		if orderID == "" {
			return nil, errors.NewSchemaError(fmt.Sprintf("blank order_id at %s:%d", path, line), nil)
		}
		if _, dup := seen[orderID]; dup {
			return nil, errors.NewSchemaError(fmt.Sprintf("duplicate order_id %q at %s:%d", orderID, path, line), nil)
		}
		seen[orderID] = struct{}{}

		amount, err := parseNullableFloat(record[idx["amount"]], "amount", path, line)
		if err != nil {
			return nil, err
		}
		quantity, err := parseNullableFloat(record[idx["quantity"]], "quantity", path, line)
		if err != nil {
			return nil, err
		}

		createdAt, valid := parseTimestamp(record[idx["created_at"]])

		orders = append(orders, domain.Order{
			OrderID:        orderID,
			UserID:         strings.TrimSpace(record[idx["user_id"]]),
			Status:         record[idx["status"]],
			Quantity:       quantity,
			Amount:         amount,
			CreatedAt:      createdAt,
			CreatedAtValid: valid,
		})
	}

	l.logger.InfoContext(ctx, "loaded orders",
		slog.String("path", path),
		slog.Int("rows", len(orders)))

	return orders, nil
}

// ReadUsers loads users.csv from path. user_id must be unique so the join
// stage can treat users as the "one" side of a many-to-one join.
func (l *Loader) ReadUsers(ctx context.Context, path string) ([]domain.User, error) {
	header, records, err := l.readCSV(ctx, path)
	if err != nil {
		return nil, err
	}

	idx, err := requireColumns(header, userColumns, path)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, errors.NewSchemaError(fmt.Sprintf("users table is empty: %s", path), nil)
	}

	users := make([]domain.User, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, record := range records {
		line := i + 2

		userID := strings.TrimSpace(record[idx["user_id"]])
		if userID == "" {
			return nil, errors.NewSchemaError(fmt.Sprintf("blank user_id at %s:%d", path, line), nil)
		}
		if _, dup := seen[userID]; dup {
			return nil, errors.NewSchemaError(fmt.Sprintf("duplicate user_id %q at %s:%d", userID, path, line), nil)
		}
		seen[userID] = struct{}{}

		users = append(users, domain.User{
			UserID:     userID,
			Country:    strings.TrimSpace(record[idx["country"]]),
			SignupDate: strings.TrimSpace(record[idx["signup_date"]]),
		})
	}

	l.logger.InfoContext(ctx, "loaded users",
		slog.String("path", path),
		slog.Int("rows", len(users)))

	return users, nil
}

// readCSV opens a CSV file and returns its header and data records.
func (l *Loader) readCSV(ctx context.Context, path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewNotFoundError(path, err)
		}
		return nil, nil, errors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.NewSchemaError(fmt.Sprintf("missing header row: %s", path), nil)
	}
	if err != nil {
		return nil, nil, errors.NewParsingError(fmt.Sprintf("read header of %s", path), err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.NewParsingError(fmt.Sprintf("read rows of %s", path), err)
	}

	return header, records, nil
}

// requireColumns resolves required column names to indices, failing with a
// schema error naming every missing column.
func requireColumns(header []string, required []string, path string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaError(
			fmt.Sprintf("missing required columns in %s: %s", path, strings.Join(missing, ", ")), nil)
	}

	return idx, nil
}

// parseNullableFloat reads a numeric cell. Blank cells become nil; negative
// values are rejected because neither amount nor quantity may go below zero.
func parseNullableFloat(raw, column, path string, line int) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.NewParsingError(
			fmt.Sprintf("invalid %s value %q at %s:%d", column, raw, path, line), err)
	}
	if v < 0 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("%s must be >= 0, got %v at %s:%d", column, v, path, line))
	}

	return &v, nil
}

// parseTimestamp parses created_at, returning valid=false for values that
// match no known layout. The row stays in the dataset either way.
func parseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
