package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"orderlens/internal/cleaning"
	"orderlens/internal/errors"
)

// WriteMissingnessCSV writes the per-column missingness report consumed by
// whoever eyeballs data quality between runs.
func WriteMissingnessCSV(ctx context.Context, path string, st cleaning.Stats, totalRows int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("create directory for %s", path), err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("create missingness report %s", path), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"column", "n_missing", "pct_missing"}); err != nil {
		return errors.NewStorageError("write missingness header", err)
	}

	rows := []struct {
		column  string
		missing int
	}{
		{"amount", st.MissingAmount},
		{"quantity", st.MissingQuantity},
		{"created_at", st.MissingCreatedAt},
	}

	for _, r := range rows {
		pct := 0.0
		if totalRows > 0 {
			pct = float64(r.missing) / float64(totalRows)
		}
		record := []string{r.column, strconv.Itoa(r.missing), fmt.Sprintf("%.4f", pct)}
		if err := writer.Write(record); err != nil {
			return errors.NewStorageError("write missingness row", err)
		}
	}

	logger.InfoContext(ctx, "wrote missingness report", slog.String("path", path))

	return writer.Error()
}
