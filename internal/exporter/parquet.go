// Package exporter persists pipeline outputs: the columnar parquet tables,
// the run-metadata JSON document and the missingness report CSV.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

// Column order is shared by both tables; the analytics table appends the
// user-side columns at the end.
var cleanedOrderFields = []arrow.Field{
	{Name: "order_id", Type: arrow.BinaryTypes.String},
	{Name: "user_id", Type: arrow.BinaryTypes.String},
	{Name: "status", Type: arrow.BinaryTypes.String},
	{Name: "status_clean", Type: arrow.BinaryTypes.String},
	{Name: "quantity", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "amount", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "amount_raw", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "amount_missing", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "quantity_missing", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "is_outlier", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "created_at", Type: arrow.FixedWidthTypes.Timestamp_s, Nullable: true},
	{Name: "year", Type: arrow.PrimitiveTypes.Int32},
	{Name: "month", Type: arrow.PrimitiveTypes.Int32},
	{Name: "weekday", Type: arrow.BinaryTypes.String},
}

var userSideFields = []arrow.Field{
	{Name: "country", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "signup_date", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "matched", Type: arrow.FixedWidthTypes.Boolean},
}

var userFields = []arrow.Field{
	{Name: "user_id", Type: arrow.BinaryTypes.String},
	{Name: "country", Type: arrow.BinaryTypes.String},
	{Name: "signup_date", Type: arrow.BinaryTypes.String},
}

// CleanedOrderSchema is the arrow schema of orders_clean.parquet.
func CleanedOrderSchema() *arrow.Schema {
	return arrow.NewSchema(cleanedOrderFields, nil)
}

// AnalyticsSchema is the arrow schema of analytics_table.parquet.
func AnalyticsSchema() *arrow.Schema {
	return arrow.NewSchema(append(append([]arrow.Field{}, cleanedOrderFields...), userSideFields...), nil)
}

// UserSchema is the arrow schema of users.parquet.
func UserSchema() *arrow.Schema {
	return arrow.NewSchema(userFields, nil)
}

// ParquetWriter writes the cleaned and joined tables as snappy-compressed
// parquet files.
type ParquetWriter struct {
	logger *slog.Logger
	mem    memory.Allocator
}

// NewParquetWriter creates a ParquetWriter. A nil logger falls back to
// slog.Default().
func NewParquetWriter(logger *slog.Logger) *ParquetWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetWriter{logger: logger, mem: memory.DefaultAllocator}
}

// WriteCleanedOrders writes orders_clean.parquet at path.
func (w *ParquetWriter) WriteCleanedOrders(ctx context.Context, path string, orders []domain.CleanedOrder) error {
	schema := CleanedOrderSchema()
	builder := array.NewRecordBuilder(w.mem, schema)
	defer builder.Release()

	for _, o := range orders {
		appendCleanedOrder(builder, 0, o)
	}

	return w.writeRecord(ctx, path, schema, builder)
}

// WriteAnalytics writes analytics_table.parquet at path.
func (w *ParquetWriter) WriteAnalytics(ctx context.Context, path string, rows []domain.AnalyticsRow) error {
	schema := AnalyticsSchema()
	builder := array.NewRecordBuilder(w.mem, schema)
	defer builder.Release()

	base := len(cleanedOrderFields)
	for _, r := range rows {
		appendCleanedOrder(builder, 0, r.CleanedOrder)

		countryB := builder.Field(base).(*array.StringBuilder)
		signupB := builder.Field(base + 1).(*array.StringBuilder)
		matchedB := builder.Field(base + 2).(*array.BooleanBuilder)

		if r.Matched {
			countryB.Append(r.Country)
			signupB.Append(r.SignupDate)
		} else {
			countryB.AppendNull()
			signupB.AppendNull()
		}
		matchedB.Append(r.Matched)
	}

	return w.writeRecord(ctx, path, schema, builder)
}

// WriteUsers writes users.parquet at path, mirroring the validated input
// so downstream consumers never have to reparse the raw CSV.
func (w *ParquetWriter) WriteUsers(ctx context.Context, path string, users []domain.User) error {
	schema := UserSchema()
	builder := array.NewRecordBuilder(w.mem, schema)
	defer builder.Release()

	for _, u := range users {
		builder.Field(0).(*array.StringBuilder).Append(u.UserID)
		builder.Field(1).(*array.StringBuilder).Append(u.Country)
		builder.Field(2).(*array.StringBuilder).Append(u.SignupDate)
	}

	return w.writeRecord(ctx, path, schema, builder)
}

// appendCleanedOrder appends one row's shared columns starting at field offset.
func appendCleanedOrder(builder *array.RecordBuilder, offset int, o domain.CleanedOrder) {
	builder.Field(offset + 0).(*array.StringBuilder).Append(o.OrderID)
	builder.Field(offset + 1).(*array.StringBuilder).Append(o.UserID)
	builder.Field(offset + 2).(*array.StringBuilder).Append(o.Status)
	builder.Field(offset + 3).(*array.StringBuilder).Append(string(o.StatusClean))

	appendNullableFloat(builder.Field(offset+4).(*array.Float64Builder), o.Quantity)
	appendNullableFloat(builder.Field(offset+5).(*array.Float64Builder), o.Amount)
	appendNullableFloat(builder.Field(offset+6).(*array.Float64Builder), o.AmountRaw)

	builder.Field(offset + 7).(*array.BooleanBuilder).Append(o.AmountMissing)
	builder.Field(offset + 8).(*array.BooleanBuilder).Append(o.QuantityMissing)
	builder.Field(offset + 9).(*array.BooleanBuilder).Append(o.IsOutlier)

	tsB := builder.Field(offset + 10).(*array.TimestampBuilder)
	if o.CreatedAtValid {
		tsB.Append(arrow.Timestamp(o.CreatedAt.Unix()))
	} else {
		tsB.AppendNull()
	}

	builder.Field(offset + 11).(*array.Int32Builder).Append(int32(o.Year))
	builder.Field(offset + 12).(*array.Int32Builder).Append(int32(o.Month))
	builder.Field(offset + 13).(*array.StringBuilder).Append(o.Weekday)
}

func appendNullableFloat(b *array.Float64Builder, v *float64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

// writeRecord materializes the builder into a single record and writes it
// as a parquet file. Any filesystem failure is a storage error.
func (w *ParquetWriter) writeRecord(ctx context.Context, path string, schema *arrow.Schema, builder *array.RecordBuilder) error {
	rec := builder.NewRecord()
	defer rec.Release()

	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("create directory for %s", path), err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("create parquet file %s", path), err)
	}
	defer file.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	chunkSize := rec.NumRows()
	if chunkSize == 0 {
		chunkSize = 1
	}
	if err := pqarrow.WriteTable(tbl, file, chunkSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return errors.NewStorageError(fmt.Sprintf("write parquet file %s", path), err)
	}

	w.logger.InfoContext(ctx, "wrote parquet table",
		slog.String("path", path),
		slog.Int64("rows", rec.NumRows()))

	return nil
}

// ReadAnalytics loads analytics_table.parquet back into rows. The report
// stage consumes the persisted table rather than recomputing the join.
func ReadAnalytics(ctx context.Context, path string) ([]domain.AnalyticsRow, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(path, err)
		}
		return nil, errors.NewStorageError(fmt.Sprintf("open parquet file %s", path), err)
	}
	defer file.Close()

	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, file, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("read parquet file %s", path), err)
	}
	defer tbl.Release()

	idx, err := fieldIndices(tbl.Schema(), AnalyticsSchema())
	if err != nil {
		return nil, err
	}

	rows := make([]domain.AnalyticsRow, 0, tbl.NumRows())

	reader := array.NewTableReader(tbl, 1024)
	defer reader.Release()

	for reader.Next() {
		rec := reader.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			var row domain.AnalyticsRow

			row.OrderID = rec.Column(idx["order_id"]).(*array.String).Value(i)
			row.UserID = rec.Column(idx["user_id"]).(*array.String).Value(i)
			row.Status = rec.Column(idx["status"]).(*array.String).Value(i)
			row.StatusClean = domain.StatusClean(rec.Column(idx["status_clean"]).(*array.String).Value(i))

			row.Quantity = nullableFloat(rec.Column(idx["quantity"]).(*array.Float64), i)
			row.Amount = nullableFloat(rec.Column(idx["amount"]).(*array.Float64), i)
			row.AmountRaw = nullableFloat(rec.Column(idx["amount_raw"]).(*array.Float64), i)

			row.AmountMissing = rec.Column(idx["amount_missing"]).(*array.Boolean).Value(i)
			row.QuantityMissing = rec.Column(idx["quantity_missing"]).(*array.Boolean).Value(i)
			row.IsOutlier = rec.Column(idx["is_outlier"]).(*array.Boolean).Value(i)

			ts := rec.Column(idx["created_at"]).(*array.Timestamp)
			if ts.IsValid(i) {
				row.CreatedAt = ts.Value(i).ToTime(arrow.Second)
				row.CreatedAtValid = true
			}

			row.Year = int(rec.Column(idx["year"]).(*array.Int32).Value(i))
			row.Month = int(rec.Column(idx["month"]).(*array.Int32).Value(i))
			row.Weekday = rec.Column(idx["weekday"]).(*array.String).Value(i)

			country := rec.Column(idx["country"]).(*array.String)
			if country.IsValid(i) {
				row.Country = country.Value(i)
			}
			signup := rec.Column(idx["signup_date"]).(*array.String)
			if signup.IsValid(i) {
				row.SignupDate = signup.Value(i)
			}
			row.Matched = rec.Column(idx["matched"]).(*array.Boolean).Value(i)

			rows = append(rows, row)
		}
	}

	return rows, nil
}

// fieldIndices maps every expected column name to its index in the file's
// schema, failing with a schema error when a column is missing.
func fieldIndices(got, want *arrow.Schema) (map[string]int, error) {
	idx := make(map[string]int, len(want.Fields()))
	for _, f := range want.Fields() {
		indices := got.FieldIndices(f.Name)
		if len(indices) == 0 {
			return nil, errors.NewSchemaError(fmt.Sprintf("parquet file missing column %q", f.Name), nil)
		}
		idx[f.Name] = indices[0]
	}
	return idx, nil
}

func nullableFloat(col *array.Float64, i int) *float64 {
	if col.IsNull(i) {
		return nil
	}
	v := col.Value(i)
	return &v
}
