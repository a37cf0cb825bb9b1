package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderlens/internal/cleaning"
	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

func f(v float64) *float64 { return &v }

func sampleRows() []domain.AnalyticsRow {
	createdAt := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	return []domain.AnalyticsRow{
		{
			CleanedOrder: domain.CleanedOrder{
				Order: domain.Order{
					OrderID: "o1", UserID: "u1", Status: "paid",
					Quantity: f(1), Amount: f(100), CreatedAt: createdAt, CreatedAtValid: true,
				},
				StatusClean: domain.StatusPaid, AmountRaw: f(100),
				Year: 2025, Month: 1, Weekday: "Thursday",
			},
			Country: "SA", SignupDate: "2024-11-01", Matched: true,
		},
		{
			CleanedOrder: domain.CleanedOrder{
				Order:         domain.Order{OrderID: "o2", UserID: "u2", Status: "Refunded"},
				StatusClean:   domain.StatusRefund,
				AmountMissing: true, QuantityMissing: true,
			},
			Country: "AE", SignupDate: "2024-12-15", Matched: true,
		},
		{
			CleanedOrder: domain.CleanedOrder{
				Order: domain.Order{
					OrderID: "o3", UserID: "u9", Status: "paid",
					Amount: f(55.5), Quantity: f(2),
				},
				StatusClean: domain.StatusPaid, AmountRaw: f(9000), IsOutlier: true,
			},
			Matched: false,
		},
	}
}

func TestParquet_AnalyticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "analytics_table.parquet")

	rows := sampleRows()
	require.NoError(t, NewParquetWriter(nil).WriteAnalytics(ctx, path, rows))

	got, err := ReadAnalytics(ctx, path)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "o1", got[0].OrderID)
	assert.Equal(t, domain.StatusPaid, got[0].StatusClean)
	require.NotNil(t, got[0].Amount)
	assert.Equal(t, 100.0, *got[0].Amount)
	assert.True(t, got[0].CreatedAtValid)
	assert.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), got[0].CreatedAt.UTC())
	assert.Equal(t, "SA", got[0].Country)
	assert.True(t, got[0].Matched)

	// Nulls survive the round trip as nils, not zeros.
	assert.Nil(t, got[1].Amount)
	assert.Nil(t, got[1].Quantity)
	assert.True(t, got[1].AmountMissing)
	assert.False(t, got[1].CreatedAtValid)

	// Unmatched row keeps empty country and survives persistence.
	assert.False(t, got[2].Matched)
	assert.Empty(t, got[2].Country)
	assert.True(t, got[2].IsOutlier)
	require.NotNil(t, got[2].AmountRaw)
	assert.Equal(t, 9000.0, *got[2].AmountRaw)
}

func TestParquet_WriteCleanedOrders(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed", "orders_clean.parquet")

	orders := make([]domain.CleanedOrder, 0, len(sampleRows()))
	for _, r := range sampleRows() {
		orders = append(orders, r.CleanedOrder)
	}

	require.NoError(t, NewParquetWriter(nil).WriteCleanedOrders(ctx, path, orders))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestParquet_WriteUsers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed", "users.parquet")

	users := []domain.User{
		{UserID: "u1", Country: "SA", SignupDate: "2024-11-01"},
		{UserID: "u2", Country: "AE", SignupDate: "2024-12-15"},
	}

	require.NoError(t, NewParquetWriter(nil).WriteUsers(ctx, path, users))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestParquet_WriteError(t *testing.T) {
	ctx := context.Background()
	// Using an existing file as a directory component forces a write failure.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	path := filepath.Join(blocker, "analytics_table.parquet")

	err := NewParquetWriter(nil).WriteAnalytics(ctx, path, sampleRows())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
}

func TestReadAnalytics_NotFound(t *testing.T) {
	_, err := ReadAnalytics(context.Background(), filepath.Join(t.TempDir(), "missing.parquet"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestRunMeta_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "_run_meta.json")

	meta := domain.RunMetadata{
		RunID:           "run-1",
		OrderCount:      5,
		UserCount:       4,
		AnalyticsCount:  5,
		MissingPct:      0.2,
		JoinCoveragePct: 0.8,
		OutlierCount:    1,
		GeneratedAt:     time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
		WinsorLowPct:    0.05,
		WinsorHighPct:   0.95,
		IQRMultiplier:   1.5,
	}
	require.NoError(t, WriteRunMeta(ctx, path, meta, nil))

	got, err := ReadRunMeta(path)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestReadRunMeta_NotFound(t *testing.T) {
	_, err := ReadRunMeta(filepath.Join(t.TempDir(), "_run_meta.json"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestWriteMissingnessCSV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports", "missingness_orders.csv")

	st := cleaning.Stats{MissingAmount: 2, MissingQuantity: 1, MissingCreatedAt: 1}
	require.NoError(t, WriteMissingnessCSV(ctx, path, st, 5, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "column,n_missing,pct_missing")
	assert.Contains(t, content, "amount,2,0.4000")
	assert.Contains(t, content, "quantity,1,0.2000")
	assert.Contains(t, content, "created_at,1,0.2000")
}
