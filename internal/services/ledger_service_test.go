package services

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"spendcraft/internal/aggregate"
	"spendcraft/internal/categorize"
	"spendcraft/internal/core"
	"spendcraft/internal/export"
	"spendcraft/internal/insight"
	"spendcraft/internal/report"
	"spendcraft/internal/storage"
)

func newLedger(t *testing.T) (*LedgerService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewLedgerService(repo, categorize.NewRules(), insight.AnomalyConfig{}), repo
}

func TestCreateRecordValidatesFirst(t *testing.T) {
	svc, repo := newLedger(t)
	ctx := context.Background()

	_, _, err := svc.CreateRecord(ctx, core.Record{
		Date:     core.NewDate(2024, 1, 1),
		Amount:   decimal.RequireFromString("-5.00"),
		Category: "Food",
	})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	// The rejected record must not appear in any subsequent query.
	recs, err := repo.Query(ctx, storage.Filter{})
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestCreateRecordAutoCategorizes(t *testing.T) {
	svc, repo := newLedger(t)
	ctx := context.Background()

	created, _, err := svc.CreateRecord(ctx, core.Record{
		Date:        core.NewDate(2024, 1, 1),
		Amount:      decimal.RequireFromString("12.00"),
		Description: "uber ride home",
	})
	require.NoError(t, err)
	require.Equal(t, "Transport", created.Category)

	rec, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Transport", rec.Category)
	require.Equal(t, core.Must, rec.Priority)
}

func TestCreateRecordFlagsAnomaly(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	for _, amount := range []string{"20.00", "21.00", "19.00", "22.00", "18.00"} {
		_, _, err := svc.CreateRecord(ctx, core.Record{
			Date:     core.NewDate(2024, 1, 1),
			Amount:   decimal.RequireFromString(amount),
			Category: "Food",
		})
		require.NoError(t, err)
	}

	_, flag, err := svc.CreateRecord(ctx, core.Record{
		Date:     core.NewDate(2024, 2, 1),
		Amount:   decimal.RequireFromString("400.00"),
		Category: "Food",
	})
	require.NoError(t, err)
	require.NotNil(t, flag, "expected anomaly flag for outlier")

	// First record of an unseen category: no history, fails open.
	_, flag, err = svc.CreateRecord(ctx, core.Record{
		Date:     core.NewDate(2024, 2, 2),
		Amount:   decimal.RequireFromString("900.00"),
		Category: "Travel",
	})
	require.NoError(t, err)
	require.Nil(t, flag)
}

func TestImportCSVRoundTrip(t *testing.T) {
	_, repo := newLedger(t)
	ctx := context.Background()

	seed := []core.Record{
		{Date: core.NewDate(2024, 1, 5), Amount: decimal.RequireFromString("20.00"), Category: "Food", Description: "a", Priority: core.Must},
		{Date: core.NewDate(2024, 2, 10), Amount: decimal.RequireFromString("50.00"), Category: "Housing", Description: "b", Priority: core.Must},
	}
	for _, rec := range seed {
		_, err := repo.Add(ctx, rec)
		require.NoError(t, err)
	}

	orig, err := repo.Query(ctx, storage.Filter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, orig))

	// Import into a fresh ledger and compare field-by-field, ids excluded.
	svc2, repo2 := newLedger(t)
	n, err := svc2.ImportCSV(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	imported, err := repo2.Query(ctx, storage.Filter{})
	require.NoError(t, err)
	require.Len(t, imported, len(orig))
	for i := range orig {
		require.Equal(t, orig[i].Date, imported[i].Date)
		require.True(t, orig[i].Amount.Equal(imported[i].Amount))
		require.Equal(t, orig[i].Category, imported[i].Category)
		require.Equal(t, orig[i].Description, imported[i].Description)
		require.Equal(t, orig[i].Priority, imported[i].Priority)
	}
}

func TestImportCSVRejectsBadFile(t *testing.T) {
	svc, repo := newLedger(t)
	in := "id,date,amount,category,description,priority\n1,2024-01-01,-9.99,Food,bad,must\n"
	_, err := svc.ImportCSV(context.Background(), strings.NewReader(in))
	require.Error(t, err)

	recs, err := repo.Query(context.Background(), storage.Filter{})
	require.NoError(t, err)
	require.Empty(t, recs, "nothing may be persisted from a rejected import")
}

func TestRetrainRuleStrategyIsNoop(t *testing.T) {
	svc, _ := newLedger(t)
	require.NoError(t, svc.Retrain(context.Background()))
}

func TestRetrainBayesColdStart(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc := NewLedgerService(repo, categorize.NewBayes(25, categorize.NewRules()), insight.AnomalyConfig{})
	err = svc.Retrain(context.Background())
	require.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestReportServicePipeline(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()

	seed := []core.Record{
		{Date: core.NewDate(2024, 1, 5), Amount: decimal.RequireFromString("20.00"), Category: "Food"},
		{Date: core.NewDate(2024, 1, 20), Amount: decimal.RequireFromString("80.00"), Category: "Food"},
		{Date: core.NewDate(2024, 2, 10), Amount: decimal.RequireFromString("50.00"), Category: "Housing"},
		{Date: core.NewDate(2024, 3, 2), Amount: decimal.RequireFromString("70.00"), Category: "Food"},
	}
	for _, rec := range seed {
		_, err := repo.Add(ctx, rec.Normalize())
		require.NoError(t, err)
	}

	svc := NewReportService(repo, insight.AnomalyConfig{}, 3)

	buckets, err := svc.Summarize(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 28), aggregate.ByMonth)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	require.Equal(t, "100.00", buckets[0].Total.StringFixed(2))

	doc, err := svc.BuildReport(ctx, core.Date{}, core.Date{}, report.FormatHTML)
	require.NoError(t, err)
	require.Contains(t, string(doc), "Expense Report")

	pdf, err := svc.BuildReport(ctx, core.Date{}, core.Date{}, report.FormatPDF)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
