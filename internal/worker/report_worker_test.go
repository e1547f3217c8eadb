package worker

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"spendcraft/internal/amqp"
	"spendcraft/internal/core"
	"spendcraft/internal/insight"
	"spendcraft/internal/services"
	"spendcraft/internal/storage"
)

type fakeSender struct {
	destination string
	subject     string
	filename    string
	attachment  []byte
	err         error
	calls       int
}

func (f *fakeSender) SendReport(_ context.Context, destination, subject, _, filename string, attachment []byte) error {
	f.calls++
	f.destination = destination
	f.subject = subject
	f.filename = filename
	f.attachment = attachment
	return f.err
}

func newTestWorker(t *testing.T) (*ReportWorker, *fakeSender, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	reports := services.NewReportService(repo, insight.AnomalyConfig{}, insight.DefaultHorizon)
	sender := &fakeSender{}
	return NewReportWorker(reports, sender), sender, repo
}

func seedRecord(t *testing.T, repo *storage.SQLiteRepository, date string, amount, category string) {
	t.Helper()

	d, err := core.ParseDate(date)
	require.NoError(t, err)
	amt, err := decimal.NewFromString(amount)
	require.NoError(t, err)

	_, err = repo.Add(context.Background(), core.Record{
		Date:        d,
		Amount:      amt,
		Category:    category,
		Description: "seed",
		Priority:    core.DefaultPriority(category),
	})
	require.NoError(t, err)
}

func TestHandleDispatchDeliversPDF(t *testing.T) {
	w, sender, repo := newTestWorker(t)
	seedRecord(t, repo, "2024-01-10", "100.00", "Food")
	seedRecord(t, repo, "2024-02-10", "50.00", "Transport")

	msg := amqp.NewReportDispatchMessage("owner@example.com", "pdf", "2024-01-01", "2024-02-28")
	require.NoError(t, w.HandleDispatch(context.Background(), msg))

	require.Equal(t, 1, sender.calls)
	require.Equal(t, "owner@example.com", sender.destination)
	require.Contains(t, sender.subject, "2024-01-01 to 2024-02-28")
	require.Contains(t, sender.filename, ".pdf")
	require.True(t, bytes.HasPrefix(sender.attachment, []byte("%PDF")))
}

func TestHandleDispatchOpenPeriod(t *testing.T) {
	w, sender, repo := newTestWorker(t)
	seedRecord(t, repo, "2024-01-10", "20.00", "Food")

	msg := amqp.NewReportDispatchMessage("owner@example.com", "html", "", "")
	require.NoError(t, w.HandleDispatch(context.Background(), msg))

	require.Contains(t, sender.subject, "all recorded spending")
	require.Contains(t, string(sender.attachment), "<html")
}

func TestHandleDispatchRejectsBadInput(t *testing.T) {
	w, sender, _ := newTestWorker(t)

	msg := amqp.NewReportDispatchMessage("owner@example.com", "docx", "", "")
	require.Error(t, w.HandleDispatch(context.Background(), msg))

	msg = amqp.NewReportDispatchMessage("owner@example.com", "pdf", "01/02/2024", "")
	require.Error(t, w.HandleDispatch(context.Background(), msg))

	require.Equal(t, 0, sender.calls)
}

func TestHandleDispatchPropagatesSendFailure(t *testing.T) {
	w, sender, repo := newTestWorker(t)
	seedRecord(t, repo, "2024-01-10", "20.00", "Food")
	sender.err = context.DeadlineExceeded

	msg := amqp.NewReportDispatchMessage("owner@example.com", "pdf", "", "")
	require.Error(t, w.HandleDispatch(context.Background(), msg))
}
