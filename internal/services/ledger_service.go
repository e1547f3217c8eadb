package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"spendcraft/internal/categorize"
	"spendcraft/internal/core"
	"spendcraft/internal/export"
	"spendcraft/internal/insight"
	applog "spendcraft/internal/log"
	"spendcraft/internal/storage"
)

// LedgerService orchestrates record writes: validation, auto-categorization
// and the post-insert anomaly check. Validation failures never reach the
// store; anomaly detection failures never fail the write.
type LedgerService struct {
	storage     *storage.SQLiteRepository
	categorizer categorize.Strategy
	anomaly     insight.AnomalyConfig
}

func NewLedgerService(st *storage.SQLiteRepository, categorizer categorize.Strategy, anomaly insight.AnomalyConfig) *LedgerService {
	if categorizer == nil {
		categorizer = categorize.NewRules()
	}
	return &LedgerService{
		storage:     st,
		categorizer: categorizer,
		anomaly:     anomaly,
	}
}

// CreateRecord validates, auto-categorizes when no category was given,
// persists, and scores the new record against its category history. The
// returned record carries its assigned id and derived fields; the flag is
// nil for ordinary amounts.
func (s *LedgerService) CreateRecord(ctx context.Context, rec core.Record) (core.Record, *core.AnomalyFlag, error) {
	if rec.Category == "" {
		rec.Category = s.categorizer.Categorize(rec.Description, rec.Amount)
		slog.DebugContext(ctx, "Auto-categorized record",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldRecordDesc, rec.Description,
			applog.FieldCategory, rec.Category)
	}
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return core.Record{}, nil, err
	}

	id, err := s.storage.Add(ctx, rec)
	if err != nil {
		return core.Record{}, nil, fmt.Errorf("save record: %w", err)
	}
	rec.ID = id

	// Best effort: a failed history read only costs the anomaly hint.
	history, err := s.storage.Query(ctx, storage.Filter{Categories: []string{rec.Category}})
	if err != nil {
		slog.WarnContext(ctx, "Anomaly check skipped, history unavailable",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldRecordID, id,
			applog.FieldError, err)
		return rec, nil, nil
	}
	flag := insight.DetectAnomaly(history, rec, s.anomaly)
	if flag != nil {
		slog.InfoContext(ctx, "Record flagged as anomalous",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldRecordID, id,
			applog.FieldCategory, rec.Category,
			applog.FieldAnomalyZ, flag.Score)
	}
	return rec, flag, nil
}

// UpdateRecord overwrites an existing record after validation.
func (s *LedgerService) UpdateRecord(ctx context.Context, id int64, rec core.Record) error {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return err
	}
	return s.storage.Update(ctx, id, rec)
}

func (s *LedgerService) DeleteRecord(ctx context.Context, id int64) error {
	return s.storage.Delete(ctx, id)
}

func (s *LedgerService) GetRecord(ctx context.Context, id int64) (core.Record, error) {
	return s.storage.Get(ctx, id)
}

func (s *LedgerService) ListRecords(ctx context.Context, f storage.Filter) ([]core.Record, error) {
	return s.storage.Query(ctx, f)
}

// ImportCSV parses and persists an exported file. The whole file is parsed
// and validated before the first insert, so a malformed row rejects the
// import without partial writes.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	records, err := export.ReadCSV(r)
	if err != nil {
		return 0, fmt.Errorf("parse import: %w", err)
	}
	for i, rec := range records {
		if _, err := s.storage.Add(ctx, rec); err != nil {
			return i, fmt.Errorf("import record %d: %w", i+1, err)
		}
	}
	slog.InfoContext(ctx, "CSV import completed",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpImport,
		"records", len(records))
	return len(records), nil
}

// Retrain rebuilds the learned categorizer from full history. A no-op for
// the rule strategy.
func (s *LedgerService) Retrain(ctx context.Context) error {
	bayes, ok := s.categorizer.(*categorize.Bayes)
	if !ok {
		slog.InfoContext(ctx, "Categorizer is rule-based, nothing to retrain",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldOperation, applog.OpRetrain)
		return nil
	}
	history, err := s.storage.Query(ctx, storage.Filter{})
	if err != nil {
		return fmt.Errorf("load training history: %w", err)
	}
	return bayes.Retrain(ctx, history)
}

// BackupDatabase streams a snapshot of the underlying database file.
func (s *LedgerService) BackupDatabase(ctx context.Context, w io.Writer) error {
	return s.storage.Backup(ctx, w)
}

// RestoreDatabase replaces the ledger contents with a backup snapshot and
// retrains the learned categorizer against the restored history. A failed
// retrain keeps the restored data; the classifier catches up on the next
// explicit retrain.
func (s *LedgerService) RestoreDatabase(ctx context.Context, r io.Reader) (int, error) {
	n, err := s.storage.Restore(ctx, r)
	if err != nil {
		return 0, err
	}
	if err := s.Retrain(ctx); err != nil {
		slog.WarnContext(ctx, "Retrain after restore skipped",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldOperation, applog.OpRestore,
			applog.FieldError, err)
	}
	return n, nil
}

func (s *LedgerService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
