package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"spendcraft/internal/core"
	applog "spendcraft/internal/log"

	_ "modernc.org/sqlite"
)

// Filter narrows a Query. Zero From/To leave that bound open; an empty
// Categories slice matches every category.
type Filter struct {
	From       core.Date
	To         core.Date
	Categories []string
}

// SQLiteRepository owns the persisted expense records. The mutex gives the
// simple concurrency contract the application needs: many readers, one
// writer, a write fully committed before the next read observes it.
type SQLiteRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// retryOnce re-attempts an operation a single time on I/O failure. Anything
// still failing after that is surfaced to the caller, never retried again.
func retryOnce(op func() error) error {
	err := op()
	if err == nil || errors.Is(err, sql.ErrNoRows) || errors.Is(err, core.ErrNotFound) {
		return err
	}
	return op()
}

// Add persists a validated record and returns its assigned id.
func (r *SQLiteRepository) Add(ctx context.Context, rec core.Record) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id int64
	err := retryOnce(func() error {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO expenses (date, amount, category, description, priority)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.Date.String(), rec.Amount.StringFixed(2), rec.Category, rec.Description, string(rec.Priority))
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Expense record saved",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldRecordID, id,
		applog.FieldDate, rec.Date.String(),
		applog.FieldAmount, rec.Amount.StringFixed(2),
		applog.FieldCategory, rec.Category)
	return id, nil
}

// Update overwrites the mutable fields of an existing record.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, rec core.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return retryOnce(func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE expenses
			 SET date = ?, amount = ?, category = ?, description = ?, priority = ?
			 WHERE id = ?`,
			rec.Date.String(), rec.Amount.StringFixed(2), rec.Category, rec.Description, string(rec.Priority), id)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("update expense %d: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

// Delete removes a record permanently.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return retryOnce(func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

// Get retrieves a single record by id.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, amount, category, description, priority
		 FROM expenses WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return rec, nil
}

// Query returns records matching the filter, ordered by date then id.
func (r *SQLiteRepository) Query(ctx context.Context, f Filter) ([]core.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.Builder{}
	q.WriteString(`SELECT id, date, amount, category, description, priority FROM expenses`)
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.String())
	}
	if len(f.Categories) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Categories)), ",")
		conds = append(conds, "category IN ("+placeholders+")")
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}
	if len(conds) > 0 {
		q.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	q.WriteString(" ORDER BY date, id")

	rows, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// sqliteMagic is the 16-byte header every SQLite database file starts with.
const sqliteMagic = "SQLite format 3\x00"

// Backup streams a consistent snapshot of the database. The snapshot is
// produced with VACUUM INTO, so concurrent readers keep working while it
// runs.
func (r *SQLiteRepository) Backup(ctx context.Context, dst io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmp, err := os.CreateTemp("", "spendcraft-backup-*.db")
	if err != nil {
		return fmt.Errorf("create snapshot scratch file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to write over an existing file.
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, tmpPath); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("stream snapshot: %w", err)
	}
	return nil
}

// Restore replaces all records with the contents of a backup snapshot and
// returns the number of restored rows. The swap happens in one transaction,
// so a bad backup never leaves a half-restored ledger.
func (r *SQLiteRepository) Restore(ctx context.Context, src io.Reader) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp("", "spendcraft-restore-*.db")
	if err != nil {
		return 0, fmt.Errorf("create restore scratch file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write restore scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close restore scratch file: %w", err)
	}

	if err := checkSQLiteHeader(tmpPath); err != nil {
		return 0, err
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS restore_src`, tmpPath); err != nil {
		return 0, fmt.Errorf("attach backup: %w", err)
	}
	defer conn.ExecContext(ctx, `DETACH DATABASE restore_src`)

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return 0, fmt.Errorf("begin restore: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		conn.ExecContext(ctx, `ROLLBACK`)
		return 0, fmt.Errorf("clear expenses: %w", err)
	}
	res, err := conn.ExecContext(ctx,
		`INSERT INTO expenses (id, date, amount, category, description, priority)
		 SELECT id, date, amount, category, description, priority FROM restore_src.expenses`)
	if err != nil {
		conn.ExecContext(ctx, `ROLLBACK`)
		return 0, fmt.Errorf("copy backup rows: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		conn.ExecContext(ctx, `ROLLBACK`)
		return 0, fmt.Errorf("commit restore: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count restored rows: %w", err)
	}

	slog.InfoContext(ctx, "Database restored from backup",
		applog.FieldComponent, applog.ComponentStorage,
		"records", n)
	return int(n), nil
}

// checkSQLiteHeader rejects uploads that are not SQLite database files
// before they reach ATTACH.
func checkSQLiteHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open restore scratch file: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil || string(header) != sqliteMagic {
		return &core.ValidationError{Field: "backup", Err: errors.New("not an SQLite database file")}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var (
		rec      core.Record
		date     string
		amount   string
		priority sql.NullString
	)
	if err := row.Scan(&rec.ID, &date, &amount, &rec.Category, &rec.Description, &priority); err != nil {
		return core.Record{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Record{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	rec.Date = d
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	rec.Amount = amt
	if priority.Valid && priority.String != "" {
		rec.Priority = core.Priority(priority.String)
	} else {
		// Rows created before the priority column existed.
		rec.Priority = core.DefaultPriority(rec.Category)
	}
	return rec, nil
}
