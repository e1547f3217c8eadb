package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"spendcraft/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "spendcraft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(date core.Date, amount, category string) core.Record {
	return core.Record{
		Date:        date,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: category + " purchase",
		Priority:    core.DefaultPriority(category),
	}
}

func TestAddAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := record(core.NewDate(2024, 1, 5), "20.00", "Food")
	id, err := repo.Add(ctx, rec)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, rec.Date, got.Date)
	require.True(t, rec.Amount.Equal(got.Amount), "amount %s != %s", rec.Amount, got.Amount)
	require.Equal(t, rec.Category, got.Category)
	require.Equal(t, core.Must, got.Priority)
}

func TestReadAfterWrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, record(core.NewDate(2024, 2, 1), "9.99", "Transport"))
	require.NoError(t, err)

	// An immediately following query must observe the committed write.
	recs, err := repo.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, id, recs[0].ID)
}

func TestUpdateUnknownID(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Update(context.Background(), 12345, record(core.NewDate(2024, 1, 1), "1.00", "Food"))
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteUnknownID(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Delete(context.Background(), 12345)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteRemovesRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, record(core.NewDate(2024, 3, 3), "15.00", "Shopping"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.Get(ctx, id)
	require.ErrorIs(t, err, core.ErrNotFound)

	recs, err := repo.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestQueryFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Record{
		record(core.NewDate(2024, 1, 5), "20.00", "Food"),
		record(core.NewDate(2024, 1, 20), "80.00", "Food"),
		record(core.NewDate(2024, 2, 10), "50.00", "Housing"),
		record(core.NewDate(2024, 3, 1), "30.00", "Transport"),
	}
	for _, rec := range seed {
		_, err := repo.Add(ctx, rec)
		require.NoError(t, err)
	}

	recs, err := repo.Query(ctx, Filter{From: core.NewDate(2024, 1, 1), To: core.NewDate(2024, 2, 28)})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	recs, err = repo.Query(ctx, Filter{Categories: []string{"Food"}})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	recs, err = repo.Query(ctx, Filter{
		From:       core.NewDate(2024, 1, 10),
		To:         core.NewDate(2024, 3, 31),
		Categories: []string{"Food", "Transport"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Ordered by date.
	require.True(t, recs[0].Date.Before(recs[1].Date.Time))
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Record{
		record(core.NewDate(2024, 1, 5), "20.00", "Food"),
		record(core.NewDate(2024, 2, 10), "50.00", "Housing"),
	}
	for _, rec := range seed {
		_, err := repo.Add(ctx, rec)
		require.NoError(t, err)
	}

	var snapshot bytes.Buffer
	require.NoError(t, repo.Backup(ctx, &snapshot))
	require.True(t, bytes.HasPrefix(snapshot.Bytes(), []byte(sqliteMagic[:15])))

	// Writes after the snapshot are discarded by the restore.
	_, err := repo.Add(ctx, record(core.NewDate(2024, 3, 1), "9.00", "Transport"))
	require.NoError(t, err)

	n, err := repo.Restore(ctx, &snapshot)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	recs, err := repo.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "Food", recs[0].Category)
	require.Equal(t, "50.00", recs[1].Amount.StringFixed(2))
}

func TestRestoreRejectsNonDatabase(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, record(core.NewDate(2024, 1, 5), "20.00", "Food"))
	require.NoError(t, err)

	_, err = repo.Restore(ctx, strings.NewReader("definitely not a database"))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	// A rejected restore must leave the ledger untouched.
	recs, err := repo.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestUpdateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, record(core.NewDate(2024, 1, 5), "20.00", "Food"))
	require.NoError(t, err)

	updated := record(core.NewDate(2024, 1, 6), "25.50", "Entertainment")
	require.NoError(t, repo.Update(ctx, id, updated))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Entertainment", got.Category)
	require.Equal(t, "25.50", got.Amount.StringFixed(2))
	require.Equal(t, "2024-01-06", got.Date.String())
}
