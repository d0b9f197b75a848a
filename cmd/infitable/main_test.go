package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Alp4ka/infitable"
	"github.com/Alp4ka/infitable/internal/config"
	"github.com/Alp4ka/infitable/tui"
)

func newGORMMySQLMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

func TestDBDataset_Fetch(t *testing.T) {
	db, mock := newGORMMySQLMock(t)

	cfg := &config.Config{
		Driver:  config.DriverMySQL,
		Table:   "users",
		Columns: []string{"id", "name=u.full_name"},
	}
	ds, err := dbDataset(db, cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.Equal(t, "users", ds.title)
	require.Len(t, ds.columns, 2)

	mock.ExpectQuery("^SELECT id, u.full_name AS name FROM `users` ORDER BY u.full_name DESC LIMIT 2 OFFSET 2$").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Cy"))

	page, err := ds.fetch(context.Background(), 2, 2, infitable.SortBy("name", infitable.DirectionDESC))
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	require.True(t, page.Last)
	assert.Equal(t, "Cy", ds.columns[1].Cell(page.Rows[0]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBDataset_Keyset(t *testing.T) {
	db, mock := newGORMMySQLMock(t)

	cfg := &config.Config{
		Driver:  config.DriverMySQL,
		Table:   "users",
		Columns: []string{"id", "name=u.full_name"},
		Keyset:  "id",
	}
	ds, err := dbDataset(db, cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	mock.ExpectQuery("^SELECT id, u.full_name AS name FROM `users` ORDER BY u.full_name ASC, id ASC LIMIT 3$").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Al").AddRow(2, "Bo").AddRow(3, "Cy"))
	mock.ExpectQuery("^SELECT id, u.full_name AS name FROM `users` WHERE \\(u.full_name > \\? OR \\(u.full_name = \\? AND id > \\?\\)\\) ORDER BY u.full_name ASC, id ASC LIMIT 3$").
		WithArgs("Bo", "Bo", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Cy"))

	sort := infitable.SortBy("name", infitable.DirectionASC)
	page, err := ds.fetch(context.Background(), 0, 2, sort)
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	require.False(t, page.Last)

	page, err = ds.fetch(context.Background(), 2, 2, sort)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	require.True(t, page.Last)
	assert.Equal(t, "Cy", ds.columns[1].Cell(page.Rows[0]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryDataset(t *testing.T) {
	ds, err := memoryDataset(&config.Config{Rows: 25})
	require.NoError(t, err)
	require.Equal(t, "demo (25 rows)", ds.title)
	require.Len(t, ds.columns, len(demoColumns))

	page, err := ds.fetch(context.Background(), 0, 10, infitable.SortBy("id", infitable.DirectionDESC))
	require.NoError(t, err)
	require.Len(t, page.Rows, 10)
	assert.Equal(t, 25, page.Rows[0]["id"])
	assert.False(t, page.Last)

	page, err = ds.fetch(context.Background(), 20, 10, infitable.SortSpec{})
	require.NoError(t, err)
	require.Len(t, page.Rows, 5)
	assert.True(t, page.Last)
}

func TestMemoryDataset_Columns(t *testing.T) {
	ds, err := memoryDataset(&config.Config{Rows: 3, Columns: []string{"name", "score"}})
	require.NoError(t, err)
	require.Equal(t, "name", ds.columns[0].ID)
	require.Equal(t, "score", ds.columns[1].ID)

	_, err = ds.fetch(context.Background(), 0, 3, infitable.SortBy("id", infitable.DirectionASC))
	require.ErrorIs(t, err, infitable.ErrUnknownColumn, "only shown columns sort")

	_, err = memoryDataset(&config.Config{Columns: []string{"salary"}})
	require.ErrorIs(t, err, infitable.ErrUnknownColumn)
}

func TestMemoryDataset_ColumnsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INFITABLE_COLUMNS", "name,score")

	cfg, _, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "score"}, cfg.Columns)

	ds, err := memoryDataset(cfg)
	require.NoError(t, err)
	require.Len(t, ds.columns, 2)
	assert.Equal(t, "score", ds.columns[1].ID)
}

func TestDemoRecords(t *testing.T) {
	rows := demoRecords(12)
	require.Len(t, rows, 12)
	assert.Equal(t, "Ada 1", rows[0]["name"])
	assert.Equal(t, "Ada 2", rows[10]["name"])
	assert.Equal(t, "Ada joined as #1\nmentor", rows[0]["bio"])
	assert.Equal(t, demoRecords(12), rows)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{[]byte("bytes"), "bytes"},
		{ts, "2024-03-05 14:30:00"},
		{12.345, "12.3"},
		{int64(7), "7"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestCompareValues(t *testing.T) {
	assert.Negative(t, compareValues(1, 2))
	assert.Positive(t, compareValues(int64(5), int64(2)))
	assert.Zero(t, compareValues(1.5, 1.5))
	assert.Negative(t, compareValues("a", "b"))
	assert.Negative(t, compareValues(time.Unix(1, 0), time.Unix(2, 0)))
	assert.Positive(t, compareValues(nil, 3), "NULL sorts by its text")
	assert.Positive(t, compareValues("x", 2))
}

func TestNewShell_AppliesSort(t *testing.T) {
	cfg := &config.Config{
		Driver:   config.DriverMemory,
		Rows:     30,
		Sort:     "score desc",
		Mode:     "infinite",
		PageSize: 10,
	}
	ds, err := memoryDataset(cfg)
	require.NoError(t, err)

	notifier := tui.NewNotifier()
	defer notifier.Close()

	shell, err := newShell(cfg, ds, notifier, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer shell.Close()

	require.Equal(t, infitable.SortBy("score", infitable.DirectionDESC), shell.Sort())

	shell.Start()
	shell.Wait()
	rows := shell.Snapshot().Rows
	require.Len(t, rows, 10)
	assert.GreaterOrEqual(t, rows[0]["score"].(float64), rows[9]["score"].(float64))
}

func TestNewShell_InvalidSort(t *testing.T) {
	cfg := &config.Config{Driver: config.DriverMemory, Rows: 3, Sort: "scroe desc"}
	ds, err := memoryDataset(cfg)
	require.NoError(t, err)

	_, err = newShell(cfg, ds, tui.NewNotifier(), slog.New(slog.DiscardHandler))
	require.ErrorIs(t, err, infitable.ErrUnknownColumn)
	assert.Contains(t, err.Error(), "closest: 'score'")
}

func TestBrowseCmd_RejectsInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetErr(&stderr)
	cmd.SetOut(&stderr)
	cmd.SetArgs([]string{"browse", "--driver", "oracle"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestNewLogger(t *testing.T) {
	logger, closer, err := newLogger("", false)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	logger.Info("discarded")

	path := filepath.Join(t.TempDir(), "infitable.log")
	logger, closer, err = newLogger(path, true)
	require.NoError(t, err)
	logger.Debug("traced")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)
}
