package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	"github.com/aevon-lab/aggcache/internal/core/storage"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestAdapter_SaveRecord(t *testing.T) {
	occurredAt := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		record     *v1.Record
		mockResult func(mock sqlmock.Sqlmock, record *v1.Record)
		assertions func(t *testing.T, err error)
	}{
		{
			name: "success",
			record: &v1.Record{
				ID:         "rec-1",
				UserID:     "user-1",
				Product:    "YouTube",
				Title:      "Watched a video",
				Channel:    "chan-a",
				Topics:     []string{"music"},
				OccurredAt: occurredAt,
				Metadata:   map[string]string{"source": "takeout"},
			},
			mockResult: func(mock sqlmock.Sqlmock, record *v1.Record) {
				mock.ExpectExec(regexp.QuoteMeta(querySaveRecord)).
					WithArgs(
						record.ID,
						record.UserID,
						record.Product,
						record.Title,
						record.Channel,
						sqlmock.AnyArg(),
						record.OccurredAt,
						sqlmock.AnyArg(),
					).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "duplicate maps to ErrDuplicate",
			record: &v1.Record{
				ID:         "rec-dup",
				UserID:     "user-1",
				Product:    "YouTube",
				OccurredAt: occurredAt,
			},
			mockResult: func(mock sqlmock.Sqlmock, record *v1.Record) {
				mock.ExpectExec(regexp.QuoteMeta(querySaveRecord)).
					WithArgs(
						record.ID,
						record.UserID,
						record.Product,
						"",
						"",
						sqlmock.AnyArg(),
						record.OccurredAt,
						sqlmock.AnyArg(),
					).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorIs(t, err, storage.ErrDuplicate)
			},
		},
		{
			name: "database error is wrapped",
			record: &v1.Record{
				ID:         "rec-err",
				UserID:     "user-1",
				Product:    "YouTube",
				OccurredAt: occurredAt,
			},
			mockResult: func(mock sqlmock.Sqlmock, record *v1.Record) {
				mock.ExpectExec(regexp.QuoteMeta(querySaveRecord)).
					WillReturnError(errors.New("connection reset"))
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "failed to save record")
				require.ErrorContains(t, err, "connection reset")
			},
		},
		{
			name:       "invalid record never reaches the database",
			record:     &v1.Record{ID: "rec-bad", UserID: "user-1"},
			mockResult: func(mock sqlmock.Sqlmock, record *v1.Record) {},
			assertions: func(t *testing.T, err error) {
				require.EqualError(t, err, "product is required")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			tc.mockResult(mock, tc.record)

			err := adapter.SaveRecord(context.Background(), tc.record)
			tc.assertions(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_LoadRecords(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	adapter.clock = clockwork.NewFakeClockAt(now)

	mock.ExpectQuery(regexp.QuoteMeta(queryLoadRecords)).
		WithArgs("user-1", "YouTube", now.Add(-24*time.Hour), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(recordRowColumns()).
			AddRow(
				"rec-1",
				"user-1",
				"YouTube",
				"First",
				"chan-a",
				"{music,news}",
				now.Add(-2*time.Hour),
				[]byte(`{"source":"takeout"}`),
			).
			AddRow(
				"rec-2",
				"user-1",
				"YouTube",
				"Second",
				"chan-b",
				"{}",
				now.Add(-time.Hour),
				nil,
			),
		).RowsWillBeClosed()

	records, err := adapter.LoadRecords(context.Background(), "user-1", filters.Filters{
		Timeframe: filters.TimeframeDay,
		Product:   "YouTube",
		Channels:  []string{"chan-b", "chan-a"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "rec-1", records[0].ID)
	require.Equal(t, []string{"music", "news"}, records[0].Topics)
	require.Equal(t, "takeout", records[0].Metadata["source"])
	require.Equal(t, "rec-2", records[1].ID)
	require.Empty(t, records[1].Topics)
	require.Nil(t, records[1].Metadata)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_LoadRecordsAllDisablesProductAndTimeframe(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryLoadRecords)).
		WithArgs("user-1", "", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(recordRowColumns())).
		RowsWillBeClosed()

	records, err := adapter.LoadRecords(context.Background(), "user-1", filters.Filters{
		Timeframe: filters.TimeframeAll,
		Product:   filters.ProductAll,
	})
	require.NoError(t, err)
	require.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_LoadRecordsQueryError(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryLoadRecords)).
		WillReturnError(errors.New("timeout"))

	_, err := adapter.LoadRecords(context.Background(), "user-1", filters.Filters{})
	require.ErrorContains(t, err, "failed to query records")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	mock.ExpectPrepare(regexp.QuoteMeta(querySaveRecord)).WillBeClosed()
	stmtSave, err := db.Prepare(querySaveRecord)
	require.NoError(t, err)

	mock.ExpectPrepare(regexp.QuoteMeta(queryLoadRecords)).WillBeClosed()
	stmtLoad, err := db.Prepare(queryLoadRecords)
	require.NoError(t, err)

	mock.ExpectClose().WillReturnError(dbCloseErr)

	adapter := &Adapter{
		db:              db,
		clock:           clockwork.NewRealClock(),
		stmtSaveRecord:  stmtSave,
		stmtLoadRecords: stmtLoad,
	}

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:              db,
		clock:           clockwork.NewRealClock(),
		stmtSaveRecord:  mustPrepareStmt(t, db, mock, querySaveRecord),
		stmtLoadRecords: mustPrepareStmt(t, db, mock, queryLoadRecords),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func recordRowColumns() []string {
	return []string{
		"id",
		"user_id",
		"product",
		"title",
		"channel",
		"topics",
		"occurred_at",
		"metadata",
	}
}

func TestNewAdapter_ValidatesSchemaAndPrepares(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	for _, table := range []string{"activity_records", "aggregation_cache"} {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(table).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}
	mock.ExpectPrepare(regexp.QuoteMeta(querySaveRecord))
	mock.ExpectPrepare(regexp.QuoteMeta(queryLoadRecords))

	adapter, err := NewAdapter(db)
	require.NoError(t, err)
	require.Same(t, db, adapter.DB())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewAdapter_MissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("activity_records").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("aggregation_cache").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = NewAdapter(db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "aggregation_cache table does not exist")
	require.NoError(t, mock.ExpectationsWereMet())
}
