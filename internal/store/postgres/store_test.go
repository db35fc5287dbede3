package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/entity-scanner/internal/metrics"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

var columns = []string{"id", "type", "value", "description", "risk_score", "created_at"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mock.ExpectPing()
	s, err := New(context.Background(), mock, testLogger(), metrics.NewCollector())
	require.NoError(t, err)
	return s, mock
}

func TestNewPropagatesPingError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pingErr := errors.New("database unavailable")
	mock.ExpectPing().WillReturnError(pingErr)

	_, err = New(context.Background(), mock, testLogger(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, pingErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	desc := models.StringPtr("Scanned email: alice@example.com")

	mock.ExpectQuery(regexp.QuoteMeta(sqlInsertEntity)).
		WithArgs("email", "alice@example.com", desc, (*float64)(nil)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), "email", "alice@example.com", desc, nil, now))

	got, err := s.Create(context.Background(), models.EntityInput{
		Type:        models.EntityEmail,
		Value:       "alice@example.com",
		Description: desc,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, models.EntityEmail, got.Type)
	require.NotNil(t, got.Description)
	assert.Equal(t, *desc, *got.Description)
	assert.Nil(t, got.RiskScore)
	assert.Equal(t, now, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())

	snap := s.metrics.Snapshot()
	require.NotNil(t, snap.Operations[metrics.OpRecordWrite])
	assert.EqualValues(t, 1, snap.Operations[metrics.OpRecordWrite].Count)
}

func TestCreateRejectsInvalidInputWithoutQuery(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.Create(context.Background(), models.EntityInput{Type: models.EntityPhone, Value: "1"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(sqlSelectEntity)).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(7), "domain", "example.com", nil, nil, time.Now()))

		got, err := s.Get(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, models.EntityDomain, got.Type)
		assert.Nil(t, got.Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(sqlSelectEntity)).
			WithArgs(int64(404)).
			WillReturnRows(pgxmock.NewRows(columns))

		_, err := s.Get(context.Background(), 404)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestList(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(sqlListEntities)).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(3), "breach", "example.com-breach-2023", nil, nil, now).
			AddRow(int64(2), "domain", "example.com", nil, nil, now))

	got, err := s.List(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID, "newest first")
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = s.List(context.Background(), 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestFindByIDs(t *testing.T) {
	s, mock := newMockStore(t)

	got, err := s.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got, "no ids means no query")

	mock.ExpectQuery(regexp.QuoteMeta(sqlSelectEntitiesByIDs)).
		WithArgs([]int64{2, 9}).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(2), "username", "alice", nil, nil, time.Now()))

	got, err = s.FindByIDs(context.Background(), []int64{2, 9})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByType(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(sqlCountByType)).
		WillReturnRows(pgxmock.NewRows([]string{"type", "count"}).
			AddRow("email", int64(2)).
			AddRow("breach", int64(3)))

	got, err := s.CountByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[models.EntityType]int64{models.EntityEmail: 2, models.EntityBreach: 3}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
