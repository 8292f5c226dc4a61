package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestInsertCommits(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO records").
		WithArgs("lead", "l1", int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lead := &models.Lead{FirstName: "Ada"}
	lead.ID = "l1"
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Insert(ctx, lead)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), lead.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDuplicateRollsBack(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO records").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	ticket := &models.Ticket{TicketNumber: "TIC-000001"}
	ticket.ID = "t1"
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Insert(ctx, ticket)
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVersionConflict(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE records SET data").
		WithArgs(sqlmock.AnyArg(), int64(4), sqlmock.AnyArg(), sqlmock.AnyArg(), "lead", "l1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("lead", "l1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	lead := &models.Lead{Status: models.LeadStatusConverted}
	lead.ID = "l1"
	lead.Version = 3
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Update(ctx, lead)
	})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, int64(3), lead.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT data, version FROM records").
		WithArgs("deal", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version"}))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Get(ctx, models.KindDeal, "missing")
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCompilesConditions(t *testing.T) {
	s, mock := newMock(t)

	query := `SELECT data, version FROM records WHERE kind = $1 AND deleted_at IS NULL ` +
		`AND data->>'parent_type' = $2 AND data->>'parent_id' = $3 ORDER BY created_at, seq`
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("activity", "deal", "d1").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version"}).
			AddRow([]byte(`{"id":"a1","subject":"Call","parent_type":"deal","parent_id":"d1"}`), int64(2)))
	mock.ExpectCommit()

	var got []models.Record
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		got, err = tx.List(ctx, models.KindActivity, condition.ChildOf(models.Ref{Kind: models.KindDeal, ID: "d1"})...)
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	activity := got[0].(*models.Activity)
	assert.Equal(t, "Call", activity.Subject)
	assert.Equal(t, int64(2), activity.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReassignAndSoftDelete(t *testing.T) {
	s, mock := newMock(t)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE records SET updated_at").
		WithArgs(at, "project", "p1", sqlmock.AnyArg(), "engagement", "deal", "d1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE records SET deleted_at").
		WithArgs(at, sqlmock.AnyArg(), "u1", "contact", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		n, err := tx.Reassign(ctx, models.KindEngagement,
			models.Ref{Kind: models.KindDeal, ID: "d1"}, models.Ref{Kind: models.KindProject, ID: "p1"}, at)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		return tx.SoftDelete(ctx, models.KindContact, "c1", at, "u1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
