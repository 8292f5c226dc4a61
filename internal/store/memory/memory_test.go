package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func seedLead(t *testing.T, s *Store, id string, status models.LeadStatus) {
	t.Helper()
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		lead := &models.Lead{FirstName: id, Status: status}
		lead.ID = id
		lead.CreatedAt = now
		return tx.Insert(ctx, lead)
	})
	require.NoError(t, err)
}

func TestInsertGetUpdate(t *testing.T) {
	s := New()
	seedLead(t, s, "l1", models.LeadStatusNew)

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		rec, err := tx.Get(ctx, models.KindLead, "l1")
		require.NoError(t, err)
		lead := rec.(*models.Lead)
		assert.Equal(t, int64(1), lead.Version)

		lead.Status = models.LeadStatusContacted
		require.NoError(t, tx.Update(ctx, lead))
		assert.Equal(t, int64(2), lead.Version)

		stale := *lead
		stale.Version = 1
		assert.ErrorIs(t, tx.Update(ctx, &stale), store.ErrConflict)
		return nil
	})
	require.NoError(t, err)

	_ = s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Get(ctx, models.KindLead, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		lead := &models.Lead{FirstName: "x"}
		lead.ID = "l1"
		require.NoError(t, tx.Insert(ctx, lead))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_ = s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Get(ctx, models.KindLead, "l1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
}

func TestNestedWithTxJoinsOuter(t *testing.T) {
	s := New()
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return s.WithTx(ctx, func(ctx context.Context, inner store.Tx) error {
			assert.Same(t, tx, inner)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestListFiltersAndOrders(t *testing.T) {
	s := New()
	seedLead(t, s, "a", models.LeadStatusNew)
	seedLead(t, s, "b", models.LeadStatusLost)
	seedLead(t, s, "c", models.LeadStatusNew)

	_ = s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.SoftDelete(ctx, models.KindLead, "c", now, "u1"))
		assert.ErrorIs(t, tx.SoftDelete(ctx, models.KindLead, "c", now, "u1"), store.ErrNotFound)

		all, err := tx.List(ctx, models.KindLead)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "a", all[0].GetMeta().ID)
		assert.Equal(t, "b", all[1].GetMeta().ID)

		open, err := tx.List(ctx, models.KindLead, condition.Ne("status", "lost"))
		require.NoError(t, err)
		require.Len(t, open, 1)

		deleted, err := tx.Get(ctx, models.KindLead, "c")
		require.NoError(t, err)
		assert.True(t, deleted.GetMeta().Deleted())
		assert.Equal(t, "u1", deleted.GetMeta().DeletedBy)
		return nil
	})
}

func TestReassign(t *testing.T) {
	s := New()
	from := models.Ref{Kind: models.KindDeal, ID: "d1"}
	to := models.Ref{Kind: models.KindProject, ID: "p1"}

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, id := range []string{"a1", "a2"} {
			a := &models.Activity{Subject: id}
			a.ID = id
			a.SetParent(from)
			require.NoError(t, tx.Insert(ctx, a))
		}
		n, err := tx.Reassign(ctx, models.KindActivity, from, to, now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		return nil
	})
	require.NoError(t, err)

	_ = s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		moved, err := tx.List(ctx, models.KindActivity, condition.ChildOf(to)...)
		require.NoError(t, err)
		assert.Len(t, moved, 2)
		left, err := tx.List(ctx, models.KindActivity, condition.ChildOf(from)...)
		require.NoError(t, err)
		assert.Empty(t, left)
		return nil
	})
}

func TestTicketNumberUnique(t *testing.T) {
	s := New()
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		first := &models.Ticket{TicketNumber: "TIC-AAAAAA"}
		first.ID = "t1"
		require.NoError(t, tx.Insert(ctx, first))

		dup := &models.Ticket{TicketNumber: "TIC-AAAAAA"}
		dup.ID = "t2"
		return tx.Insert(ctx, dup)
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestFaultInjection(t *testing.T) {
	s := New()
	injected := errors.New("disk full")
	s.SetFault(func(op Op, kind models.Kind) error {
		if op == OpInsert && kind == models.KindDeal {
			return injected
		}
		return nil
	})

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		d := &models.Deal{Title: "x"}
		d.ID = "d1"
		return tx.Insert(ctx, d)
	})
	assert.ErrorIs(t, err, injected)
}
