// Package memory is an in-process store. Each transaction works on a
// private copy of the data set that replaces the committed one on success.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"
)

// Op names a mutating operation, for fault injection.
type Op string

const (
	OpInsert   Op = "insert"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpReassign Op = "reassign"
)

// Fault lets tests fail a specific write. Returning nil lets it through.
type Fault func(op Op, kind models.Kind) error

type entry struct {
	seq uint64
	doc []byte
}

type dataset map[models.Kind]map[string]entry

func (d dataset) clone() dataset {
	out := make(dataset, len(d))
	for k, rows := range d {
		out[k] = maps.Clone(rows)
	}
	return out
}

type Store struct {
	mu    sync.Mutex
	data  dataset
	seq   uint64
	fault Fault
}

func New() *Store {
	return &Store{data: dataset{}}
}

// SetFault installs f for subsequent transactions.
func (s *Store) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

type txKey struct{ s *Store }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if tx, ok := ctx.Value(txKey{s}).(*memTx); ok {
		return fn(ctx, tx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{data: s.data.clone(), seq: s.seq, fault: s.fault}
	if err := fn(context.WithValue(ctx, txKey{s}, tx), tx); err != nil {
		return err
	}
	s.data = tx.data
	s.seq = tx.seq
	return nil
}

type memTx struct {
	data  dataset
	seq   uint64
	fault Fault
}

func (t *memTx) check(op Op, kind models.Kind) error {
	if t.fault == nil {
		return nil
	}
	return t.fault(op, kind)
}

func (t *memTx) rows(kind models.Kind) map[string]entry {
	rows, ok := t.data[kind]
	if !ok {
		rows = map[string]entry{}
		t.data[kind] = rows
	}
	return rows
}

func (t *memTx) Insert(ctx context.Context, rec models.Record) error {
	if err := t.check(OpInsert, rec.Kind()); err != nil {
		return err
	}
	meta := rec.GetMeta()
	if meta.ID == "" {
		return fmt.Errorf("insert %s: empty id", rec.Kind())
	}
	rows := t.rows(rec.Kind())
	if _, exists := rows[meta.ID]; exists {
		return fmt.Errorf("insert %s/%s: %w", rec.Kind(), meta.ID, store.ErrDuplicate)
	}
	if ticket, ok := rec.(*models.Ticket); ok {
		if err := t.uniqueTicketNumber(ticket); err != nil {
			return err
		}
	}

	meta.Version = 1
	doc, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	t.seq++
	rows[meta.ID] = entry{seq: t.seq, doc: doc}
	return nil
}

func (t *memTx) uniqueTicketNumber(ticket *models.Ticket) error {
	for id, e := range t.data[models.KindTicket] {
		if id == ticket.ID {
			continue
		}
		other, err := models.Decode(models.KindTicket, e.doc)
		if err != nil {
			return err
		}
		if other.(*models.Ticket).TicketNumber == ticket.TicketNumber {
			return fmt.Errorf("ticket_number %s: %w", ticket.TicketNumber, store.ErrDuplicate)
		}
	}
	return nil
}

func (t *memTx) Get(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	e, ok := t.data[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", kind, id, store.ErrNotFound)
	}
	return models.Decode(kind, e.doc)
}

func (t *memTx) Update(ctx context.Context, rec models.Record) error {
	if err := t.check(OpUpdate, rec.Kind()); err != nil {
		return err
	}
	meta := rec.GetMeta()
	rows := t.rows(rec.Kind())
	e, ok := rows[meta.ID]
	if !ok {
		return fmt.Errorf("%s/%s: %w", rec.Kind(), meta.ID, store.ErrNotFound)
	}
	stored, err := models.Decode(rec.Kind(), e.doc)
	if err != nil {
		return err
	}
	if stored.GetMeta().Version != meta.Version {
		return fmt.Errorf("%s/%s at version %d: %w", rec.Kind(), meta.ID, meta.Version, store.ErrConflict)
	}

	meta.Version++
	doc, err := json.Marshal(rec)
	if err != nil {
		meta.Version--
		return err
	}
	rows[meta.ID] = entry{seq: e.seq, doc: doc}
	return nil
}

func (t *memTx) SoftDelete(ctx context.Context, kind models.Kind, id string, at time.Time, by string) error {
	if err := t.check(OpDelete, kind); err != nil {
		return err
	}
	rec, err := t.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	meta := rec.GetMeta()
	if meta.Deleted() {
		return fmt.Errorf("%s/%s already deleted: %w", kind, id, store.ErrNotFound)
	}
	meta.DeletedAt = &at
	meta.DeletedBy = by
	meta.UpdatedAt = at
	return t.Update(ctx, rec)
}

func (t *memTx) List(ctx context.Context, kind models.Kind, conds ...models.Condition) ([]models.Record, error) {
	rows := t.data[kind]
	ordered := make([]entry, 0, len(rows))
	for _, e := range rows {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	var out []models.Record
	for _, e := range ordered {
		rec, err := models.Decode(kind, e.doc)
		if err != nil {
			return nil, err
		}
		if rec.GetMeta().Deleted() {
			continue
		}
		ok, err := condition.Match(conds, rec)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (t *memTx) Reassign(ctx context.Context, kind models.Kind, from, to models.Ref, at time.Time) (int64, error) {
	if err := t.check(OpReassign, kind); err != nil {
		return 0, err
	}
	children, err := t.List(ctx, kind, condition.ChildOf(from)...)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, rec := range children {
		child, ok := rec.(models.Child)
		if !ok {
			return n, fmt.Errorf("reassign %s: %w", kind, models.ErrNotChildKind)
		}
		child.SetParent(to)
		child.GetMeta().UpdatedAt = at
		if err := t.Update(ctx, child); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
