// Package postgres keeps every record in a single JSONB-backed table.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-crm-core/internal/models"
	"go-crm-core/internal/store"
	"go-crm-core/pkg/condition"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type txKey struct{ s *Store }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if tx, ok := ctx.Value(txKey{s}).(*pgTx); ok {
		return fn(ctx, tx)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	tx := &pgTx{tx: sqlTx}
	if err := fn(context.WithValue(ctx, txKey{s}, tx), tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

const uniqueViolation = "23505"

func translate(op string, kind models.Kind, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s %s: %w", op, kind, store.ErrDuplicate)
	}
	return fmt.Errorf("%s %s: %w", op, kind, err)
}

func (t *pgTx) Insert(ctx context.Context, rec models.Record) error {
	meta := rec.GetMeta()
	if meta.ID == "" {
		return fmt.Errorf("insert %s: empty id", rec.Kind())
	}
	meta.Version = 1
	doc, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO records (kind, id, version, created_at, updated_at, deleted_at, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(rec.Kind()), meta.ID, meta.Version, meta.CreatedAt, meta.UpdatedAt, meta.DeletedAt, doc)
	if err != nil {
		return translate("insert", rec.Kind(), err)
	}
	return nil
}

func (t *pgTx) Get(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	var (
		doc     []byte
		version int64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT data, version FROM records WHERE kind = $1 AND id = $2`,
		string(kind), id).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", kind, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	rec, err := models.Decode(kind, doc)
	if err != nil {
		return nil, err
	}
	rec.GetMeta().Version = version
	return rec, nil
}

func (t *pgTx) Update(ctx context.Context, rec models.Record) error {
	meta := rec.GetMeta()
	expected := meta.Version
	meta.Version++
	doc, err := json.Marshal(rec)
	if err != nil {
		meta.Version = expected
		return err
	}

	res, err := t.tx.ExecContext(ctx,
		`UPDATE records SET data = $1, version = $2, updated_at = $3, deleted_at = $4
		 WHERE kind = $5 AND id = $6 AND version = $7`,
		doc, meta.Version, meta.UpdatedAt, meta.DeletedAt, string(rec.Kind()), meta.ID, expected)
	if err != nil {
		meta.Version = expected
		return translate("update", rec.Kind(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		meta.Version = expected
		return fmt.Errorf("update %s: %w", rec.Kind(), err)
	}
	if n == 0 {
		meta.Version = expected
		var exists bool
		err := t.tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM records WHERE kind = $1 AND id = $2)`,
			string(rec.Kind()), meta.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("update %s: %w", rec.Kind(), err)
		}
		if !exists {
			return fmt.Errorf("%s/%s: %w", rec.Kind(), meta.ID, store.ErrNotFound)
		}
		return fmt.Errorf("%s/%s at version %d: %w", rec.Kind(), meta.ID, expected, store.ErrConflict)
	}
	return nil
}

func (t *pgTx) SoftDelete(ctx context.Context, kind models.Kind, id string, at time.Time, by string) error {
	stamp := at.UTC().Format(time.RFC3339Nano)
	res, err := t.tx.ExecContext(ctx,
		`UPDATE records SET deleted_at = $1, updated_at = $1, version = version + 1,
		        data = data || jsonb_build_object('deleted_at', $2::text, 'deleted_by', $3::text, 'updated_at', $2::text)
		 WHERE kind = $4 AND id = $5 AND deleted_at IS NULL`,
		at, stamp, by, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func (t *pgTx) List(ctx context.Context, kind models.Kind, conds ...models.Condition) ([]models.Record, error) {
	where, args, err := condition.ToSQL(conds, 2)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	query := `SELECT data, version FROM records WHERE kind = $1 AND deleted_at IS NULL`
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY created_at, seq"

	rows, err := t.tx.QueryContext(ctx, query, append([]any{string(kind)}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		rec, err := models.Decode(kind, doc)
		if err != nil {
			return nil, err
		}
		rec.GetMeta().Version = version
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *pgTx) Reassign(ctx context.Context, kind models.Kind, from, to models.Ref, at time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE records SET updated_at = $1, version = version + 1,
		        data = data || jsonb_build_object('parent_type', $2::text, 'parent_id', $3::text, 'updated_at', $4::text)
		 WHERE kind = $5 AND data->>'parent_type' = $6 AND data->>'parent_id' = $7 AND deleted_at IS NULL`,
		at, string(to.Kind), to.ID, at.UTC().Format(time.RFC3339Nano), string(kind), string(from.Kind), from.ID)
	if err != nil {
		return 0, fmt.Errorf("reassign %s: %w", kind, err)
	}
	return res.RowsAffected()
}
