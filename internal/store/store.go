// Package store archives decoded OFX documents in sqlite.
//
// Each document gets one row in documents and one row per scalar value
// in elements, in encoding order. Decimal values are also kept as
// fixed-point integers so amounts can be summed exactly in SQL.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/tracing"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrDuplicate is returned by Save when a document with the same digest
// is already archived.
var ErrDuplicate = errors.New("document already archived")

// Store is an open archive.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
}

// Option configures Open.
type Option func(*Store)

// WithTracer records a span per Save.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// Open opens or creates the archive at path and applies pending
// migrations.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	log.Debug(log.CatStore, "opened archive", "path", path)
	return s, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	// m.Close would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating archive: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Document is one archived document.
type Document struct {
	ID        uuid.UUID
	Digest    string
	Source    string
	RootTag   string
	Version   int
	CreatedAt time.Time
}

// Element is one archived scalar value.
type Element struct {
	Seq   int
	Path  string
	Field string
	Text  string
	// Fixed and Scale are set for decimal fields.
	Fixed *int64
	Scale *int
}

// Decimal returns the exact value of a decimal element.
func (e Element) Decimal() (decimal.Decimal, bool) {
	if e.Fixed == nil || e.Scale == nil {
		return decimal.Decimal{}, false
	}
	return decimal.New(*e.Fixed, -int32(*e.Scale)), true
}

// Exists reports whether a document with digest is archived.
func (s *Store) Exists(ctx context.Context, digest string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE digest = ?`, digest).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking digest: %w", err)
	}
	return n > 0, nil
}

// Save archives in under digest. It returns ErrDuplicate, wrapped, when
// the digest is already present.
func (s *Store) Save(ctx context.Context, digest, source string, version int, in *aggregate.Instance) (doc Document, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, tracing.SpanArchive,
		attribute.String(tracing.AttrDigest, digest),
		attribute.String(tracing.AttrFile, source),
	)
	defer func() { tracing.Finish(span, err) }()

	rows, err := Flatten(in)
	if err != nil {
		return Document{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing string
	switch err = tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE digest = ?`, digest).Scan(&existing); {
	case err == nil:
		span.AddEvent(tracing.EventDuplicate)
		return Document{}, fmt.Errorf("%w: %s as %s", ErrDuplicate, digest, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return Document{}, fmt.Errorf("checking digest: %w", err)
	}

	doc = Document{
		ID:        uuid.New(),
		Digest:    digest,
		Source:    source,
		RootTag:   in.Kind(),
		Version:   version,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, digest, source, root_tag, version, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID.String(), doc.Digest, doc.Source, doc.RootTag, doc.Version, doc.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return Document{}, fmt.Errorf("inserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO elements (document_id, seq, path, field, text, fixed_value, scale) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Document{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, doc.ID.String(), r.Seq, r.Path, r.Field, r.Text, r.Fixed, r.Scale); err != nil {
			return Document{}, fmt.Errorf("inserting element %d: %w", r.Seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("committing: %w", err)
	}
	span.SetAttributes(attribute.String(tracing.AttrDocument, doc.ID.String()))
	log.Info(log.CatStore, "archived document", "id", doc.ID, "elements", len(rows))
	return doc, nil
}

// Documents lists archived documents, oldest first.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, digest, source, root_tag, version, created_at FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		var id, created string
		if err := rows.Scan(&id, &d.Digest, &d.Source, &d.RootTag, &d.Version, &created); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("document id %q: %w", id, err)
		}
		if d.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("document created_at %q: %w", created, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Elements returns the archived values of a document in order.
func (s *Store) Elements(ctx context.Context, id uuid.UUID) ([]Element, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, path, field, text, fixed_value, scale FROM elements WHERE document_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("listing elements: %w", err)
	}
	defer rows.Close()

	var out []Element
	for rows.Next() {
		var e Element
		var fixed, scale sql.NullInt64
		if err := rows.Scan(&e.Seq, &e.Path, &e.Field, &e.Text, &fixed, &scale); err != nil {
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		if fixed.Valid && scale.Valid {
			f, sc := fixed.Int64, int(scale.Int64)
			e.Fixed, e.Scale = &f, &sc
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sum adds the fixed-point values of every archived field named field.
func (s *Store) Sum(ctx context.Context, id uuid.UUID, field string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scale, SUM(fixed_value) FROM elements WHERE document_id = ? AND field = ? AND fixed_value IS NOT NULL GROUP BY scale`,
		id.String(), field)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing %s: %w", field, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var scale, sum int64
		if err := rows.Scan(&scale, &sum); err != nil {
			return decimal.Zero, fmt.Errorf("scanning sum: %w", err)
		}
		total = total.Add(decimal.New(sum, -int32(scale)))
	}
	return total, rows.Err()
}
