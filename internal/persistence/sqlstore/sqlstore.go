// Package sqlstore is a persistence.Store over database/sql. Each entity
// type maps onto one table of TEXT columns holding encoded values; SQLite
// is reached through go-sqlite3 and PostgreSQL through pgx or lib/pq.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
	"github.com/conduit-lang/metamodel/internal/persistence/mapping"
	"github.com/conduit-lang/metamodel/internal/persistence/tracking"
)

// Store keeps entities in a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	ids     *tracking.IdentityMap
	logger  *zap.Logger

	// mu serializes materialization so one id yields one attached pojo.
	mu sync.Mutex
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database named by dsn through driver.
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	dialect, err := DialectOf(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if dialect == SQLite {
		// sqlite serializes writers; :memory: databases are per connection
		db.SetMaxOpenConns(1)
	}
	return New(db, dialect, logger), nil
}

// New creates a store over an open database.
func New(db *sql.DB, dialect Dialect, logger *zap.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		ids:     tracking.NewIdentityMap(),
		logger:  logging.OrNop(logger).Named("sqlstore"),
	}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) State(pojo any) spec.EntityState {
	return s.ids.State(pojo)
}

func (s *Store) Identify(pojo any) (string, bool) {
	return s.ids.Identify(pojo)
}

func (s *Store) columnList(table *mapping.Table) string {
	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = s.dialect.Quote(c.Name)
	}
	return strings.Join(names, ", ")
}

func (s *Store) Load(ctx context.Context, sp *spec.Specification, id string) (any, error) {
	table, err := mapping.Of(sp)
	if err != nil {
		return nil, err
	}
	if pojo, ok := s.ids.Attached(reflect.PointerTo(sp.Type()), id); ok {
		return pojo, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.columnList(table), s.dialect.Quote(table.Name), s.dialect.Quote(table.Key.Name), s.dialect.Placeholder(1))
	row, err := scanRow(s.db.QueryRowContext(ctx, query, id), len(table.Columns))
	if err != nil {
		err = persistence.ConvertDBError(err)
		if errors.Is(err, spec.ErrObjectNotFound) {
			return nil, fmt.Errorf("%s %q: %w", sp.LogicalTypeName(), id, err)
		}
		return nil, fmt.Errorf("failed to load %s %q: %w", sp.LogicalTypeName(), id, err)
	}
	return s.materialize(table, id, row)
}

// materialize returns the pojo attached under id, creating it from row
// when there is none.
func (s *Store) materialize(table *mapping.Table, id string, row []sql.NullString) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pojo, ok := s.ids.Attached(reflect.PointerTo(table.Spec.Type()), id); ok {
		return pojo, nil
	}
	pojo := table.New()
	if err := table.Assign(pojo, row); err != nil {
		return nil, fmt.Errorf("failed to load %s %q: %w", table.Spec.LogicalTypeName(), id, err)
	}
	s.ids.Attach(pojo, id, table.Snapshot(pojo))
	persistence.NotifyLoaded(pojo)
	return pojo, nil
}

func (s *Store) Query(ctx context.Context, sp *spec.Specification, q spec.Query) ([]any, error) {
	table, err := mapping.Of(sp)
	if err != nil {
		return nil, err
	}

	properties := make([]string, 0, len(q.Where))
	for id := range q.Where {
		properties = append(properties, id)
	}
	slices.Sort(properties)

	var conditions []string
	var args []any
	for _, id := range properties {
		c, ok := table.Column(id)
		if !ok {
			return nil, fmt.Errorf("%s has no persisted property %q", sp.LogicalTypeName(), id)
		}
		encoded, err := c.EncodeValue(q.Where[id])
		if err != nil {
			return nil, err
		}
		if encoded == nil {
			conditions = append(conditions, s.dialect.Quote(c.Name)+" IS NULL")
			continue
		}
		args = append(args, encoded)
		conditions = append(conditions, fmt.Sprintf("%s = %s", s.dialect.Quote(c.Name), s.dialect.Placeholder(len(args))))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", s.columnList(table), s.dialect.Quote(table.Name))
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s", s.dialect.Quote(table.Key.Name))
	b.WriteString(s.dialect.LimitOffset(q.Limit, q.Offset))
	query := b.String()
	s.logger.Debug("Executing query", zap.String("sql", query))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table.Name, persistence.ConvertDBError(err))
	}
	defer rows.Close()

	var found [][]sql.NullString
	for rows.Next() {
		row, err := scanRow(rows, len(table.Columns))
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table.Name, err)
		}
		found = append(found, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table.Name, persistence.ConvertDBError(err))
	}

	out := make([]any, 0, len(found))
	for _, row := range found {
		pojo, err := s.materialize(table, row[0].String, row)
		if err != nil {
			return nil, err
		}
		out = append(out, pojo)
	}
	return out, nil
}

func (s *Store) Persist(ctx context.Context, sp *spec.Specification, pojo any) error {
	table, err := mapping.Of(sp)
	if err != nil {
		return err
	}

	entry, tracked := s.ids.Entry(pojo)
	switch {
	case tracked && entry.State == spec.Destroyed:
		return persistence.ErrDestroyed
	case tracked && entry.State == spec.Attached:
		return s.update(ctx, table, entry, pojo)
	case tracked:
		return s.merge(ctx, table, entry, pojo)
	}
	return s.insert(ctx, table, pojo)
}

func (s *Store) insert(ctx context.Context, table *mapping.Table, pojo any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	persistence.NotifyPersisting(pojo)
	id, err := table.AssignKey(pojo, func() (int64, error) {
		return s.nextKey(ctx, tx, table)
	})
	if err != nil {
		return err
	}
	if err := s.insertRow(ctx, tx, table, pojo); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.ids.Attach(pojo, id, table.Snapshot(pojo))
	s.logger.Debug("Inserted entity", zap.String("table", table.Name), zap.String("id", id))
	return nil
}

func (s *Store) insertRow(ctx context.Context, tx *sql.Tx, table *mapping.Table, pojo any) error {
	values, err := table.Row(pojo)
	if err != nil {
		return err
	}
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = s.dialect.Placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.Quote(table.Name), s.columnList(table), strings.Join(placeholders, ", "))
	if _, err := tx.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table.Name, persistence.ConvertDBError(err))
	}
	return nil
}

// nextKey reads the next integer key of table. Keys are stored as text.
func (s *Store) nextKey(ctx context.Context, tx *sql.Tx, table *mapping.Table) (int64, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(CAST(%s AS BIGINT)), 0) + 1 FROM %s",
		s.dialect.Quote(table.Key.Name), s.dialect.Quote(table.Name))
	var next int64
	if err := tx.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to read next key of %s: %w", table.Name, persistence.ConvertDBError(err))
	}
	return next, nil
}

// update writes only the columns changed since pojo was last stored.
func (s *Store) update(ctx context.Context, table *mapping.Table, entry tracking.Entry, pojo any) error {
	current := table.Snapshot(pojo)
	changes := tracking.NewChangeTracker(entry.Snapshot, current)
	if !changes.HasChanges() {
		return nil
	}
	if changes.Changed(table.Key.Property.ID()) {
		return fmt.Errorf("%s %q: key cannot change once persisted", table.Spec.LogicalTypeName(), entry.ID)
	}

	n, err := s.updateColumns(ctx, table, entry.ID, changes.ChangedProperties(), pojo)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", table.Spec.LogicalTypeName(), entry.ID, spec.ErrObjectNotFound)
	}
	s.ids.Attach(pojo, entry.ID, current)
	s.logger.Debug("Updated entity", zap.String("table", table.Name), zap.String("id", entry.ID),
		zap.Strings("properties", changes.ChangedProperties()))
	return nil
}

// merge stores a detached pojo, inserting it again if its row is gone, and
// attaches it.
func (s *Store) merge(ctx context.Context, table *mapping.Table, entry tracking.Entry, pojo any) error {
	var ids []string
	for _, c := range table.Columns[1:] {
		ids = append(ids, c.Property.ID())
	}
	n, err := s.updateColumns(ctx, table, entry.ID, ids, pojo)
	if err != nil {
		return err
	}
	if n == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()
		if err := s.insertRow(ctx, tx, table, pojo); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	}
	s.ids.Attach(pojo, entry.ID, table.Snapshot(pojo))
	return nil
}

func (s *Store) updateColumns(ctx context.Context, table *mapping.Table, id string, properties []string, pojo any) (int64, error) {
	if len(properties) == 0 {
		return 1, nil
	}
	var sets []string
	var args []any
	for _, p := range properties {
		c, _ := table.Column(p)
		v, err := c.Encode(pojo)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = %s", s.dialect.Quote(c.Name), s.dialect.Placeholder(len(args))))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.Quote(table.Name), strings.Join(sets, ", "), s.dialect.Quote(table.Key.Name), s.dialect.Placeholder(len(args)))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table.Name, persistence.ConvertDBError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, sp *spec.Specification, pojo any) error {
	table, err := mapping.Of(sp)
	if err != nil {
		return err
	}
	entry, err := s.attached(pojo)
	if err != nil {
		return err
	}

	persistence.NotifyRemoving(pojo)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		s.dialect.Quote(table.Name), s.dialect.Quote(table.Key.Name), s.dialect.Placeholder(1))
	result, err := s.db.ExecContext(ctx, query, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table.Name, persistence.ConvertDBError(err))
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.logger.Warn("Deleted entity was already gone", zap.String("table", table.Name), zap.String("id", entry.ID))
	}
	s.ids.Destroy(pojo)
	return nil
}

func (s *Store) Refresh(ctx context.Context, sp *spec.Specification, pojo any) ([]string, error) {
	table, err := mapping.Of(sp)
	if err != nil {
		return nil, err
	}
	entry, err := s.attached(pojo)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.columnList(table), s.dialect.Quote(table.Name), s.dialect.Quote(table.Key.Name), s.dialect.Placeholder(1))
	row, err := scanRow(s.db.QueryRowContext(ctx, query, entry.ID), len(table.Columns))
	if err != nil {
		return nil, fmt.Errorf("failed to refresh %s %q: %w", sp.LogicalTypeName(), entry.ID, persistence.ConvertDBError(err))
	}

	current := table.Snapshot(pojo)
	if err := table.Assign(pojo, row); err != nil {
		return nil, err
	}
	stored := table.Snapshot(pojo)
	s.ids.Attach(pojo, entry.ID, stored)
	persistence.NotifyLoaded(pojo)
	return tracking.NewChangeTracker(stored, current).ChangedProperties(), nil
}

func (s *Store) Detach(ctx context.Context, sp *spec.Specification, pojo any) error {
	if _, err := s.attached(pojo); err != nil {
		return err
	}
	s.ids.Detach(pojo)
	return nil
}

func (s *Store) attached(pojo any) (tracking.Entry, error) {
	entry, ok := s.ids.Entry(pojo)
	switch {
	case ok && entry.State == spec.Attached:
		return entry, nil
	case ok && entry.State == spec.Destroyed:
		return entry, persistence.ErrDestroyed
	default:
		return entry, persistence.ErrNotAttached
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner, n int) ([]sql.NullString, error) {
	values := make([]sql.NullString, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}
