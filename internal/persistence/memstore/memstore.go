// Package memstore is an in-process persistence.Store. Rows hold the encoded
// form of each persisted property, exactly as a SQL store would.
package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
	"github.com/conduit-lang/metamodel/internal/persistence/mapping"
	"github.com/conduit-lang/metamodel/internal/persistence/tracking"
)

// Store keeps entities in memory.
type Store struct {
	mu        sync.Mutex
	rows      map[string]map[string][]any
	sequences map[string]int64
	ids       *tracking.IdentityMap
	logger    *zap.Logger
}

var _ persistence.Store = (*Store)(nil)

// New creates an empty store.
func New(logger *zap.Logger) *Store {
	return &Store{
		rows:      make(map[string]map[string][]any),
		sequences: make(map[string]int64),
		ids:       tracking.NewIdentityMap(),
		logger:    logging.OrNop(logger).Named("memstore"),
	}
}

func (s *Store) State(pojo any) spec.EntityState {
	return s.ids.State(pojo)
}

func (s *Store) Identify(pojo any) (string, bool) {
	return s.ids.Identify(pojo)
}

func (s *Store) Load(ctx context.Context, sp *spec.Specification, id string) (any, error) {
	table, err := mapping.Of(sp)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materialize(table, id)
}

// materialize returns the attached pojo stored under id, reading it from
// its row when none is attached. Callers hold mu.
func (s *Store) materialize(table *mapping.Table, id string) (any, error) {
	if pojo, ok := s.ids.Attached(reflect.PointerTo(table.Spec.Type()), id); ok {
		return pojo, nil
	}
	row, ok := s.rows[table.Name][id]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", table.Spec.LogicalTypeName(), id, spec.ErrObjectNotFound)
	}
	pojo := table.New()
	if err := table.Assign(pojo, nullStrings(row)); err != nil {
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

	type criterion struct {
		index   int
		encoded any
	}
	var where []criterion
	for id, v := range q.Where {
		c, ok := table.Column(id)
		if !ok {
			return nil, fmt.Errorf("%s has no persisted property %q", sp.LogicalTypeName(), id)
		}
		encoded, err := c.EncodeValue(v)
		if err != nil {
			return nil, err
		}
		where = append(where, criterion{index: slices.Index(table.Columns, c), encoded: encoded})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.rows[table.Name]
	ids := make([]string, 0, len(rows))
	for id, row := range rows {
		if !slices.ContainsFunc(where, func(c criterion) bool { return row[c.index] != c.encoded }) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	if q.Offset > 0 {
		ids = ids[min(q.Offset, len(ids)):]
	}
	if q.Limit > 0 && len(ids) > q.Limit {
		ids = ids[:q.Limit]
	}

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		pojo, err := s.materialize(table, id)
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

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, tracked := s.ids.Entry(pojo)
	switch {
	case tracked && entry.State == spec.Destroyed:
		return persistence.ErrDestroyed
	case tracked:
		id, _, err := table.KeyOf(pojo)
		if err != nil {
			return err
		}
		if id != entry.ID {
			return fmt.Errorf("%s %q: key cannot change once persisted", sp.LogicalTypeName(), entry.ID)
		}
		if err := s.write(table, id, pojo); err != nil {
			return err
		}
		s.logger.Debug("Updated entity", zap.String("table", table.Name), zap.String("id", id))
		return nil
	}

	persistence.NotifyPersisting(pojo)
	id, err := table.AssignKey(pojo, func() (int64, error) {
		s.sequences[table.Name]++
		return s.sequences[table.Name], nil
	})
	if err != nil {
		return err
	}
	if _, exists := s.rows[table.Name][id]; exists {
		return fmt.Errorf("%s %q: %w", sp.LogicalTypeName(), id, persistence.ErrUniqueViolation)
	}
	if err := s.write(table, id, pojo); err != nil {
		return err
	}
	s.logger.Debug("Inserted entity", zap.String("table", table.Name), zap.String("id", id))
	return nil
}

// write stores the row of pojo and attaches it. Callers hold mu.
func (s *Store) write(table *mapping.Table, id string, pojo any) error {
	row, err := table.Row(pojo)
	if err != nil {
		return err
	}
	for _, c := range table.Columns {
		if c.NotNull && row[slices.Index(table.Columns, c)] == nil {
			return fmt.Errorf("%w: column %s", persistence.ErrNotNullViolation, c.Name)
		}
	}
	if s.rows[table.Name] == nil {
		s.rows[table.Name] = make(map[string][]any)
	}
	s.rows[table.Name][id] = row
	s.ids.Attach(pojo, id, table.Snapshot(pojo))
	return nil
}

func (s *Store) Delete(ctx context.Context, sp *spec.Specification, pojo any) error {
	table, err := mapping.Of(sp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.attached(pojo)
	if err != nil {
		return err
	}
	persistence.NotifyRemoving(pojo)
	delete(s.rows[table.Name], entry.ID)
	s.ids.Destroy(pojo)
	s.logger.Debug("Deleted entity", zap.String("table", table.Name), zap.String("id", entry.ID))
	return nil
}

func (s *Store) Refresh(ctx context.Context, sp *spec.Specification, pojo any) ([]string, error) {
	table, err := mapping.Of(sp)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.attached(pojo)
	if err != nil {
		return nil, err
	}
	row, ok := s.rows[table.Name][entry.ID]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", sp.LogicalTypeName(), entry.ID, spec.ErrObjectNotFound)
	}

	current := table.Snapshot(pojo)
	if err := table.Assign(pojo, nullStrings(row)); err != nil {
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

func nullStrings(row []any) []sql.NullString {
	out := make([]sql.NullString, len(row))
	for i, v := range row {
		if s, ok := v.(string); ok {
			out[i] = sql.NullString{String: s, Valid: true}
		}
	}
	return out
}
