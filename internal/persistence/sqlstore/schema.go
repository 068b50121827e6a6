package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
	"github.com/conduit-lang/metamodel/internal/persistence/mapping"
)

// CreateTableSQL returns the DDL of the table of an entity specification.
func (d Dialect) CreateTableSQL(table *mapping.Table) string {
	defs := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		def := d.Quote(c.Name) + " TEXT"
		switch {
		case c.Key:
			def += " PRIMARY KEY"
		case c.NotNull:
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.Quote(table.Name), strings.Join(defs, ", "))
}

// Migrate creates the missing tables of the entity specifications among
// specs. Other specifications are skipped.
func (s *Store) Migrate(ctx context.Context, specs []*spec.Specification) error {
	for _, sp := range specs {
		if !sp.IsEntity() {
			continue
		}
		table, err := mapping.Of(sp)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, s.dialect.CreateTableSQL(table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, persistence.ConvertDBError(err))
		}
		s.logger.Info("Created table", zap.String("table", table.Name), zap.String("entity", sp.LogicalTypeName()))
	}
	return nil
}
