package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

func TestConvertDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), spec.ErrObjectNotFound},
		{"pgx unique", &pgconn.PgError{Code: "23505", Detail: "Key (id)=(1) already exists."}, ErrUniqueViolation},
		{"pgx not null", &pgconn.PgError{Code: "23502", ColumnName: "description"}, ErrNotNullViolation},
		{"pq unique", &pq.Error{Code: "23505"}, ErrUniqueViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertDBError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestConvertDBError_PassesThroughUnknown(t *testing.T) {
	other := errors.New("connection reset")
	assert.Same(t, other, ConvertDBError(other))
}
