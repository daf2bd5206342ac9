package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBErrorNil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBErrorContext(t *testing.T) {
	err := MapDBError(context.DeadlineExceeded)
	assert.True(t, IsTimeout(err))

	err = MapDBError(context.Canceled)
	assert.True(t, IsCanceled(err))
}

func TestMapDBErrorNoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	assert.True(t, IsNotFound(err))
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMapDBErrorUniqueViolation(t *testing.T) {
	t.Run("column name metadata", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "id"}
		err := MapDBError(pgErr)
		assert.True(t, IsConflict(err))
		assert.Equal(t, "id", GetField(err))
	})

	t.Run("detail fallback", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:   pgerrcode.UniqueViolation,
			Detail: "Key (id)=(abc) already exists.",
		}
		err := MapDBError(pgErr)
		assert.True(t, IsConflict(err))
		assert.Equal(t, "id", GetField(err))
	})
}

func TestMapDBErrorForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (session_id)=(abc) is not present in table "validation_sessions".`,
	}
	err := MapDBError(pgErr)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "validation session")
}

func TestMapDBErrorConstraintViolations(t *testing.T) {
	t.Run("check violation", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "progress"}
		err := MapDBError(pgErr)
		assert.True(t, IsValidation(err))
		assert.Equal(t, "progress", GetField(err))
	})

	t.Run("not null violation", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "owner_id"}
		err := MapDBError(pgErr)
		assert.True(t, IsValidation(err))
	})
}

func TestMapDBErrorUnknownPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	err := MapDBError(pgErr)
	assert.True(t, IsInternal(err))
}

func TestMapDBErrorPassthrough(t *testing.T) {
	plain := errors.New("not a database error")
	assert.Equal(t, plain, MapDBError(plain))
}
