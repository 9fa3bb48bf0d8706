package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/termdex/internal/catalog"
)

var entityCols = []string{
	"id", "pokemon_id", "name", "large", "small", "base_experience", "height", "weight",
	"hp", "attack", "defense", "special_attack", "special_defense", "speed",
}

func TestLookupByID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM pokemon WHERE pokemon_id = \$1`).WithArgs(25).
		WillReturnRows(mock.NewRows(entityCols).AddRow(
			int32(26), int32(25), "pikachu", "L", "S", int32(112), int32(4), int32(60),
			int32(35), int32(55), int32(40), int32(50), int32(50), int32(90)))
	mock.ExpectQuery("FROM pokemon_type").WithArgs(25).
		WillReturnRows(mock.NewRows([]string{"name"}).AddRow("electric"))

	entry, err := store.Lookup(context.Background(), "25")
	require.NoError(t, err)
	assert.Equal(t, 26, entry.ID)
	assert.Equal(t, "pikachu", entry.Name)
	assert.Equal(t, 35, entry.HP)
	assert.Equal(t, 90, entry.Speed)
	assert.Equal(t, []string{"electric"}, entry.Types)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupByNameFallsBackToSentinel(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(`WHERE lower\(name\) = lower\(\$1\)`).WithArgs("missingno").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM pokemon WHERE pokemon_id = \$1`).WithArgs(0).
		WillReturnRows(mock.NewRows(entityCols).AddRow(
			int32(152), int32(0), "Not Found", "?", "?", int32(-1), int32(-1), int32(-1),
			int32(0), int32(0), int32(0), int32(0), int32(0), int32(0)))
	mock.ExpectQuery("FROM pokemon_type").WithArgs(0).
		WillReturnRows(mock.NewRows([]string{"name"}))

	entry, err := store.Lookup(context.Background(), " missingno ")
	require.NoError(t, err)
	assert.True(t, catalog.IsSentinel(entry.EntityRow))
	assert.Equal(t, catalog.SentinelName, entry.Name)
	assert.Equal(t, -1, entry.Height)
	assert.Empty(t, entry.Types)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupWithoutSentinelIsNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM pokemon WHERE").WithArgs(999).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM pokemon WHERE").WithArgs(0).WillReturnError(pgx.ErrNoRows)

	_, err := store.Lookup(context.Background(), "999")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupQueryError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM pokemon WHERE").WithArgs(1).WillReturnError(errors.New("boom"))

	_, err := store.Lookup(context.Background(), "1")
	require.ErrorContains(t, err, "lookup entity")
	require.NotErrorIs(t, err, catalog.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEntities(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM pokemon`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(152)))

	n, err := store.CountEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 152, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewStoreWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectPing()
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
