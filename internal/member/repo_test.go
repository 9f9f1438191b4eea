package member

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/testutil"
)

// exercised against both stores; the Postgres run skips without a server
func testRepository(t *testing.T, repo Repository) {
	ctx := context.Background()

	grace := &Member{FullName: "Grace Hopper", BirthDate: "1906-12-09", Phone: "555-0101", Email: "grace@example.com"}
	require.NoError(t, repo.Insert(ctx, grace))
	require.NoError(t, repo.Insert(ctx, &Member{FullName: "Alan Turing", Email: "alan@example.com"}))

	err := repo.Insert(ctx, &Member{FullName: "Imposter", Email: "grace@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alan Turing", list[0].FullName)
	assert.Empty(t, list[0].BirthDate)

	got, err := repo.GetByID(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, *grace, got)

	_, err = repo.GetByID(ctx, grace.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepo(t *testing.T) {
	testRepository(t, NewSQLiteRepo(testutil.NewSQLiteDB(t), time.Second))
}

func TestPostgresRepo(t *testing.T) {
	testRepository(t, NewPostgresRepo(testutil.NewPostgresPool(t), 2*time.Second))
}
