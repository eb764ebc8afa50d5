package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingService(t *testing.T) {
	t.Parallel()

	t.Run("records links per kind and date", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewMissingService(db)
		ctx := context.Background()

		require.NoError(t, svc.RecordMissing(ctx, "gratka", estate.MissingPage, links("gratka", "/p/2", "/p/1"), "2024-05-01"))
		require.NoError(t, svc.RecordMissing(ctx, "gratka", estate.MissingDetail, links("gratka", "/o/9"), "2024-05-01"))
		require.NoError(t, svc.RecordMissing(ctx, "gratka", estate.MissingPage, links("gratka", "/p/3"), "2024-05-02"))

		pages, err := svc.MissingLinks(ctx, "gratka", estate.MissingPage, "2024-05-01")
		require.NoError(t, err)
		assert.Equal(t, links("gratka", "/p/2", "/p/1"), pages)

		details, err := svc.MissingLinks(ctx, "gratka", estate.MissingDetail, "2024-05-01")
		require.NoError(t, err)
		assert.Equal(t, links("gratka", "/o/9"), details)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewMissingService(db)

		err := svc.RecordMissing(context.Background(), "gratka", "sitemap", links("gratka", "/a"), "2024-05-01")
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
	})
}
