//go:build integration

package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens the database named by ESTATE_TEST_POSTGRES_URL. Tests
// share it, so each one works on its own site from testSite.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	dsn := os.Getenv("ESTATE_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("ESTATE_TEST_POSTGRES_URL not set")
	}
	db := postgres.NewDB(dsn)
	require.NoError(t, db.Open(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func testSite() estate.Site {
	return estate.Site("test-" + uuid.NewString())
}

func links(site estate.Site, urls ...string) []estate.Link {
	out := make([]estate.Link, len(urls))
	for i, u := range urls {
		out[i] = estate.Link{Site: site, URL: u}
	}
	return out
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("reopens existing schema", func(t *testing.T) {
		t.Parallel()

		setupTestDB(t)
		setupTestDB(t)
	})

	t.Run("rejects malformed URL", func(t *testing.T) {
		t.Parallel()

		err := postgres.NewDB("postgres://%zz").Open(context.Background())
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
	})
}

func TestGateway(t *testing.T) {
	t.Parallel()

	t.Run("removed links deactivate offers and leave the queue", func(t *testing.T) {
		t.Parallel()

		g := postgres.NewGateway(setupTestDB(t))
		ctx := context.Background()
		site := testSite()

		require.NoError(t, g.ApplyLinkDiff(ctx, site, estate.LinkDiff{ToAdd: links(site, "/b", "/a")}, "2024-05-01"))
		require.NoError(t, g.AppendOffers(ctx, site, []*estate.Offer{
			{Site: site, URL: "/a", Title: "Flat A", Rooms: 2, Attributes: map[string]string{"rent": "500"}, ScrapeDate: "2024-05-01"},
		}))
		require.NoError(t, g.EnqueueLinks(ctx, site, links(site, "/b")))

		inventory, err := g.ActiveLinks(ctx, site)
		require.NoError(t, err)
		assert.Equal(t, links(site, "/a", "/b"), inventory)

		diff := estate.Reconcile(links(site, "/c"), inventory)
		require.NoError(t, g.ApplyLinkDiff(ctx, site, diff, "2024-05-02"))

		inventory, err = g.ActiveLinks(ctx, site)
		require.NoError(t, err)
		assert.Equal(t, links(site, "/c"), inventory)

		queued, err := g.QueuedLinks(ctx, site)
		require.NoError(t, err)
		assert.Empty(t, queued)

		offers, err := g.FindOffers(ctx, estate.OfferFilter{Site: &site})
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.False(t, offers[0].Active)
		assert.Equal(t, "2024-05-02", offers[0].InactiveDate)
		assert.Equal(t, 2, offers[0].Rooms)
		assert.Equal(t, map[string]string{"rent": "500"}, offers[0].Attributes)
	})

	t.Run("queue keeps insertion order and dequeues appended offers", func(t *testing.T) {
		t.Parallel()

		g := postgres.NewGateway(setupTestDB(t))
		ctx := context.Background()
		site := testSite()

		require.NoError(t, g.EnqueueLinks(ctx, site, links(site, "/z", "/a")))
		require.NoError(t, g.EnqueueLinks(ctx, site, links(site, "/m", "/z")))

		queued, err := g.QueuedLinks(ctx, site)
		require.NoError(t, err)
		assert.Equal(t, links(site, "/z", "/a", "/m"), queued)

		require.NoError(t, g.AppendOffers(ctx, site, []*estate.Offer{{Site: site, URL: "/a", ScrapeDate: "2024-05-01"}}))

		queued, err = g.QueuedLinks(ctx, site)
		require.NoError(t, err)
		assert.Equal(t, links(site, "/z", "/m"), queued)
	})

	t.Run("records missing links by kind", func(t *testing.T) {
		t.Parallel()

		g := postgres.NewGateway(setupTestDB(t))
		ctx := context.Background()
		site := testSite()

		require.NoError(t, g.RecordMissing(ctx, site, estate.MissingPage, links(site, "/p1", "/p2"), "2024-05-01"))
		require.NoError(t, g.RecordMissing(ctx, site, estate.MissingDetail, links(site, "/d"), "2024-05-01"))

		pages, err := g.MissingLinks(ctx, site, estate.MissingPage, "2024-05-01")
		require.NoError(t, err)
		assert.Equal(t, links(site, "/p1", "/p2"), pages)

		err = g.RecordMissing(ctx, site, "bogus", links(site, "/x"), "2024-05-01")
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
	})

	t.Run("stage records advance sequence and guard order", func(t *testing.T) {
		t.Parallel()

		g := postgres.NewGateway(setupTestDB(t))
		ctx := context.Background()
		site := testSite()

		first, err := g.CreateStageRecord(ctx, site, "2024-05-01")
		require.NoError(t, err)
		second, err := g.CreateStageRecord(ctx, site, "2024-05-01")
		require.NoError(t, err)
		assert.Equal(t, 1, first.Sequence)
		assert.Equal(t, 2, second.Sequence)

		err = g.MarkStage(ctx, site, "2024-05-01", 2, estate.StageDetails)
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))

		require.NoError(t, g.MarkStage(ctx, site, "2024-05-01", 2, estate.StageDiscovery))
		require.NoError(t, g.MarkStage(ctx, site, "2024-05-01", 2, estate.StageDetails))
		require.NoError(t, g.MarkStage(ctx, site, "2024-05-01", 2, estate.StageDetails))

		err = g.MarkStage(ctx, site, "2024-05-01", 9, estate.StageDiscovery)
		assert.Equal(t, estate.ENOTFOUND, estate.ErrorCode(err))

		records, err := g.FindStageRecords(ctx, estate.StageRecordFilter{Site: &site})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 2, records[0].Sequence)
		assert.Equal(t, estate.StageDetailsDone, records[0].State())
		assert.Equal(t, estate.StageStart, records[1].State())
	})

	t.Run("rejects links of another site", func(t *testing.T) {
		t.Parallel()

		g := postgres.NewGateway(setupTestDB(t))
		site := testSite()

		err := g.EnqueueLinks(context.Background(), site, links("otodom", "/a"))
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
	})
}
