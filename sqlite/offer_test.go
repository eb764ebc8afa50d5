package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferService_AppendOffers(t *testing.T) {
	t.Parallel()

	t.Run("stores offers as active with generated IDs", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewOfferService(db)
		ctx := context.Background()

		offer := &estate.Offer{
			Site:       "otodom",
			URL:        "/offer/1",
			Title:      "Two rooms in Mokotow",
			Price:      850000,
			Currency:   "PLN",
			Area:       48.5,
			Rooms:      2,
			City:       "Warszawa",
			Latitude:   52.2297,
			Longitude:  21.0122,
			Attributes: map[string]string{"heating": "district"},
			ScrapeDate: "2024-05-01",
		}
		offer.Finalize()

		require.NoError(t, svc.AppendOffers(ctx, "otodom", []*estate.Offer{offer}))
		assert.NotEmpty(t, offer.ID)

		found, err := svc.FindOffers(ctx, estate.OfferFilter{})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, offer, found[0])
		assert.True(t, found[0].Active)
	})

	t.Run("appends a new row for a rescraped link", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewOfferService(db)
		ctx := context.Background()

		require.NoError(t, svc.AppendOffers(ctx, "otodom", []*estate.Offer{{Site: "otodom", URL: "/a", ScrapeDate: "2024-05-01"}}))
		require.NoError(t, svc.AppendOffers(ctx, "otodom", []*estate.Offer{{Site: "otodom", URL: "/a", ScrapeDate: "2024-05-02"}}))

		url := "/a"
		found, err := svc.FindOffers(ctx, estate.OfferFilter{URL: &url})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "2024-05-02", found[0].ScrapeDate)
		assert.NotEqual(t, found[0].ID, found[1].ID)
	})

	t.Run("dequeues stored links", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		gw := sqlite.NewGateway(db)
		ctx := context.Background()

		require.NoError(t, gw.EnqueueLinks(ctx, "otodom", links("otodom", "/a", "/b")))
		require.NoError(t, gw.AppendOffers(ctx, "otodom", []*estate.Offer{{Site: "otodom", URL: "/a", ScrapeDate: "2024-05-01"}}))

		queued, err := gw.QueuedLinks(ctx, "otodom")
		require.NoError(t, err)
		assert.Equal(t, links("otodom", "/b"), queued)
	})

	t.Run("stores nothing when one offer is invalid", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewOfferService(db)
		ctx := context.Background()

		err := svc.AppendOffers(ctx, "otodom", []*estate.Offer{
			{Site: "otodom", URL: "/a", ScrapeDate: "2024-05-01"},
			{Site: "otodom", ScrapeDate: "2024-05-01"},
		})
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))

		found, err := svc.FindOffers(ctx, estate.OfferFilter{})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("rejects offers of another site", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewOfferService(db)

		err := svc.AppendOffers(context.Background(), "otodom", []*estate.Offer{{Site: "gratka", URL: "/a", ScrapeDate: "2024-05-01"}})
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
	})
}

func TestOfferService_FindOffers(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	gw := sqlite.NewGateway(db)
	ctx := context.Background()

	require.NoError(t, gw.AppendOffers(ctx, "otodom", []*estate.Offer{
		{Site: "otodom", URL: "/a", ScrapeDate: "2024-05-01"},
		{Site: "otodom", URL: "/b", ScrapeDate: "2024-05-01"},
		{Site: "otodom", URL: "/c", ScrapeDate: "2024-05-01"},
	}))
	require.NoError(t, gw.AppendOffers(ctx, "gratka", []*estate.Offer{
		{Site: "gratka", URL: "/a", ScrapeDate: "2024-05-01"},
	}))
	require.NoError(t, gw.ApplyLinkDiff(ctx, "otodom", estate.LinkDiff{ToRemove: links("otodom", "/b")}, "2024-05-02"))

	t.Run("filters by site", func(t *testing.T) {
		t.Parallel()

		site := estate.Site("gratka")
		found, err := gw.FindOffers(ctx, estate.OfferFilter{Site: &site})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, estate.Site("gratka"), found[0].Site)
	})

	t.Run("filters by active flag", func(t *testing.T) {
		t.Parallel()

		site := estate.Site("otodom")
		inactive := false
		found, err := gw.FindOffers(ctx, estate.OfferFilter{Site: &site, Active: &inactive})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "/b", found[0].URL)
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		site := estate.Site("otodom")
		found, err := gw.FindOffers(ctx, estate.OfferFilter{Site: &site, Offset: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "/b", found[0].URL)

		found, err = gw.FindOffers(ctx, estate.OfferFilter{Site: &site, Offset: 2})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "/c", found[0].URL)
	})
}
