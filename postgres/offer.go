package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fwojciec/estate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var _ estate.OfferService = (*OfferService)(nil)

// OfferService implements estate.OfferService using PostgreSQL.
type OfferService struct {
	db *DB
}

// NewOfferService creates a new OfferService.
func NewOfferService(db *DB) *OfferService {
	return &OfferService{db: db}
}

var offerColumns = []string{
	"id", "site", "url", "title", "price", "currency", "area", "rooms", "floor",
	"city", "district", "voivodeship", "address", "latitude", "longitude", "geohash",
	"description", "attributes", "content_hash", "active", "scrape_date", "inactive_date",
}

// AppendOffers copies offers with generated IDs as active rows and removes
// their links from the detail queue, in one transaction.
func (s *OfferService) AppendOffers(ctx context.Context, site estate.Site, offers []*estate.Offer) error {
	links := make([]estate.Link, 0, len(offers))
	for _, o := range offers {
		if err := o.Validate(); err != nil {
			return err
		}
		if o.ScrapeDate == "" {
			return estate.Errorf(estate.EINVALID, "offer %s missing scrape date", o.URL)
		}
		links = append(links, o.Link())
	}
	if err := checkSite(site, links); err != nil {
		return err
	}
	if len(offers) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(offers))
	for _, o := range offers {
		attrs := o.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		encoded, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("failed to encode attributes: %w", err)
		}
		o.ID = uuid.New().String()
		o.Active = true
		o.InactiveDate = ""
		rows = append(rows, []any{
			o.ID, string(o.Site), o.URL, o.Title, o.Price, o.Currency, o.Area, int32(o.Rooms), o.Floor,
			o.City, o.District, o.Voivodeship, o.Address, o.Latitude, o.Longitude, o.Geohash,
			o.Description, string(encoded), o.ContentHash, yesNo(o.Active), o.ScrapeDate, o.InactiveDate,
		})
	}

	return s.db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"offers"}, offerColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to insert offers: %w", err)
		}
		return dequeue(ctx, tx, site, links)
	})
}

// FindOffers retrieves offers matching the filter, newest scrape first.
func (s *OfferService) FindOffers(ctx context.Context, filter estate.OfferFilter) ([]*estate.Offer, error) {
	var query strings.Builder
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	query.WriteString("SELECT " + strings.Join(offerColumns, ", ") + " FROM offers WHERE true")
	if filter.Site != nil {
		query.WriteString(" AND site = " + arg(string(*filter.Site)))
	}
	if filter.URL != nil {
		query.WriteString(" AND url = " + arg(*filter.URL))
	}
	if filter.Active != nil {
		query.WriteString(" AND active = " + arg(yesNo(*filter.Active)))
	}
	query.WriteString(" ORDER BY scrape_date DESC, url ASC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET " + arg(filter.Offset))
	}

	rows, err := s.db.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanOffer)
}

func scanOffer(row pgx.CollectableRow) (*estate.Offer, error) {
	var o estate.Offer
	var site, active string
	var rooms int32
	var attrs []byte
	if err := row.Scan(&o.ID, &site, &o.URL, &o.Title, &o.Price, &o.Currency, &o.Area, &rooms, &o.Floor,
		&o.City, &o.District, &o.Voivodeship, &o.Address, &o.Latitude, &o.Longitude, &o.Geohash,
		&o.Description, &attrs, &o.ContentHash, &active, &o.ScrapeDate, &o.InactiveDate); err != nil {
		return nil, err
	}
	o.Site = estate.Site(site)
	o.Rooms = int(rooms)
	o.Active = active == "Yes"
	if err := json.Unmarshal(attrs, &o.Attributes); err != nil {
		return nil, fmt.Errorf("failed to decode attributes: %w", err)
	}
	return &o, nil
}
