package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/estate"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ estate.OfferService = (*OfferService)(nil)

// OfferService implements estate.OfferService using SQLite.
type OfferService struct {
	db *DB
}

// NewOfferService creates a new OfferService.
func NewOfferService(db *DB) *OfferService {
	return &OfferService{db: db}
}

const offerColumns = `id, site, url, title, price, currency, area, rooms, floor,
	city, district, voivodeship, address, latitude, longitude, geohash,
	description, attributes, content_hash, active, scrape_date, inactive_date`

// AppendOffers inserts offers with generated IDs as active rows and removes
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

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, o := range offers {
			attrs, err := json.Marshal(attributesOrEmpty(o.Attributes))
			if err != nil {
				return fmt.Errorf("failed to encode attributes: %w", err)
			}
			o.ID = uuid.New().String()
			o.Active = true
			o.InactiveDate = ""

			if _, err := tx.ExecContext(ctx, `INSERT INTO offers (`+offerColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				o.ID, string(o.Site), o.URL, o.Title, o.Price, o.Currency, o.Area, o.Rooms, o.Floor,
				o.City, o.District, o.Voivodeship, o.Address, o.Latitude, o.Longitude, o.Geohash,
				o.Description, string(attrs), o.ContentHash, yesNo(o.Active), o.ScrapeDate, o.InactiveDate,
			); err != nil {
				return fmt.Errorf("failed to insert offer: %w", err)
			}
		}
		return dequeue(ctx, tx, site, links)
	})
}

// FindOffers retrieves offers matching the filter, newest scrape first.
func (s *OfferService) FindOffers(ctx context.Context, filter estate.OfferFilter) ([]*estate.Offer, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + offerColumns + " FROM offers WHERE 1=1")

	if filter.Site != nil {
		query.WriteString(" AND site = ?")
		args = append(args, string(*filter.Site))
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}
	if filter.Active != nil {
		query.WriteString(" AND active = ?")
		args = append(args, yesNo(*filter.Active))
	}

	query.WriteString(" ORDER BY scrape_date DESC, url ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := []*estate.Offer{}
	for rows.Next() {
		var o estate.Offer
		var site, attrs, active string
		if err := rows.Scan(&o.ID, &site, &o.URL, &o.Title, &o.Price, &o.Currency, &o.Area, &o.Rooms, &o.Floor,
			&o.City, &o.District, &o.Voivodeship, &o.Address, &o.Latitude, &o.Longitude, &o.Geohash,
			&o.Description, &attrs, &o.ContentHash, &active, &o.ScrapeDate, &o.InactiveDate); err != nil {
			return nil, err
		}
		o.Site = estate.Site(site)
		o.Active = active == "Yes"
		if err := json.Unmarshal([]byte(attrs), &o.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode attributes: %w", err)
		}
		offers = append(offers, &o)
	}
	return offers, rows.Err()
}

func attributesOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
