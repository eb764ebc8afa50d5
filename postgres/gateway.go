package postgres

import "github.com/fwojciec/estate"

var _ estate.Gateway = (*Gateway)(nil)

// Gateway combines the PostgreSQL services into an estate.Gateway.
type Gateway struct {
	*LinkService
	*OfferService
	*QueueService
	*MissingService
	*StageService
}

// NewGateway creates a Gateway backed by db.
func NewGateway(db *DB) *Gateway {
	return &Gateway{
		LinkService:    NewLinkService(db),
		OfferService:   NewOfferService(db),
		QueueService:   NewQueueService(db),
		MissingService: NewMissingService(db),
		StageService:   NewStageService(db),
	}
}
