package sqlite

import "github.com/fwojciec/estate"

// Compile-time interface verification.
var _ estate.Gateway = (*Gateway)(nil)

// Gateway combines the SQLite services into an estate.Gateway.
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
