package mock

import (
	"context"

	"github.com/fwojciec/estate"
)

var _ estate.Gateway = (*Gateway)(nil)

// Gateway is a mock implementation of estate.Gateway.
type Gateway struct {
	ActiveLinksFn   func(ctx context.Context, site estate.Site) ([]estate.Link, error)
	ApplyLinkDiffFn func(ctx context.Context, site estate.Site, diff estate.LinkDiff, date string) error

	AppendOffersFn func(ctx context.Context, site estate.Site, offers []*estate.Offer) error
	FindOffersFn   func(ctx context.Context, filter estate.OfferFilter) ([]*estate.Offer, error)

	EnqueueLinksFn func(ctx context.Context, site estate.Site, links []estate.Link) error
	QueuedLinksFn  func(ctx context.Context, site estate.Site) ([]estate.Link, error)
	DequeueLinksFn func(ctx context.Context, site estate.Site, links []estate.Link) error

	RecordMissingFn func(ctx context.Context, site estate.Site, kind estate.MissingKind, links []estate.Link, date string) error
	MissingLinksFn  func(ctx context.Context, site estate.Site, kind estate.MissingKind, date string) ([]estate.Link, error)

	CreateStageRecordFn func(ctx context.Context, site estate.Site, date string) (*estate.StageRecord, error)
	FindStageRecordsFn  func(ctx context.Context, filter estate.StageRecordFilter) ([]*estate.StageRecord, error)
	MarkStageFn         func(ctx context.Context, site estate.Site, date string, sequence int, stage estate.Stage) error
}

func (g *Gateway) ActiveLinks(ctx context.Context, site estate.Site) ([]estate.Link, error) {
	return g.ActiveLinksFn(ctx, site)
}

func (g *Gateway) ApplyLinkDiff(ctx context.Context, site estate.Site, diff estate.LinkDiff, date string) error {
	return g.ApplyLinkDiffFn(ctx, site, diff, date)
}

func (g *Gateway) AppendOffers(ctx context.Context, site estate.Site, offers []*estate.Offer) error {
	return g.AppendOffersFn(ctx, site, offers)
}

func (g *Gateway) FindOffers(ctx context.Context, filter estate.OfferFilter) ([]*estate.Offer, error) {
	return g.FindOffersFn(ctx, filter)
}

func (g *Gateway) EnqueueLinks(ctx context.Context, site estate.Site, links []estate.Link) error {
	return g.EnqueueLinksFn(ctx, site, links)
}

func (g *Gateway) QueuedLinks(ctx context.Context, site estate.Site) ([]estate.Link, error) {
	return g.QueuedLinksFn(ctx, site)
}

func (g *Gateway) DequeueLinks(ctx context.Context, site estate.Site, links []estate.Link) error {
	return g.DequeueLinksFn(ctx, site, links)
}

func (g *Gateway) RecordMissing(ctx context.Context, site estate.Site, kind estate.MissingKind, links []estate.Link, date string) error {
	return g.RecordMissingFn(ctx, site, kind, links, date)
}

func (g *Gateway) MissingLinks(ctx context.Context, site estate.Site, kind estate.MissingKind, date string) ([]estate.Link, error) {
	return g.MissingLinksFn(ctx, site, kind, date)
}

func (g *Gateway) CreateStageRecord(ctx context.Context, site estate.Site, date string) (*estate.StageRecord, error) {
	return g.CreateStageRecordFn(ctx, site, date)
}

func (g *Gateway) FindStageRecords(ctx context.Context, filter estate.StageRecordFilter) ([]*estate.StageRecord, error) {
	return g.FindStageRecordsFn(ctx, filter)
}

func (g *Gateway) MarkStage(ctx context.Context, site estate.Site, date string, sequence int, stage estate.Stage) error {
	return g.MarkStageFn(ctx, site, date, sequence, stage)
}
