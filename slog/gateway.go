package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/estate"
)

var _ estate.Gateway = (*LoggingGateway)(nil)

// LoggingGateway wraps a Gateway with logging. Writes are logged at info
// level and reads at debug level.
type LoggingGateway struct {
	next   estate.Gateway
	logger *slog.Logger
}

// NewLoggingGateway creates a new LoggingGateway.
func NewLoggingGateway(next estate.Gateway, logger *slog.Logger) *LoggingGateway {
	return &LoggingGateway{next: next, logger: logger}
}

func (g *LoggingGateway) ActiveLinks(ctx context.Context, site estate.Site) (links []estate.Link, err error) {
	defer func(begin time.Time) {
		g.logger.Debug("active links",
			"site", site,
			"count", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.ActiveLinks(ctx, site)
}

func (g *LoggingGateway) ApplyLinkDiff(ctx context.Context, site estate.Site, diff estate.LinkDiff, date string) (err error) {
	defer func(begin time.Time) {
		g.logger.Info("apply link diff",
			"site", site,
			"date", date,
			"added", len(diff.ToAdd),
			"removed", len(diff.ToRemove),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.ApplyLinkDiff(ctx, site, diff, date)
}

func (g *LoggingGateway) AppendOffers(ctx context.Context, site estate.Site, offers []*estate.Offer) (err error) {
	defer func(begin time.Time) {
		g.logger.Info("append offers",
			"site", site,
			"count", len(offers),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.AppendOffers(ctx, site, offers)
}

func (g *LoggingGateway) FindOffers(ctx context.Context, filter estate.OfferFilter) (offers []*estate.Offer, err error) {
	defer func(begin time.Time) {
		g.logger.Debug("find offers",
			"count", len(offers),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.FindOffers(ctx, filter)
}

func (g *LoggingGateway) EnqueueLinks(ctx context.Context, site estate.Site, links []estate.Link) (err error) {
	defer func(begin time.Time) {
		g.logger.Info("enqueue links",
			"site", site,
			"count", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.EnqueueLinks(ctx, site, links)
}

func (g *LoggingGateway) QueuedLinks(ctx context.Context, site estate.Site) (links []estate.Link, err error) {
	defer func(begin time.Time) {
		g.logger.Debug("queued links",
			"site", site,
			"count", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.QueuedLinks(ctx, site)
}

func (g *LoggingGateway) DequeueLinks(ctx context.Context, site estate.Site, links []estate.Link) (err error) {
	defer func(begin time.Time) {
		g.logger.Info("dequeue links",
			"site", site,
			"count", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.DequeueLinks(ctx, site, links)
}

func (g *LoggingGateway) RecordMissing(ctx context.Context, site estate.Site, kind estate.MissingKind, links []estate.Link, date string) (err error) {
	defer func(begin time.Time) {
		g.logger.Info("record missing",
			"site", site,
			"kind", kind,
			"date", date,
			"count", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.RecordMissing(ctx, site, kind, links, date)
}

func (g *LoggingGateway) MissingLinks(ctx context.Context, site estate.Site, kind estate.MissingKind, date string) (links []estate.Link, err error) {
	defer func(begin time.Time) {
		g.logger.Debug("missing links",
			"site", site,
			"kind", kind,
			"date", date,
			"count", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.MissingLinks(ctx, site, kind, date)
}

func (g *LoggingGateway) CreateStageRecord(ctx context.Context, site estate.Site, date string) (rec *estate.StageRecord, err error) {
	defer func(begin time.Time) {
		seq := 0
		if rec != nil {
			seq = rec.Sequence
		}
		g.logger.Info("create stage record",
			"site", site,
			"date", date,
			"sequence", seq,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.CreateStageRecord(ctx, site, date)
}

func (g *LoggingGateway) FindStageRecords(ctx context.Context, filter estate.StageRecordFilter) (recs []*estate.StageRecord, err error) {
	defer func(begin time.Time) {
		g.logger.Debug("find stage records",
			"count", len(recs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.FindStageRecords(ctx, filter)
}

func (g *LoggingGateway) MarkStage(ctx context.Context, site estate.Site, date string, sequence int, stage estate.Stage) (err error) {
	defer func(begin time.Time) {
		g.logger.Info("mark stage",
			"site", site,
			"date", date,
			"sequence", sequence,
			"stage", stage,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.MarkStage(ctx, site, date, sequence, stage)
}
