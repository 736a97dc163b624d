package workflow

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/patterns"
)

// EnrichOptions controls one enrichment run.
type EnrichOptions struct {
	// Limit caps how many leads are pulled. Zero uses the configured batch size.
	Limit int
	// ManualApprove creates every audit as approved regardless of confidence.
	ManualApprove bool
}

// EnrichResult aggregates one enrichment run.
type EnrichResult struct {
	Leads         int                     `json:"leads"`
	Approved      int                     `json:"approved"`
	PendingReview int                     `json:"pending_review"`
	Unresolved    map[patterns.Source]int `json:"unresolved"`
	Errors        int                     `json:"errors"`
}

type enrichOutcome struct {
	status model.AuditStatus
	source patterns.Source
	err    error
}

// Enrich generates a candidate for every lead still holding the sentinel
// email and records each candidate as an audit. Per-lead failures
// are counted and logged; only failing to load the batch is an error.
func (w *Workflow) Enrich(ctx context.Context, opts EnrichOptions) (*EnrichResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}
	leads, err := w.store.ListLeadsNeedingEmail(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: list leads")
	}

	log := zap.L().With(zap.String("phase", "enrich"))
	log.Info("enriching leads", zap.Int("count", len(leads)))

	outcomes := make([]enrichOutcome, len(leads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)
	for i := range leads {
		if gctx.Err() != nil {
			break
		}
		lead := leads[i]
		g.Go(func() error {
			outcomes[i] = w.enrichOne(gctx, &lead, opts.ManualApprove)
			if outcomes[i].err != nil {
				log.Warn("enrich lead failed", zap.String("lead_id", lead.ID), zap.Error(outcomes[i].err))
			}
			return nil
		})
	}
	_ = g.Wait()

	res := &EnrichResult{Leads: len(leads), Unresolved: make(map[patterns.Source]int)}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			res.Errors++
		case o.status == model.AuditApproved:
			res.Approved++
		case o.status == model.AuditPendingReview:
			res.PendingReview++
		case o.source != "":
			res.Unresolved[o.source]++
		}
	}

	log.Info("enrichment complete",
		zap.Int("approved", res.Approved),
		zap.Int("pending_review", res.PendingReview),
		zap.Int("errors", res.Errors),
	)
	return res, ctx.Err()
}

func (w *Workflow) enrichOne(ctx context.Context, lead *model.Lead, manual bool) enrichOutcome {
	gen, err := w.gen.Generate(ctx, lead.Name, lead.Company)
	if err != nil {
		return enrichOutcome{err: err}
	}
	if !gen.Success {
		return enrichOutcome{source: gen.Source}
	}

	audit := &model.Audit{
		LeadID:         lead.ID,
		Company:        lead.Company,
		TargetName:     lead.Name,
		CandidateEmail: gen.Email,
		TemplateID:     string(gen.TemplateID),
		Domain:         gen.Domain,
		Confidence:     model.ClampConfidence(gen.Confidence),
		Source:         string(gen.Source),
		PeerEvidence:   gen.Evidence,
		Status:         model.InitialAuditStatus(gen.Confidence, w.cfg.ApproveThreshold, manual),
	}
	if err := w.store.CreateAudit(ctx, audit); err != nil {
		return enrichOutcome{err: eris.Wrapf(err, "enrich: create audit for lead %s", lead.ID)}
	}
	w.metrics.IncAuditCreated(string(audit.Status))
	return enrichOutcome{status: audit.Status, source: gen.Source}
}
