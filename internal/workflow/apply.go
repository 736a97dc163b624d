package workflow

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/resilience"
	"github.com/sells-group/leadmail/internal/store"
)

// ReasonAutoApproved annotates pending audits promoted by the apply pass.
const ReasonAutoApproved = "auto_approved"

// ApplyResult aggregates one apply pass.
type ApplyResult struct {
	Considered  int            `json:"considered"`
	Applied     int            `json:"applied"`
	Skipped     int            `json:"skipped"`
	Errored     int            `json:"errored"`
	Conflicts   int            `json:"conflicts"`
	SkipReasons map[string]int `json:"skip_reasons"`
}

// Apply writes approved audits, and pending audits at or above the approve
// threshold, onto their leads. Audits are processed highest confidence first
// so that the strongest candidate claims a lead. A lead is only written while
// its email is still unknown.
func (w *Workflow) Apply(ctx context.Context, limit int) (*ApplyResult, error) {
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}
	audits, err := w.store.ListAuditsForApply(ctx, w.cfg.ApproveThreshold, limit)
	if err != nil {
		return nil, eris.Wrap(err, "apply: list audits")
	}

	log := zap.L().With(zap.String("phase", "apply"))
	log.Info("applying audits", zap.Int("count", len(audits)))

	res := &ApplyResult{SkipReasons: make(map[string]int)}
	for i := range audits {
		if ctx.Err() != nil {
			break
		}
		a := &audits[i]
		res.Considered++

		if a.Status == model.AuditPendingReview {
			err := w.store.TransitionAudit(ctx, a.ID, model.AuditTransition{
				From: model.AuditPendingReview, To: model.AuditApproved, Reason: ReasonAutoApproved,
			})
			if err != nil {
				w.countTransitionErr(res, log, a, err)
				continue
			}
			a.Status = model.AuditApproved
		}

		t := w.applyOne(ctx, a)
		if err := w.store.TransitionAudit(ctx, a.ID, t); err != nil {
			w.countTransitionErr(res, log, a, err)
			continue
		}

		switch t.To {
		case model.AuditApplied:
			res.Applied++
		case model.AuditSkipped:
			res.Skipped++
			res.SkipReasons[t.Reason]++
		case model.AuditError:
			res.Errored++
			log.Warn("apply audit failed",
				zap.String("audit_id", a.ID),
				zap.String("error_type", t.ErrorType),
				zap.String("error", t.ErrorMessage),
			)
		}
		w.metrics.IncApplyOutcome(string(t.To), t.Reason)
	}

	log.Info("apply complete",
		zap.Int("applied", res.Applied),
		zap.Int("skipped", res.Skipped),
		zap.Int("errored", res.Errored),
		zap.Int("conflicts", res.Conflicts),
	)
	return res, ctx.Err()
}

func (w *Workflow) countTransitionErr(res *ApplyResult, log *zap.Logger, a *model.Audit, err error) {
	if eris.Is(err, store.ErrAuditConflict) {
		res.Conflicts++
		log.Debug("audit changed concurrently", zap.String("audit_id", a.ID))
		return
	}
	res.Errored++
	log.Error("transition audit", zap.String("audit_id", a.ID), zap.Error(err))
}

// applyOne decides the terminal transition for an approved audit.
func (w *Workflow) applyOne(ctx context.Context, a *model.Audit) model.AuditTransition {
	t := model.AuditTransition{From: model.AuditApproved}

	lead, err := w.resolveLead(ctx, a)
	if err != nil {
		return failed(t, err)
	}
	if lead == nil {
		t.To, t.Reason = model.AuditSkipped, model.SkipReasonNoMatchingFilter
		return t
	}
	if !lead.NeedsEmail() {
		t.To, t.Reason = model.AuditSkipped, model.SkipReasonEmailAlreadyExists
		return t
	}

	written, err := w.store.SetLeadEmail(ctx, lead.ID, store.EmailUpdate{
		Email:      a.CandidateEmail,
		Source:     model.EmailSourcePatternInference,
		Confidence: a.Confidence,
		Pattern:    a.TemplateID,
	})
	if err != nil {
		return failed(t, err)
	}
	if !written {
		t.To, t.Reason = model.AuditSkipped, model.SkipReasonEmailAlreadyExists
		return t
	}
	t.To = model.AuditApplied
	return t
}

func failed(t model.AuditTransition, err error) model.AuditTransition {
	t.To = model.AuditError
	t.ErrorMessage = err.Error()
	t.ErrorType = resilience.ClassifyError(err)
	return t
}

// resolveLead finds the lead an audit targets: by id, then by
// case-insensitive full name and company, narrowed by exact spelling when
// several match, then by a name substring accepted only when it is unique.
// A nil lead means nothing matched.
func (w *Workflow) resolveLead(ctx context.Context, a *model.Audit) (*model.Lead, error) {
	if a.LeadID != "" {
		lead, err := w.store.GetLead(ctx, a.LeadID)
		if err != nil {
			return nil, eris.Wrap(err, "apply: get lead")
		}
		if lead != nil {
			return lead, nil
		}
	}
	if a.TargetName == "" || a.Company == "" {
		return nil, nil
	}

	filter := store.LeadFilter{Name: a.TargetName, Company: a.Company, Match: store.MatchFold}
	folded, err := w.store.FindLeads(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "apply: find leads")
	}
	switch len(folded) {
	case 0:
	case 1:
		return &folded[0], nil
	default:
		filter.Match = store.MatchExact
		exact, err := w.store.FindLeads(ctx, filter)
		if err != nil {
			return nil, eris.Wrap(err, "apply: find leads exact")
		}
		if len(exact) > 0 {
			folded = exact
		}
		return preferUnknownEmail(folded), nil
	}

	filter.Match = store.MatchContains
	filter.Limit = 2
	partial, err := w.store.FindLeads(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "apply: find leads partial")
	}
	if len(partial) == 1 {
		return &partial[0], nil
	}
	return nil, nil
}

func preferUnknownEmail(leads []model.Lead) *model.Lead {
	for i := range leads {
		if leads[i].NeedsEmail() {
			return &leads[i]
		}
	}
	return &leads[0]
}
