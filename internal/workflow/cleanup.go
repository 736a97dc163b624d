package workflow

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/model"
)

// Cleanup deletes applied audits older than the retention window. Pending
// and errored audits are kept for manual review.
func (w *Workflow) Cleanup(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.cfg.Retention)
	n, err := w.store.DeleteAuditsBefore(ctx, model.AuditApplied, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cleanup: delete applied audits")
	}
	zap.L().Info("audit cleanup complete", zap.Int("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}
