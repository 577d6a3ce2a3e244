package purge

import (
	"context"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/tenant"
)

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	// TenantsPurged counts tenants driven to the purged state.
	TenantsPurged int
	// DocumentsPurged counts documents driven to the purged state.
	DocumentsPurged int
	// Failures counts items whose purge still did not complete. They
	// stay marked and the next sweep retries them.
	Failures int
}

// Sweep reconciles lifecycle state with storage. It scans every tenant,
// re-drives any purge that was interrupted mid-flight, and verifies zero
// derived entries remain before asserting purged states. Running the
// sweep repeatedly is safe; a clean system yields an empty report.
func (p *Purger) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	tenants, err := p.tenants.ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range tenants {
		scope := tenant.ScopeFor(t)

		switch t.State {
		case core.TenantMarkedDeleted, core.TenantPurging:
			if err := p.purgeTenant(ctx, scope, t.Id); err != nil {
				report.Failures++
				p.logger.Error("sweep: tenant purge failed", "tenant", t.Id, "err", err)
				continue
			}
			report.TenantsPurged++

		case core.TenantActive:
			docs, err := p.docs.ListDocuments(ctx, t.Id)
			if err != nil {
				report.Failures++
				p.logger.Error("sweep: listing documents failed", "tenant", t.Id, "err", err)
				continue
			}
			for _, doc := range docs {
				if doc.State != core.DocumentMarkedDeleted {
					continue
				}
				if err := p.purgeDocument(ctx, scope, t.Id, doc.Id); err != nil {
					report.Failures++
					p.logger.Error("sweep: document purge failed",
						"tenant", t.Id, "document", doc.Id, "err", err)
					continue
				}
				report.DocumentsPurged++
			}
		}
	}

	p.logger.Info("sweep complete",
		"tenants_purged", report.TenantsPurged,
		"documents_purged", report.DocumentsPurged,
		"failures", report.Failures)
	return report, nil
}
