package handlers

import (
	"context"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/worker"
)

// ExecuteCleanup runs the redaction pass for a case whose cleanup has been
// triggered (§4.9), delegating entirely to cleanup.Service since it already
// owns the per-message retry loop and the CLEANED transition.
func (h *Handlers) ExecuteCleanup(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if c.Status != triagecase.Status("CLEANUP_RUNNING") {
		return nil
	}

	_, err = h.cleanup.Execute(ctx, caseID)
	return err
}
