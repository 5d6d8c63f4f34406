package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
)

// PriorCaseContext is the 7-day history resolved for a case's
// agency_record_number before posting the Room-2 widget.
type PriorCaseContext struct {
	MostRecentPriorCase *ent.TriageCase
	DenialCount7d       int
}

// ResolvePriorCaseContext finds the most recent prior case sharing
// agencyRecordNumber within the last 7 days (excluding excludeCaseID) and
// counts how many of those were denied by the doctor in the same window.
func ResolvePriorCaseContext(ctx context.Context, client *ent.Client, agencyRecordNumber, excludeCaseID string) (*PriorCaseContext, error) {
	if agencyRecordNumber == "" {
		return &PriorCaseContext{}, nil
	}

	since := time.Now().Add(-7 * 24 * time.Hour)

	cases, err := client.TriageCase.Query().
		Where(
			triagecase.AgencyRecordNumber(agencyRecordNumber),
			triagecase.IDNEQ(excludeCaseID),
			triagecase.CreatedAtGTE(since),
		).
		Order(ent.Desc(triagecase.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query prior cases: %w", err)
	}

	result := &PriorCaseContext{}
	if len(cases) > 0 {
		result.MostRecentPriorCase = cases[0]
	}
	for _, c := range cases {
		if c.DoctorDecision != nil && *c.DoctorDecision == "deny" {
			result.DenialCount7d++
		}
	}
	return result, nil
}
