package httpapi

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
)

type widgetBootstrapRequest struct {
	CaseID string `json:"case_id"`
}

// widgetBootstrapHandler returns the same case data the Room-2 chat widget
// message carries, for a web-based doctor decision form.
func (s *Server) widgetBootstrapHandler(c *echo.Context) error {
	var req widgetBootstrapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}

	caseRecord, err := s.client.TriageCase.Get(c.Request().Context(), req.CaseID)
	if err != nil {
		if ent.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "case not found")
		}
		return mapInternalError(err)
	}

	agencyRecordNumber := ""
	if caseRecord.AgencyRecordNumber != nil {
		agencyRecordNumber = *caseRecord.AgencyRecordNumber
	}

	priorCtx, err := messaging.ResolvePriorCaseContext(c.Request().Context(), s.client, agencyRecordNumber, caseRecord.ID)
	if err != nil {
		return mapInternalError(err)
	}

	payload := messaging.Room2WidgetPayload{
		CaseID:             caseRecord.ID,
		AgencyRecordNumber: agencyRecordNumber,
		StructuredData:     caseRecord.StructuredData,
		SuggestedAction:    caseRecord.SuggestedAction,
		DenialCount7d:      priorCtx.DenialCount7d,
	}
	if priorCtx.MostRecentPriorCase != nil {
		payload.PriorCaseID = priorCtx.MostRecentPriorCase.ID
		if priorCtx.MostRecentPriorCase.DoctorDecision != nil {
			payload.PriorCaseDecision = string(*priorCtx.MostRecentPriorCase.DoctorDecision)
		}
	}

	return c.JSON(http.StatusOK, payload)
}
