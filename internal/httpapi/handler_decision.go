package httpapi

import (
	"errors"
	"io"
	"net/http"

	echo "github.com/labstack/echo/v5"
)

type decisionRequest struct {
	CaseID        string `json:"case_id"`
	DoctorUserID  string `json:"doctor_user_id"`
	Decision      string `json:"decision"`
	SupportFlag   string `json:"support_flag"`
	Reason        string `json:"reason,omitempty"`
	SubmittedAt   string `json:"submitted_at,omitempty"`
	WidgetEventID string `json:"widget_event_id,omitempty"`
}

// webhookDecisionHandler handles POST /callbacks/triage-decision: an
// HMAC-signed webhook carrying the same decision payload widgetSubmitHandler
// accepts.
func (s *Server) webhookDecisionHandler(c *echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	signature := c.Request().Header.Get("x-signature")
	if err := verifySignature(s.webhookSecret, body, signature); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	var req decisionRequest
	if err := bindJSONBytes(body, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}

	return s.applyDecision(c, req)
}

// widgetSubmitHandler handles POST /widget/room2/submit: the bearer-token
// widget entry point for the same decision use case.
func (s *Server) widgetSubmitHandler(c *echo.Context) error {
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
	}
	return s.applyDecision(c, req)
}

func (s *Server) applyDecision(c *echo.Context, req decisionRequest) error {
	in := DecisionInput{
		CaseID:        req.CaseID,
		DoctorUserID:  req.DoctorUserID,
		Decision:      req.Decision,
		SupportFlag:   req.SupportFlag,
		Reason:        req.Reason,
		WidgetEventID: req.WidgetEventID,
	}
	if req.SubmittedAt != "" {
		if parsed, err := parseRFC3339(req.SubmittedAt); err == nil {
			in.SubmittedAt = &parsed
		}
	}

	outcome, err := s.decisions.Apply(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidSupportFlag) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return mapInternalError(err)
	}

	switch outcome {
	case OutcomeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	case OutcomeWrongState:
		return echo.NewHTTPError(http.StatusConflict, "case is not awaiting a doctor decision")
	default:
		return c.JSON(http.StatusOK, map[string]any{"ok": true})
	}
}
