package messaging

import (
	"encoding/json"
	"fmt"
)

// Room2WidgetPayload is the JSON embedded in the Room-2 widget message: the
// extracted/reconciled case data a doctor reviews before replying with a
// decision.
type Room2WidgetPayload struct {
	CaseID               string         `json:"case_id"`
	AgencyRecordNumber   string         `json:"agency_record_number"`
	StructuredData       map[string]any `json:"structured_data"`
	SuggestedAction      map[string]any `json:"suggested_action"`
	PriorCaseID          string         `json:"prior_case_id,omitempty"`
	PriorCaseDecision    string         `json:"prior_case_decision,omitempty"`
	DenialCount7d        int            `json:"denial_count_7d"`
}

// BuildRoom2WidgetMessage renders the widget JSON block plus a short ack
// message posted alongside it.
func BuildRoom2WidgetMessage(payload Room2WidgetPayload) (string, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal room-2 widget payload: %w", err)
	}
	return fmt.Sprintf(
		"*Novo caso para avaliação* — registro %s\n```\n%s\n```\n\n"+
			"Responda com:\n"+
			"decision: accept|deny\n"+
			"support_flag: none|anesthesist|anesthesist_icu\n"+
			"reason: <motivo, opcional se accept>\n"+
			"case_id: %s",
		payload.AgencyRecordNumber, body, payload.CaseID,
	), nil
}

// BuildRoom3SchedulingRequest renders the Room-3 scheduling request sent
// after a doctor accepts a case.
func BuildRoom3SchedulingRequest(caseID, agencyRecordNumber, supportFlag string) string {
	return fmt.Sprintf(
		"*Solicitação de agendamento* — registro %s\n"+
			"Suporte necessário: %s\n\n"+
			"Responda com:\n"+
			"status: confirmed|denied\n"+
			"case: %s\n"+
			"date_time: DD-MM-YYYY HH:MM BRT (se confirmed)\n"+
			"location: <unidade> (se confirmed)\n"+
			"instructions: <orientações> (se confirmed)\n"+
			"reason: <motivo> (se denied)",
		agencyRecordNumber, supportFlag, caseID,
	)
}

// BuildRoom1SuccessReply renders the final Room-1 reply for a successfully
// scheduled or denied case.
func BuildRoom1SuccessReply(caseID string, appointmentStatus string, dateTime, location, instructions, reason string) string {
	if appointmentStatus == "confirmed" {
		return fmt.Sprintf(
			"*Caso %s: exame confirmado*\nData/hora: %s\nLocal: %s\nOrientações: %s",
			caseID, dateTime, location, instructions,
		)
	}
	return fmt.Sprintf("*Caso %s: agendamento não realizado*\nMotivo: %s", caseID, reason)
}

// BuildRoom1DoctorDeniedReply renders the final Room-1 reply when a doctor
// denies the request outright (no scheduling attempted).
func BuildRoom1DoctorDeniedReply(caseID, reason string) string {
	return fmt.Sprintf("*Caso %s: solicitação negada pelo médico*\nMotivo: %s", caseID, reason)
}

// BuildRoom1FailureReply renders the final Room-1 reply for a case that
// failed processing, with a machine-readable cause for audit correlation.
func BuildRoom1FailureReply(caseID, cause, details string) string {
	return fmt.Sprintf("*Caso %s: falha no processamento*\nCausa: %s\nDetalhes: %s", caseID, cause, details)
}
