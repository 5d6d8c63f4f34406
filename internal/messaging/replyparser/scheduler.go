package replyparser

import (
	"regexp"
	"strings"
	"time"
)

// SchedulerReply is the normalized Room-3 scheduling confirmation.
type SchedulerReply struct {
	CaseID       string
	Status       string // confirmed | denied
	DateTime     *time.Time
	Location     string
	Instructions string
	Reason       string
}

var schedulerKeyAliases = map[string]string{
	"case": "case", "caso": "case", "case_id": "case",
	"status": "status", "situacao": "status",
	"date_time": "date_time", "data_hora": "date_time", "data_e_hora": "date_time", "horario": "date_time", "data": "date_time",
	"location": "location", "local": "location", "unidade": "location",
	"instructions": "instructions", "instrucoes": "instructions", "orientacoes": "instructions",
	"reason": "reason", "motivo": "reason",
}

var schedulerStatusAliases = map[string]string{
	"confirmed": "confirmed", "confirmado": "confirmed", "confirmada": "confirmed",
	"denied": "denied", "negado": "denied", "negada": "denied", "recusado": "denied", "indisponivel": "denied",
}

var sectionHeaderPrefixes = []string{"confirmed:", "denied:", "confirmado:", "negado:"}

var caseIDPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

var brtDateTimeFormats = []string{"02-01-2006 15:04", "02/01/2006 15:04"}

// ParseSchedulerReply parses a strict Room-3 scheduling reply. Confirmed
// replies require a valid date_time; denied replies ignore date_time
// (location, instructions and reason are kept as given).
func ParseSchedulerReply(body, expectedCaseID string) (*SchedulerReply, error) {
	lines := normalizedMessageLines(body)
	if len(lines) == 0 {
		return nil, errReason("empty_message")
	}

	fields := make(map[string]string)
	for _, line := range lines {
		stripped := stripSectionHeader(line)
		if stripped == "" {
			continue
		}
		normalized := strings.ReplaceAll(stripped, "：", ":")
		idx := strings.Index(normalized, ":")
		if idx < 0 {
			return nil, errReason("invalid_line_format")
		}
		rawKey, value := normalized[:idx], normalized[idx+1:]
		key, ok := schedulerKeyAliases[normalizeKey(rawKey)]
		if !ok {
			return nil, errReason("unknown_field")
		}
		if _, exists := fields[key]; exists {
			return nil, errReason("duplicate_field")
		}
		fields[key] = strings.TrimSpace(value)
	}

	if _, ok := fields["status"]; !ok {
		return nil, errReason("missing_status_line")
	}
	if _, ok := fields["case"]; !ok {
		return nil, errReason("missing_case_line")
	}

	status, ok := schedulerStatusAliases[normalizeKey(fields["status"])]
	if !ok {
		return nil, errReason("invalid_status_value")
	}

	caseID := caseIDPattern.FindString(fields["case"])
	if caseID == "" {
		return nil, errReason("invalid_case_line")
	}
	if expectedCaseID != "" && caseID != expectedCaseID {
		return nil, errReason("case_id_mismatch")
	}

	reply := &SchedulerReply{
		CaseID:       caseID,
		Status:       status,
		Location:     strings.TrimSpace(fields["location"]),
		Instructions: strings.TrimSpace(fields["instructions"]),
		Reason:       normalizeReason(fields["reason"]),
	}

	if status == "confirmed" {
		parsed, err := parseBRTDateTime(fields["date_time"])
		if err != nil {
			return nil, errReason("invalid_confirmed_datetime")
		}
		reply.DateTime = parsed
	}

	return reply, nil
}

func stripSectionHeader(line string) string {
	lower := strings.ToLower(line)
	for _, prefix := range sectionHeaderPrefixes {
		if lower == prefix {
			return ""
		}
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return line
}

func parseBRTDateTime(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, errReason("invalid_confirmed_datetime")
	}
	fields := strings.Fields(value)
	if len(fields) > 0 && strings.EqualFold(fields[len(fields)-1], "brt") {
		fields = fields[:len(fields)-1]
	}
	value = strings.Join(fields, " ")

	loc, err := time.LoadLocation("America/Bahia")
	if err != nil {
		loc = time.UTC
	}
	for _, format := range brtDateTimeFormats {
		if parsed, err := time.ParseInLocation(format, value, loc); err == nil {
			return &parsed, nil
		}
	}
	return nil, errReason("invalid_confirmed_datetime")
}
