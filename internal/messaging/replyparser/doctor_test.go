package replyparser_test

import (
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/messaging/replyparser"
	"github.com/stretchr/testify/require"
)

func TestParseDoctorDecisionReply_Valid(t *testing.T) {
	body := "decision: accept\nsupport_flag: none\nreason: Criterios atendidos\ncase_id: case-123"
	reply, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	require.NoError(t, err)
	require.Equal(t, "accept", reply.Decision)
	require.Equal(t, "none", reply.SupportFlag)
	require.Equal(t, "Criterios atendidos", reply.Reason)
}

func TestParseDoctorDecisionReply_PortugueseAliases(t *testing.T) {
	body := "decisao: aceitar\nsuporte: anestesista\nmotivo: (opcional)\ncaso: case-123"
	reply, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	require.NoError(t, err)
	require.Equal(t, "accept", reply.Decision)
	require.Equal(t, "anesthesist", reply.SupportFlag)
	require.Equal(t, "", reply.Reason)
}

func TestParseDoctorDecisionReply_DenyWithSupportFlagIsInvalid(t *testing.T) {
	body := "decision: deny\nsupport_flag: anesthesist\nreason: x\ncase_id: case-123"
	_, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	require.Error(t, err)
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "invalid_support_flag_for_decision", parseErr.Reason)
}

func TestParseDoctorDecisionReply_CaseIDMismatch(t *testing.T) {
	body := "decision: accept\nsupport_flag: none\nreason: ok\ncase_id: case-999"
	_, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "case_id_mismatch", parseErr.Reason)
}

func TestParseDoctorDecisionReply_MissingKey(t *testing.T) {
	body := "decision: accept\nsupport_flag: none\ncase_id: case-123"
	_, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "missing_reason_line", parseErr.Reason)
}

func TestParseDoctorDecisionReply_UnknownField(t *testing.T) {
	body := "decision: accept\nsupport_flag: none\nreason: ok\ncase_id: case-123\nfoo: bar"
	_, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "unknown_field", parseErr.Reason)
}

func TestParseDoctorDecisionReply_DuplicateField(t *testing.T) {
	body := "decision: accept\ndecision: deny\nsupport_flag: none\nreason: ok\ncase_id: case-123"
	_, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "duplicate_field", parseErr.Reason)
}

func TestParseDoctorDecisionReply_EmptyMessage(t *testing.T) {
	_, err := replyparser.ParseDoctorDecisionReply("   \n  \n", "case-123")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "empty_message", parseErr.Reason)
}

func TestParseDoctorDecisionReply_InvalidDecisionValue(t *testing.T) {
	body := "decision: maybe\nsupport_flag: none\nreason: ok\ncase_id: case-123"
	_, err := replyparser.ParseDoctorDecisionReply(body, "case-123")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "invalid_decision_value", parseErr.Reason)
}
