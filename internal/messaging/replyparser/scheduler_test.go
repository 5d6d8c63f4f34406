package replyparser_test

import (
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/messaging/replyparser"
	"github.com/stretchr/testify/require"
)

const validCaseUUID = "11111111-2222-3333-4444-555555555555"

func TestParseSchedulerReply_ConfirmedValid(t *testing.T) {
	body := "status: confirmed\ncase: " + validCaseUUID + "\ndate_time: 05-08-2026 09:30\nlocation: Unidade Central\ninstructions: Jejum de 8h"
	reply, err := replyparser.ParseSchedulerReply(body, validCaseUUID)
	require.NoError(t, err)
	require.Equal(t, "confirmed", reply.Status)
	require.NotNil(t, reply.DateTime)
	require.Equal(t, "Unidade Central", reply.Location)
	require.Equal(t, "Jejum de 8h", reply.Instructions)
}

func TestParseSchedulerReply_ConfirmedAcceptsSlashDateAndBRTSuffix(t *testing.T) {
	body := "status: confirmado\ncase: " + validCaseUUID + "\ndata_hora: 05/08/2026 09:30 BRT\nlocal: Unidade Central"
	reply, err := replyparser.ParseSchedulerReply(body, validCaseUUID)
	require.NoError(t, err)
	require.NotNil(t, reply.DateTime)
}

func TestParseSchedulerReply_DeniedIgnoresDateTime(t *testing.T) {
	body := "status: denied\ncase: " + validCaseUUID + "\nreason: Sem vaga na agenda"
	reply, err := replyparser.ParseSchedulerReply(body, validCaseUUID)
	require.NoError(t, err)
	require.Equal(t, "denied", reply.Status)
	require.Nil(t, reply.DateTime)
	require.Equal(t, "Sem vaga na agenda", reply.Reason)
}

func TestParseSchedulerReply_SectionHeaderStripped(t *testing.T) {
	body := "confirmed:\nstatus: confirmed\ncase: " + validCaseUUID + "\ndate_time: 05-08-2026 09:30"
	reply, err := replyparser.ParseSchedulerReply(body, validCaseUUID)
	require.NoError(t, err)
	require.Equal(t, "confirmed", reply.Status)
}

func TestParseSchedulerReply_InvalidDateTimeForConfirmed(t *testing.T) {
	body := "status: confirmed\ncase: " + validCaseUUID + "\ndate_time: not-a-date"
	_, err := replyparser.ParseSchedulerReply(body, validCaseUUID)
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "invalid_confirmed_datetime", parseErr.Reason)
}

func TestParseSchedulerReply_CaseIDMismatch(t *testing.T) {
	body := "status: denied\ncase: " + validCaseUUID + "\nreason: x"
	_, err := replyparser.ParseSchedulerReply(body, "99999999-9999-9999-9999-999999999999")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "case_id_mismatch", parseErr.Reason)
}

func TestParseSchedulerReply_InvalidStatusValue(t *testing.T) {
	body := "status: maybe\ncase: " + validCaseUUID
	_, err := replyparser.ParseSchedulerReply(body, validCaseUUID)
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "invalid_status_value", parseErr.Reason)
}

func TestParseSchedulerReply_MissingCaseLine(t *testing.T) {
	body := "status: confirmed\ndate_time: 05-08-2026 09:30"
	_, err := replyparser.ParseSchedulerReply(body, "")
	var parseErr *replyparser.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "missing_case_line", parseErr.Reason)
}
