package recordnumber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
}

func TestExtract_CodigoLabel(t *testing.T) {
	text := "Paciente: Fulano\nCódigo: 123456\nQueixa: dor abdominal"
	result := Extract(text, fixedNow)

	assert.Equal(t, "123456", result.RecordNumber)
	assert.False(t, result.Placeholder)
	assert.NotContains(t, result.CleanedText, "123456")
}

func TestExtract_CodigoWithoutAccent(t *testing.T) {
	text := "Codigo: 654321\nExame de rotina"
	result := Extract(text, fixedNow)

	assert.Equal(t, "654321", result.RecordNumber)
}

func TestExtract_ReportHeaderFlowPattern(t *testing.T) {
	text := "RELATÓRIO DE OCORRÊNCIAS\npágina 1 de algum sistema legado 987654 fim"
	result := Extract(text, fixedNow)

	assert.Equal(t, "987654", result.RecordNumber)
}

func TestExtract_FirstMatchByDocumentPosition(t *testing.T) {
	text := "Código: 111111\n\nRELATÓRIO DE OCORRÊNCIAS blah blah 222222"
	result := Extract(text, fixedNow)

	assert.Equal(t, "111111", result.RecordNumber)
}

func TestExtract_FallsBackToEpochMillisPlaceholder(t *testing.T) {
	text := "no registration code anywhere in this report"
	result := Extract(text, fixedNow)

	assert.True(t, result.Placeholder)
	assert.Equal(t, "1771243200000", result.RecordNumber)
}

func TestExtract_StripsWatermarkLine(t *testing.T) {
	text := "Código: 112233\nRelatório\n112233 112233 112233 112233\nfim do relatório"
	result := Extract(text, fixedNow)

	assert.Equal(t, "112233", result.RecordNumber)
	assert.NotContains(t, result.CleanedText, "112233")
}

func TestExtract_IsDeterministic(t *testing.T) {
	text := "Código: 445566\nlinha um\nlinha dois"
	r1 := Extract(text, fixedNow)
	r2 := Extract(text, fixedNow)

	assert.Equal(t, r1, r2)
}
