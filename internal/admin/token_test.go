package admin_test

import (
	"testing"
	"time"

	"github.com/carlosapgomes/eda-triage/internal/admin"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_DefaultsToEightHourTTL(t *testing.T) {
	svc := admin.NewTokenService()
	before := time.Now()
	issued, err := svc.IssueToken()
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.Equal(t, admin.HashToken(issued.Token), issued.TokenHash)
	require.WithinDuration(t, before.Add(8*time.Hour), issued.ExpiresAt, 2*time.Second)
}

func TestIssueToken_ProducesUniqueTokens(t *testing.T) {
	svc := admin.NewTokenService()
	a, err := svc.IssueToken()
	require.NoError(t, err)
	b, err := svc.IssueToken()
	require.NoError(t, err)
	require.NotEqual(t, a.Token, b.Token)
	require.NotEqual(t, a.TokenHash, b.TokenHash)
}

func TestHashToken_Deterministic(t *testing.T) {
	require.Equal(t, admin.HashToken("abc"), admin.HashToken("abc"))
	require.NotEqual(t, admin.HashToken("abc"), admin.HashToken("abd"))
}
