package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbackwarning/outbackwarning/internal/auth"
)

func runIssueToken(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := issueTokenCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestIssueToken(t *testing.T) {
	t.Setenv("OPERATOR_SIGNING_KEY", "test-signing-key")

	token, err := runIssueToken(t, "--operator", "duty-officer", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.NewTokenService(auth.TokenConfig{SigningKey: "test-signing-key"}).Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "duty-officer", claims.Subject)
}

func TestIssueToken_RequiresOperator(t *testing.T) {
	t.Setenv("OPERATOR_SIGNING_KEY", "test-signing-key")

	_, err := runIssueToken(t)
	assert.Error(t, err)
}

func TestIssueToken_NoSigningKey(t *testing.T) {
	t.Setenv("OPERATOR_SIGNING_KEY", "")

	_, err := runIssueToken(t, "--operator", "duty-officer")
	assert.ErrorIs(t, err, auth.ErrNoSigningKey)
}
