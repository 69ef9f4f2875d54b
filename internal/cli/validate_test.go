package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateCommandMissingArgs(t *testing.T) {
	_, err := executeValidate(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestValidateCommandNonExistentDir(t *testing.T) {
	_, err := executeValidate(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestValidateCommandValid(t *testing.T) {
	dir := newSuite(t, map[string]string{
		"passing.yaml": passingScenario,
		"failing.yaml": failingScenario,
	})

	out, err := executeValidate(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 scenario file(s) valid")
}

func TestValidateCommandInvalid(t *testing.T) {
	dir := newSuite(t, map[string]string{
		"passing.yaml": passingScenario,
		"broken.yaml":  "name: broken\ndescription: x\nsteps:\n  - call: teleport\nassertions:\n  - type: absent\n",
	})

	out, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "broken.yaml")
	assert.NotContains(t, out, "passing.yaml")
}

func TestValidateCommandJSON(t *testing.T) {
	dir := newSuite(t, map[string]string{"passing.yaml": passingScenario})

	out, err := executeValidate(t, "json", dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Files)
}

func TestValidateCommandJSONInvalid(t *testing.T) {
	dir := newSuite(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, err := executeValidate(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
}
