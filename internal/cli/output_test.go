package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rconsole/internal/classify"
	"github.com/roach88/rconsole/internal/core"
	"github.com/roach88/rconsole/internal/transport"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E_UNREACHABLE", "Unable to reach the server.", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "E_UNREACHABLE", resp.Error.Code)
	assert.Equal(t, "Unable to reach the server.", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"field": "name"}
	err := formatter.Error("E_VALIDATION", "Invalid", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("Widgets (2)")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Widgets (2)")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E_UNREACHABLE", "Unable to reach the server.", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E_UNREACHABLE]")
	assert.Contains(t, buf.String(), "Unable to reach the server.")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"field": "name"}
	err := formatter.Error("E_UNREACHABLE", "Unable to reach the server.", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E_UNREACHABLE]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Loading %s", "widgets")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Loading widgets")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "E_INVALID_CONFIG",
		Message: "Invalid configuration: port",
		Details: []string{"spec.restService.port"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E_INVALID_CONFIG", decoded.Code)
	assert.Equal(t, "Invalid configuration: port", decoded.Message)
}

func TestOutputFormatter_JSONNotifications(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"count": 2}, "Updated resource."))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, []string{"Updated resource."}, resp.Notifications)
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("diagnostic")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "diagnostic")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"read only", &core.OpError{Code: core.ErrCodeCapabilityDenied}, "E_READ_ONLY"},
		{"malformed", &core.OpError{Code: core.ErrCodeMalformedInput}, "E_MALFORMED"},
		{"invalid config", fmt.Errorf("save: %w", &core.OpError{Code: core.ErrCodeInvalidConfig}), "E_INVALID_CONFIG"},
		{"network", &transport.Error{Kind: transport.ErrNetwork}, "E_UNREACHABLE"},
		{"parse", &transport.Error{Kind: transport.ErrParse}, "E_UNEXPECTED_RESPONSE"},
		{"unauthorized", classify.Outcome{Kind: classify.KindUnauthorized, Status: 401}.Err(), "E_UNAUTHORIZED"},
		{"conflict", classify.Outcome{Kind: classify.KindConflict, Status: 409}.Err(), "E_CONFLICT"},
		{"validation", classify.Outcome{Kind: classify.KindValidation, Status: 422}.Err(), "E_VALIDATION"},
		{"server", classify.Outcome{Kind: classify.KindServer, Status: 500}.Err(), "E_SERVER"},
		{"delete", &core.DeleteError{Section: "widgets", Messages: []string{"boom"}}, "E_DELETE_FAILED"},
		{"other", errors.New("boom"), "E_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "x", errors.New("y")))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
