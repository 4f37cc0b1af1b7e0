package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configRoute(provider string) Route {
	spec := map[string]any{"restService": map[string]any{}, "securityContext": map[string]any{}}
	if provider != "" {
		spec["dataSource"] = map[string]any{"provider": provider}
	}
	return Route{
		Method:  "GET",
		Path:    "/api/v1beta1/system/config?*",
		Replies: []ReplySpec{{Status: 200, Data: map[string]any{"spec": spec}}},
	}
}

func TestRun_PingOnly(t *testing.T) {
	scenario := &Scenario{
		Name:        "ping",
		Description: "ping",
		Backend: []Route{{
			Method:  "GET",
			Path:    "/api/v1beta1/system/status",
			Replies: []ReplySpec{{Status: 200}},
		}},
		Flow:       []Step{{Op: OpPing, Expect: &ExpectClause{Error: false}}},
		Assertions: []Assertion{{Type: AssertNotifications, Messages: []string{}}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, EventStep, result.Trace[0].Type)
	assert.Equal(t, EventRequest, result.Trace[1].Type)
	assert.Equal(t, "ping", result.Trace[1].Op)
	assert.Equal(t, int64(1), result.Trace[1].Seq)

	require.Len(t, result.Journal, 1)
	assert.Equal(t, "success", result.Journal[0].Outcome)
}

func TestRun_StepExpectationMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "ping fails but the step expects success",
		Flow:        []Step{{Op: OpPing, Expect: &ExpectClause{Error: false}}},
		Assertions:  []Assertion{{Type: AssertNotifications, Messages: []string{}}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "flow[0] ping: unexpected error")
	assert.True(t, result.Trace[0].Error)
}

func TestRun_UnreachableMessageOmittedFromTrace(t *testing.T) {
	scenario := &Scenario{
		Name:        "unreachable",
		Description: "the backend drops the config request",
		Setup:       Setup{Token: "tok", Section: "widgets"},
		Backend: []Route{{
			Method:  "GET",
			Path:    "/api/v1beta1/system/config?*",
			Replies: []ReplySpec{{Drop: true}},
		}},
		Flow: []Step{{Op: OpStart, Expect: &ExpectClause{Error: true}}},
		Assertions: []Assertion{
			{Type: AssertNotifications, Messages: []string{"Unable to reach the server."}},
			{Type: AssertFinalState, Expect: map[string]any{"ready": true, "authorized": false}},
			{Type: AssertJournal, Where: map[string]any{"op": "load_config"}, Expect: map[string]any{"outcome": "network_failure"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	reqs := result.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Message)
	assert.NotEmpty(t, result.Journal[0].Message)
}

func TestRun_SaveConfigAndRestart(t *testing.T) {
	scenario := &Scenario{
		Name:        "save_and_restart",
		Description: "save a config then restart",
		Setup:       Setup{Token: "tok", Section: "settings"},
		Backend: []Route{
			configRoute("db"),
			{Method: "PUT", Path: "/api/v1beta1/system/config", Replies: []ReplySpec{{Status: 200}}},
			{Method: "POST", Path: "/api/v1beta1/system/status/running?now=true", Replies: []ReplySpec{{Status: 200}}},
		},
		Flow: []Step{
			{Op: OpStart},
			{Op: OpSaveConfig, Config: map[string]any{
				"spec": map[string]any{"restService": map[string]any{"port": 8080}, "securityContext": map[string]any{}},
			}},
			{Op: OpChangeStatus, Status: "running", Now: true},
		},
		Assertions: []Assertion{
			{Type: AssertNotifications, Messages: []string{
				"Configuration changes will take effect on the next restart",
				"Restarting.",
			}},
			{Type: AssertRequestOrder, Requests: []string{
				"GET /api/v1beta1/system/config?*",
				"PUT /api/v1beta1/system/config",
				"POST /api/v1beta1/system/status/running?now=true",
			}},
			{Type: AssertFinalState, Expect: map[string]any{"phase": "authorized", "section": "settings"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_CustomBase(t *testing.T) {
	scenario := &Scenario{
		Name:        "custom_base",
		Description: "requests use the configured API root",
		Setup:       Setup{Base: "/api/v2"},
		Backend: []Route{{
			Method:  "GET",
			Path:    "/api/v2/system/status",
			Replies: []ReplySpec{{Status: 200}},
		}},
		Flow:       []Step{{Op: OpPing, Expect: &ExpectClause{}}},
		Assertions: []Assertion{{Type: AssertRequestCount, Method: "GET", Path: "/api/v2/system/status", Count: 1}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
