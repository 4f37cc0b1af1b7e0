package core

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rconsole/internal/notify"
	"github.com/roach88/rconsole/internal/testutil"
	"github.com/roach88/rconsole/internal/transport"
)

// runCore starts c.Run and returns a function that stops it and waits.
func runCore(t *testing.T, c *Core) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	return func() {
		c.Stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after Stop")
		}
		cancel()
	}
}

func TestRun_WaitsForToken(t *testing.T) {
	b := testutil.NewBackend(t)
	b.On(http.MethodGet, configPath, testutil.OK(writableConfig))
	b.On(http.MethodGet, widgetsPath, testutil.OK(items("a", "b")))

	c := New(transport.New(), notify.NewRecorder(), WithAPIURL(b.URL()), WithSection("widgets"))
	stop := runCore(t, c)
	defer stop()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, b.Calls(), "no calls before a token is present")
	assert.False(t, c.Started())

	c.SetToken("tok")

	require.Eventually(t, func() bool { return len(c.Resources()) == 2 }, 2*time.Second, time.Millisecond)
	assert.True(t, c.Authorized())
	assert.True(t, c.Ready())

	calls := b.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, configPath, calls[0].Path, "config load comes first")
	assert.Equal(t, widgetsPath, calls[1].Path)
	assert.Equal(t, "Bearer tok", calls[1].Auth)
}

func TestRun_StartupFiresOnce(t *testing.T) {
	c, b, _ := newTestCore(t)
	b.On(http.MethodGet, configPath, testutil.OK(writableConfig))
	b.On(http.MethodGet, widgetsPath, testutil.OK(items("a")))

	stop := runCore(t, c)
	require.Eventually(t, func() bool { return c.Snapshot().Phase == PhaseIdle }, 2*time.Second, time.Millisecond)

	c.SetToken("other")
	c.SetToken("third")
	stop()

	assert.Equal(t, 1, b.CallCount(http.MethodGet, configPath))
}

func TestRun_ProductionStartsWithoutToken(t *testing.T) {
	b := testutil.NewBackend(t)
	b.On(http.MethodGet, configPath, testutil.OK(writableConfig))
	b.On(http.MethodGet, widgetsPath, testutil.OK(items("a")))

	c := New(transport.New(), nil, WithAPIURL(b.URL()), WithSection("widgets"), WithProduction(true))
	stop := runCore(t, c)
	defer stop()

	require.Eventually(t, func() bool { return len(c.Resources()) == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, "", b.Calls()[0].Auth)
}

func TestRun_UnauthorizedSkipsResourceLoad(t *testing.T) {
	c, b, rec := newTestCore(t)
	b.On(http.MethodGet, configPath, testutil.Fail(401, "unauthorized"))

	stop := runCore(t, c)
	require.Eventually(t, c.Ready, 2*time.Second, time.Millisecond)
	stop()

	assert.False(t, c.Authorized())
	assert.Equal(t, 0, b.CallCount(http.MethodGet, widgetsPath))
	assert.Empty(t, rec.Messages())
}

func TestRun_SettingsSectionSkipsResourceLoad(t *testing.T) {
	c, b, _ := newTestCore(t, WithSection("settings"))
	b.On(http.MethodGet, configPath, testutil.OK(writableConfig))

	stop := runCore(t, c)
	require.Eventually(t, c.Authorized, 2*time.Second, time.Millisecond)
	stop()

	require.Len(t, b.Calls(), 1)
	assert.Equal(t, PhaseAuthorized, c.Snapshot().Phase)
}

func TestRun_SelectSectionLoads(t *testing.T) {
	c, b, _ := newTestCore(t)
	b.On(http.MethodGet, configPath, testutil.OK(writableConfig))
	b.On(http.MethodGet, widgetsPath, testutil.OK(items("w")))
	b.On(http.MethodGet, "/api/v1beta1/gadgets?*", testutil.OK(items("g1", "g2")))

	stop := runCore(t, c)
	defer stop()
	require.Eventually(t, func() bool { return len(c.Resources()) == 1 }, 2*time.Second, time.Millisecond)

	c.SelectSection("gadgets")
	require.Eventually(t, func() bool { return len(c.Resources()) == 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []string{"g1", "g2"}, refs(c))

	c.SelectSection("settings")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"g1", "g2"}, refs(c), "settings keeps the last list")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	c, _, _ := newTestCore(t, WithToken(""))
	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStart_ForcesStartupOnce(t *testing.T) {
	c, b, _ := newTestCore(t, WithToken(""))
	b.On(http.MethodGet, configPath, testutil.OK(writableConfig))
	b.On(http.MethodGet, widgetsPath, testutil.OK(items("a")))

	require.NoError(t, c.Start(testContext(t)))
	require.NoError(t, c.Start(testContext(t)))

	assert.Equal(t, 1, b.CallCount(http.MethodGet, configPath))
	assert.Equal(t, []string{"a"}, refs(c))
}

func TestSubscribe_PhaseSequence(t *testing.T) {
	c, b, _ := newTestCore(t)
	b.On(http.MethodGet, configPath, testutil.OK(writableConfig))
	b.On(http.MethodGet, widgetsPath, testutil.OK(items("a")))

	var phases []Phase
	cancel := c.Subscribe(func(s Snapshot) {
		if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
			phases = append(phases, s.Phase)
		}
	})
	defer cancel()

	require.NoError(t, c.Start(testContext(t)))

	assert.Equal(t, []Phase{PhaseConfigLoading, PhaseAuthorized, PhaseResourcesLoading, PhaseIdle}, phases)
}

func TestSubscribe_UnauthorizedPhases(t *testing.T) {
	c, b, _ := newTestCore(t)
	b.On(http.MethodGet, configPath, testutil.Fail(401, ""))

	var phases []Phase
	c.Subscribe(func(s Snapshot) { phases = append(phases, s.Phase) })

	require.Error(t, c.Start(testContext(t)))
	assert.Equal(t, []Phase{PhaseConfigLoading, PhaseUnauthorized}, phases)
}

func TestSubscribe_Cancel(t *testing.T) {
	c, _, _ := newTestCore(t)
	count := 0
	cancel := c.Subscribe(func(Snapshot) { count++ })

	c.SelectSection("a")
	cancel()
	c.SelectSection("b")

	assert.Equal(t, 1, count)
}

func TestSubscribe_ListenerMutationDoesNotLeak(t *testing.T) {
	c, b, _ := newTestCore(t)
	b.On(http.MethodGet, widgetsPath, testutil.OK(items("a")))

	var seen []string
	c.Subscribe(func(s Snapshot) {
		for i := range s.Resources {
			s.Resources[i].Ref = "mutated"
		}
	})
	c.Subscribe(func(s Snapshot) {
		for _, r := range s.Resources {
			seen = append(seen, r.Ref)
		}
	})

	require.NoError(t, c.LoadResources(testContext(t), "widgets"))
	assert.Contains(t, seen, "a")
	assert.NotContains(t, seen, "mutated")
	assert.Equal(t, []string{"a"}, refs(c))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "resources_loading", PhaseResourcesLoading.String())
	assert.Equal(t, "unknown", Phase(99).String())
}
