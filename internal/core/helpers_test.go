package core

import (
	"net/http"
	"testing"

	"github.com/roach88/rconsole/internal/model"
	"github.com/roach88/rconsole/internal/notify"
	"github.com/roach88/rconsole/internal/testutil"
	"github.com/roach88/rconsole/internal/transport"
)

const (
	configPath  = "/api/v1beta1/system/config?*"
	widgetsPath = "/api/v1beta1/widgets?*"
)

var writableConfig = map[string]any{
	"spec": map[string]any{
		"restService":     map[string]any{"port": 8080},
		"securityContext": map[string]any{},
		"dataSource":      map[string]any{"provider": "mongodb_data_provider"},
	},
}

var readOnlyConfig = map[string]any{
	"spec": map[string]any{
		"restService":     map[string]any{},
		"securityContext": map[string]any{},
		"dataSource":      map[string]any{"provider": "files_data_provider"},
	},
}

func items(refs ...string) []map[string]any {
	out := make([]map[string]any, len(refs))
	for i, ref := range refs {
		out[i] = map[string]any{"metadata": map[string]any{"ref": ref, "name": "name-" + ref}}
	}
	return out
}

// newTestCore wires a Core to a scripted backend with token "tok" and
// section "widgets".
func newTestCore(t *testing.T, opts ...Option) (*Core, *testutil.Backend, *notify.Recorder) {
	t.Helper()
	b := testutil.NewBackend(t)
	rec := notify.NewRecorder()
	client := transport.New(transport.WithIDGenerator(testutil.NewFixedRequestIDs("")))

	base := []Option{WithAPIURL(b.URL()), WithToken("tok"), WithSection("widgets")}
	c := New(client, rec, append(base, opts...)...)
	return c, b, rec
}

// authorize scripts and performs a successful config load.
func authorize(t *testing.T, c *Core, b *testutil.Backend, cfg map[string]any) {
	t.Helper()
	b.On(http.MethodGet, configPath, testutil.OK(cfg))
	if err := c.LoadConfig(testContext(t)); err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	b.ResetCalls()
}

func refs(c *Core) []string {
	recs := c.Resources()
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Ref
	}
	return out
}

func sectionOf(s string) model.Section {
	return model.Section(s)
}
