package logstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logServer sends lines then closes, or holds the socket open when hold is set.
func logServer(t *testing.T, lines []string, hold bool) (string, func() string) {
	t.Helper()
	var mu sync.Mutex
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.RawQuery
		mu.Unlock()
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		for _, line := range lines {
			if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
				return
			}
		}
		_ = conn.Write(ctx, websocket.MessageBinary, []byte{0x01})
		if hold {
			_, _, _ = conn.Read(ctx)
			return
		}
		_ = conn.Close(websocket.StatusNormalClosure, "done")
	}))
	t.Cleanup(srv.Close)
	query := func() string {
		mu.Lock()
		defer mu.Unlock()
		return gotQuery
	}
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1beta1/system/logs-ws?token=tok", query
}

func TestFollow_DeliversLinesUntilClose(t *testing.T) {
	url, query := logServer(t, []string{"starting", "ready"}, false)

	var got []string
	err := New().Follow(testContext(t), url, func(line string) error {
		got = append(got, line)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"starting", "ready"}, got)
	assert.Equal(t, "token=tok", query())
}

func TestFollow_HandlerStops(t *testing.T) {
	url, _ := logServer(t, []string{"a", "b", "c"}, true)
	stop := errors.New("enough")

	var got []string
	err := New().Follow(testContext(t), url, func(line string) error {
		got = append(got, line)
		if line == "b" {
			return stop
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFollow_ContextCancel(t *testing.T) {
	url, _ := logServer(t, []string{"a"}, true)
	ctx, cancel := context.WithCancel(testContext(t))

	err := New().Follow(ctx, url, func(string) error {
		cancel()
		return nil
	})
	assert.NoError(t, err)
}

func TestFollow_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	err := New(WithDialTimeout(time.Second)).Follow(testContext(t), url, func(string) error { return nil })
	assert.Error(t, err)
}
