package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/codec"
	"github.com/polarcraft/polarstudio/internal/config"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/server"
	"github.com/polarcraft/polarstudio/internal/share"
	"github.com/polarcraft/polarstudio/internal/watcher"
)

const integrationBench = `{"components":[
  {"type":"source","params":{"wavelength":632.8}},
  {"type":"waveplate","x":40,"rotation":22.5},
  {"type":"polarizer","x":80,"params":{"transmission-axis":90}},
  {"type":"detector","x":120}
]}`

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startServer runs a studio server on a free port until the test ends.
func startServer(t *testing.T) string {
	t.Helper()

	viper.Reset()
	viper.Set("server.port", freePort(t))
	viper.Set("server.host", "localhost")
	cfg, err := config.Load()
	require.NoError(t, err)

	srv, err := server.New(cfg, logging.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	base := "http://" + srv.Addr()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return base
}

func TestIntegration_ShareAndOpen(t *testing.T) {
	base := startServer(t)

	// Build the link the editor would copy.
	resp, err := http.Post(base+"/api/share", "application/json", strings.NewReader(integrationBench))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var link share.Link
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&link))
	assert.True(t, link.WithinLimit)
	assert.True(t, strings.HasPrefix(link.URL, "http://localhost:5173/studio?module=design&setup=1~"))

	token, err := share.ParseLink(link.URL)
	require.NoError(t, err)
	assert.Equal(t, link.Token, token)

	// Whoever receives the link decodes the same bench.
	resp, err = http.Get(base + "/api/decode?link=" + url.QueryEscape(link.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded server.DecodeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Len(t, decoded.Components, 4)
	assert.Equal(t, "waveplate", decoded.Components[1].Type)
	assert.EqualValues(t, 632.8, decoded.Components[0].Params["wavelength"])
	require.Len(t, decoded.Readings, 1)
	assert.Equal(t, "d3", decoded.Readings[0].ID)

	// Re-encoding the decoded bench reproduces the token.
	original, err := benchfile.Parse([]byte(integrationBench), benchfile.FormatJSON)
	require.NoError(t, err)
	state, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, codec.Encode(original), codec.Encode(state))

	// The studio page opens it.
	resp, err = http.Get(base + "/studio?module=design&setup=" + url.QueryEscape(string(token)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_FutureTokenAsksForUpdate(t *testing.T) {
	base := startServer(t)

	future := fmt.Sprintf("%d~S_0_0_0", codec.FormatVersion+1)
	resp, err := http.Get(base + "/api/decode?setup=" + url.QueryEscape(future))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body server.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "format", body.Kind)
}

func TestIntegration_LiveEstimate(t *testing.T) {
	base := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(base, "http")+"/ws/estimate", &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://localhost:5173"}},
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(integrationBench)))
	var reply server.EstimateReply
	require.NoError(t, wsjson.Read(ctx, conn, &reply))
	require.NotNil(t, reply.Preview)

	original, err := benchfile.Parse([]byte(integrationBench), benchfile.FormatJSON)
	require.NoError(t, err)
	actual := len("http://localhost:5173/studio?module=design&setup=") + len(codec.Encode(original))
	assert.GreaterOrEqual(t, reply.Preview.EstimatedLength, actual)
}

func TestIntegration_WatchRebuildsLink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components:\n  - type: source\n"), 0o644))

	builder, err := config.Default().ShareBuilder()
	require.NoError(t, err)

	fw, err := watcher.NewFileWatcher(50*time.Millisecond, logging.NewNopLogger())
	require.NoError(t, err)
	defer fw.Stop()
	fw.AddFilter(watcher.BenchFileFilter)
	require.NoError(t, fw.WatchFile(path))

	links := make(chan string, 4)
	fw.AddHandler(func([]watcher.ChangeEvent) error {
		state, err := benchfile.Load(path)
		if err != nil {
			return err
		}
		links <- builder.URL(state)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.WriteFile(path, []byte("components:\n  - type: source\n  - type: mirror\n    x: 30\n"), 0o644))

	select {
	case got := <-links:
		assert.Equal(t, "http://localhost:5173/studio?module=design&setup=1~S_0_0_0~M_30_0_0", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after the bench file changed")
	}
}
