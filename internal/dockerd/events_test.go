package dockerd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedEvents frames each payload as one chunk of a held-open chunked
// response, the way the daemon delivers its event stream.
func chunkedEvents(payloads ...string) string {
	var b strings.Builder
	b.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nTransfer-Encoding: chunked\r\n\r\n")
	for _, p := range payloads {
		fmt.Fprintf(&b, "%x\r\n%s\r\n", len(p), p)
	}
	return b.String()
}

func TestStreamYieldsEventsUntilConnectionDrops(t *testing.T) {
	daemon := newFakeDaemon(t, chunkedEvents(
		`{"status":"start","id":"aaa111"}`,
		`{"Type":"container","Action":"die","Actor":{"ID":"bbb222","Attributes":{"name":"web"}}}`,
	))
	watcher := NewWatcher(daemon.socket, discardLogger())

	stream, err := watcher.OpenStream(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	wantPath := "/events?filters=" + url.QueryEscape(`{"event":["start","die","stop"]}`)
	assert.Equal(t, wantPath, daemon.lastPath())

	first, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "start", first.Kind())
	assert.Equal(t, "aaa111", first.ContainerID())

	second, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "die", second.Kind())
	assert.Equal(t, "bbb222", second.ContainerID())
	assert.Equal(t, "web", second.ContainerName())

	// The daemon closes the connection after the canned payloads; the
	// stream is terminal from here and must be replaced, not resumed.
	_, err = stream.Next()
	assert.Error(t, err)
}

func TestOpenStreamNon2xxFails(t *testing.T) {
	daemon := newFakeDaemon(t, jsonResponse("503 Service Unavailable", `{"message":"starting"}`))
	watcher := NewWatcher(daemon.socket, discardLogger())

	_, err := watcher.OpenStream(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "503", statusErr.Code)
}
