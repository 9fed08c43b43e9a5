// Package transport implements the minimal HTTP/1.1 GET client proxngin
// speaks against the Docker daemon's unix socket. It is deliberately not a
// general HTTP client: one request per connection, no redirects, no
// connection reuse, and exactly two body-framing strategies.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const dialTimeout = 10 * time.Second

// Response carries the parsed status line and header section of one reply.
// Header keys and values are stored trimmed, case as received; a duplicate
// key overwrites the earlier value (last wins).
type Response struct {
	Code    string
	Reason  string
	Headers map[string]string
}

// OK reports whether the status code is in the 2xx class.
func (r *Response) OK() bool {
	return strings.HasPrefix(r.Code, "2")
}

// Header performs a case-insensitive header lookup.
func (r *Response) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Client is a single-shot HTTP/1.1 connection to a unix stream socket.
// It serves exactly one request/response cycle and is then closed; a held
// open event stream reads further framed messages off the same response.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
	done    chan struct{}
	closed  bool
	spent   bool
}

// Dial connects to the daemon socket at socketPath. timeout bounds every
// subsequent read and write; zero means block indefinitely, which is used
// only for the event stream. When ctx is cancelled the connection is torn
// down so that blocking reads return instead of waiting forever.
func Dial(ctx context.Context, socketPath string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, socketPath, err)
	}
	c := &Client{
		conn:    conn,
		br:      bufio.NewReader(conn),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go c.closeOnCancel(ctx)
	return c, nil
}

// closeOnCancel interrupts any blocked read or write once ctx is cancelled.
func (c *Client) closeOnCancel(ctx context.Context) {
	select {
	case <-ctx.Done():
		c.Close()
	case <-c.done:
	}
}

// usable guards every operation against a closed or spent connection.
func (c *Client) usable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: connection closed", ErrConnection)
	}
	if c.spent {
		return fmt.Errorf("%w: connection already served its request", ErrConnection)
	}
	return nil
}

func (c *Client) setDeadline() error {
	if c.timeout <= 0 {
		return c.conn.SetDeadline(time.Time{})
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

// Request writes a single GET for path: request line, no extra headers,
// terminated by an empty line.
func (c *Client) Request(path string) error {
	if err := c.usable(); err != nil {
		return err
	}
	if err := c.setDeadline(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if _, err := fmt.Fprintf(c.conn, "GET %s HTTP/1.1\r\n\r\n", path); err != nil {
		return fmt.Errorf("%w: write request: %v", ErrConnection, err)
	}
	return nil
}

// ReadStatusAndHeaders consumes CR-LF terminated lines until the empty line
// ending the header section. The status line must split into exactly three
// tokens with the literal protocol marker first.
func (c *Client) ReadStatusAndHeaders() (*Response, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	if err := c.setDeadline(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	status, err := c.readLine()
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(status, " ", 3)
	if len(parts) != 3 || parts[0] != "HTTP/1.1" {
		return nil, fmt.Errorf("%w: malformed status line %q", ErrProtocol, status)
	}
	resp := &Response{
		Code:    parts[1],
		Reason:  parts[2],
		Headers: make(map[string]string),
	}

	for {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return resp, nil
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		resp.Headers[key] = value
	}
}

// ReadBody applies the framing rule once, selected by header presence in
// priority order: Content-Length first, chunked transfer encoding second.
// A Content-Length body spends the connection. A chunked read consumes a
// single chunk, so a caller holding an event stream open calls ReadBody
// once per logical message; continuation chunks beyond the one requested
// and the terminating zero-size chunk are not handled.
func (c *Client) ReadBody(resp *Response) ([]byte, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	if err := c.setDeadline(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if v, ok := resp.Header("Content-Length"); ok {
		length, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || length < 0 {
			return nil, fmt.Errorf("%w: bad content length %q", ErrProtocol, v)
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(c.br, body); err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrConnection, err)
		}
		c.mu.Lock()
		c.spent = true
		c.mu.Unlock()
		return body, nil
	}

	if v, ok := resp.Header("Transfer-Encoding"); ok && strings.EqualFold(strings.TrimSpace(v), "chunked") {
		return c.readChunk()
	}

	return nil, fmt.Errorf("%w: no recognized framing header", ErrUnsupportedEncoding)
}

// readChunk reads one size line and the declared payload plus its trailing
// CR-LF, returning only the payload.
func (c *Client) readChunk() ([]byte, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("%w: bad chunk size %q", ErrProtocol, line)
	}
	buf := make([]byte, size+2)
	if _, err := io.ReadFull(c.br, buf); err != nil {
		return nil, fmt.Errorf("%w: read chunk: %v", ErrConnection, err)
	}
	return buf[:size], nil
}

// readLine accumulates bytes until a CR-LF pair and returns the line
// without its terminator.
func (c *Client) readLine() (string, error) {
	var b strings.Builder
	for {
		ch, err := c.br.ReadByte()
		if err != nil {
			return "", fmt.Errorf("%w: read line: %v", ErrConnection, err)
		}
		if ch == '\n' {
			line := b.String()
			if !strings.HasSuffix(line, "\r") {
				return "", fmt.Errorf("%w: line not CR-LF terminated", ErrProtocol)
			}
			return strings.TrimSuffix(line, "\r"), nil
		}
		b.WriteByte(ch)
	}
}

// Close releases the connection. It must be called exactly once; a second
// call reports ErrConnection instead of touching the socket again.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%w: already closed", ErrConnection)
	}
	c.closed = true
	close(c.done)
	err := c.conn.Close()
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: close: %v", ErrConnection, err)
	}
	return nil
}
