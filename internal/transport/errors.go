package transport

import "errors"

// ErrConnection indicates the daemon socket was unreachable, dropped, or
// used after the connection was spent or closed.
var ErrConnection = errors.New("transport: connection error")

// ErrProtocol indicates a malformed status line or header section.
var ErrProtocol = errors.New("transport: protocol error")

// ErrUnsupportedEncoding indicates a response body with neither a
// Content-Length header nor chunked transfer encoding.
var ErrUnsupportedEncoding = errors.New("transport: unsupported body encoding")
