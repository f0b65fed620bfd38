// Package transport carries line-delimited protocol envelopes over a
// full-duplex websocket stream. A text frame on the wire holds exactly one
// JSON envelope, so the websocket's own framing subsumes the
// newline-delimited framing without changing the wire schema: decoding a
// frame's payload is byte-identical to decoding a line read off a raw
// socket.
package transport

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/seekerror/chessd/pkg/chesserr"
)

// ReadTimeout is the per-read idle timeout enforced by Conn.ReadLine:
// a connection that sends nothing for this long is treated as dead.
const ReadTimeout = 30 * time.Second

// upgrader accepts connections from any origin; this server has no
// same-origin browser client to protect against CSRF-style abuse, and
// origin policy is a deployment concern out of scope for this package.
var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Conn wraps a single websocket connection as a line transport: one
// ReadLine/WriteLine call moves exactly one envelope.
type Conn struct {
	ws *websocket.Conn
}

// Upgrade promotes an HTTP request to a websocket connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, chesserr.New(chesserr.IOError, "websocket upgrade: %v", err)
	}
	return &Conn{ws: ws}, nil
}

// Dial connects to a chessd websocket endpoint, for use by test harnesses
// and tooling that speaks the protocol directly.
func Dial(url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, chesserr.New(chesserr.ConnectionLost, "dial %v: %v", url, err)
	}
	return &Conn{ws: ws}, nil
}

// ReadLine blocks for at most ReadTimeout waiting for the next text frame
// and returns its payload. A zero-length payload signals the peer closed
// the stream cleanly; any other error is ConnectionTimeout or
// ConnectionLost depending on cause.
func (c *Conn) ReadLine() ([]byte, error) {
	if err := c.ws.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return nil, chesserr.New(chesserr.IOError, "set read deadline: %v", err)
	}

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, chesserr.New(chesserr.ConnectionTimeout, "read timed out after %v", ReadTimeout)
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			return nil, nil
		}
		return nil, chesserr.New(chesserr.ConnectionLost, "read: %v", err)
	}
	return data, nil
}

// WriteLine writes a single envelope as one text frame.
func (c *Conn) WriteLine(data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return chesserr.New(chesserr.IOError, "set write deadline: %v", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return chesserr.New(chesserr.ConnectionLost, "write: %v", err)
	}
	return nil
}

// Close closes the underlying websocket connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// RemoteAddr returns the peer's network address, used as the session IP.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
