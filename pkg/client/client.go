// Package client implements the per-connection duplex message pump: a
// reader goroutine that decodes inbound envelopes and invokes dispatch,
// and a writer goroutine that drains a bounded outbound queue onto the
// wire. The pumps share an idempotent quit signal and atomic activity
// counters; either one exiting tears the connection down.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/protocol"
	"github.com/seekerror/chessd/pkg/transport"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"
)

// OutboundQueueSize bounds how many encoded-but-unsent envelopes a client
// may have queued. A slow reader beyond this is disconnected rather than
// allowed to back up the broadcaster.
const OutboundQueueSize = 256

// Info is a point-in-time snapshot of a client's identity and lifecycle
// state, passed to the dispatch handler so it never needs to reach back
// into the client for state under the connection's own lock.
type Info struct {
	ConnID    string
	SessionID string
	PlayerID  string
	State     State
	IPAddress string
}

// Dispatch handles one decoded inbound envelope and optionally returns a
// response envelope to enqueue back to the same connection. The session
// this connection is bound to (if any) is the dispatcher's responsibility
// to resolve from info.SessionID; the client package has no notion of a
// session.
type Dispatch func(ctx context.Context, env protocol.Envelope, info Info) (*protocol.Envelope, error)

// Client owns one connection's outbound queue and the two pumps that drive
// it. All exported methods are safe for concurrent use.
type Client struct {
	id        string
	ipAddress string
	conn      *transport.Conn
	dispatch  Dispatch
	onClose   func(connID string)

	outbound chan protocol.Envelope
	quit     iox.AsyncCloser
	wg       sync.WaitGroup

	state     atomic.Uint32
	sessionID atomic.String
	playerID  atomic.String

	bytesSent        atomic.Uint64
	bytesReceived    atomic.Uint64
	messagesSent     atomic.Uint64
	messagesReceived atomic.Uint64
	lastActivity     atomic.Int64 // unix millis

	connectedAt time.Time
}

// New returns a client in the Connecting state; call Start to spawn its
// pumps. onClose, if non-nil, fires exactly once after both pumps exit.
func New(id string, conn *transport.Conn, dispatch Dispatch, onClose func(connID string)) *Client {
	c := &Client{
		id:          id,
		ipAddress:   conn.RemoteAddr(),
		conn:        conn,
		dispatch:    dispatch,
		onClose:     onClose,
		outbound:    make(chan protocol.Envelope, OutboundQueueSize),
		quit:        iox.NewAsyncCloser(),
		connectedAt: time.Now(),
	}
	c.state.Store(uint32(Connecting))
	c.touch()
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) State() State { return State(c.state.Load()) }

func (c *Client) setState(s State) { c.state.Store(uint32(s)) }

// SetState forces the client's lifecycle state, for transitions the
// dispatcher drives directly (e.g. into InGame once a game is joined).
func (c *Client) SetState(s State) { c.setState(s) }

// CompareAndSetState atomically transitions the client from from to to,
// reporting whether it applied. Used to guard disconnect races between the
// two pumps.
func (c *Client) CompareAndSetState(from, to State) bool {
	return c.state.CAS(uint32(from), uint32(to))
}

// IPAddress returns the connection's remote network address, captured at
// accept time.
func (c *Client) IPAddress() string { return c.ipAddress }

func (c *Client) SessionID() string { return c.sessionID.Load() }
func (c *Client) PlayerID() string  { return c.playerID.Load() }

// BindSession associates this connection with a session id.
func (c *Client) BindSession(sessionID string) { c.sessionID.Store(sessionID) }

// BindPlayer associates this connection with a player id, and advances the
// connection's state to Authenticated if it was merely Connected.
func (c *Client) BindPlayer(playerID string) {
	c.playerID.Store(playerID)
	c.CompareAndSetState(Connected, Authenticated)
}

func (c *Client) touch() { c.lastActivity.Store(time.Now().UnixMilli()) }

// LastActivity returns the time of the client's last send or receive.
func (c *Client) LastActivity() time.Time {
	return time.UnixMilli(c.lastActivity.Load())
}

func (c *Client) ConnectedAt() time.Time { return c.connectedAt }

// Snapshot returns the client's current Info.
func (c *Client) Snapshot() Info {
	return Info{
		ConnID:    c.id,
		SessionID: c.SessionID(),
		PlayerID:  c.PlayerID(),
		State:     c.State(),
		IPAddress: c.ipAddress,
	}
}

// Counters is a point-in-time view of a client's traffic counters.
type Counters struct {
	BytesSent        uint64
	BytesReceived    uint64
	MessagesSent     uint64
	MessagesReceived uint64
}

func (c *Client) Counters() Counters {
	return Counters{
		BytesSent:        c.bytesSent.Load(),
		BytesReceived:    c.bytesReceived.Load(),
		MessagesSent:     c.messagesSent.Load(),
		MessagesReceived: c.messagesReceived.Load(),
	}
}

// Start spawns the reader and writer pumps. It returns immediately; callers
// observe completion through onClose (passed to New) or Closed().
func (c *Client) Start(ctx context.Context) {
	c.CompareAndSetState(Connecting, Connected)

	c.wg.Add(2)
	go c.readPump(ctx)
	go c.writePump(ctx)

	go func() {
		c.wg.Wait()
		c.setState(Disconnected)
		if c.onClose != nil {
			c.onClose(c.id)
		}
	}()
}

// Closed reports a channel closed once the connection's quit signal fires:
// when either pump exits or Disconnect is called. The other pump may still
// be winding down at that point; onClose fires after both have exited.
func (c *Client) Closed() <-chan struct{} {
	return c.quit.Closed()
}

// Enqueue attempts a non-blocking send of env to the outbound queue. A full
// queue (a slow or stuck client) fails the enqueue with ConnectionLost and
// transitions the client toward disconnection rather than blocking the
// caller, which may hold a manager lock.
func (c *Client) Enqueue(env protocol.Envelope) error {
	select {
	case c.outbound <- env:
		return nil
	default:
		c.setState(Disconnecting)
		return chesserr.New(chesserr.ConnectionLost, "outbound queue full for connection %v", c.id)
	}
}

// Disconnect requests the client's pumps to shut down and the underlying
// socket to close.
func (c *Client) Disconnect() {
	c.setState(Disconnecting)
	c.quit.Close()
	_ = c.conn.Close()
}

func (c *Client) readPump(ctx context.Context) {
	defer c.wg.Done()
	defer c.quit.Close()
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case <-c.quit.Closed():
			return
		default:
		}

		data, err := c.conn.ReadLine()
		if err != nil {
			logw.Debugf(ctx, "connection %v: read failed: %v", c.id, err)
			return
		}
		if len(data) == 0 {
			logw.Debugf(ctx, "connection %v: peer closed", c.id)
			return
		}

		c.bytesReceived.Add(uint64(len(data)))
		c.messagesReceived.Inc()
		c.touch()

		env, err := protocol.Decode(data)
		if err != nil {
			cerr, ok := chesserr.As(err)
			if !ok {
				cerr = chesserr.New(chesserr.InvalidMessage, "%v", err)
			}
			_ = c.Enqueue(protocol.ErrorEnvelope(cerr, nowMillis(), ""))
			continue
		}

		resp, err := c.dispatch(ctx, env, c.Snapshot())
		if err != nil {
			cerr, ok := chesserr.As(err)
			if !ok {
				cerr = chesserr.New(chesserr.InternalError, "%v", err)
			}
			_ = c.Enqueue(protocol.ErrorEnvelope(cerr, nowMillis(), env.ID))
			continue
		}
		if resp != nil {
			if err := c.Enqueue(*resp); err != nil {
				logw.Warningf(ctx, "connection %v: %v", c.id, err)
			}
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	defer c.wg.Done()
	defer c.quit.Close()

	for {
		select {
		case env, ok := <-c.outbound:
			if !ok {
				return
			}
			data, err := env.Encode()
			if err != nil {
				logw.Errorf(ctx, "connection %v: encode outbound: %v", c.id, err)
				continue
			}
			if err := c.conn.WriteLine(data); err != nil {
				logw.Debugf(ctx, "connection %v: write failed: %v", c.id, err)
				return
			}
			c.bytesSent.Add(uint64(len(data)))
			c.messagesSent.Inc()
			c.touch()

		case <-c.quit.Closed():
			return
		}
	}
}

func nowMillis() int64 { return time.Now().UnixMilli() }
