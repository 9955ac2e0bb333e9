// Package bridgeclient implements the LLM-side end of the bridge: one TCP
// connection to the host application, with connect-with-retry and
// command-send-with-retry over the trial-parse JSON framing.
package bridgeclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/codefionn/scenelink/internal/config"
	"github.com/codefionn/scenelink/internal/logger"
	"github.com/codefionn/scenelink/internal/protocol"
	"github.com/codefionn/scenelink/internal/socketutil"
)

// recvChunkSize is how much we ask the kernel for per read while
// accumulating a response frame.
const recvChunkSize = 8192

// Connection owns one TCP socket to the host application. It is strict
// request/response: exactly one command in flight at a time. A Connection
// is not safe for concurrent SendCommand callers; serialize externally or
// use a Handle.
type Connection struct {
	host            string
	port            int
	timeout         time.Duration
	connectAttempts int
	commandAttempts int
	backoffBase     time.Duration

	// mu guards conn so Disconnect from an invalidation path never races
	// a concurrent accessor swapping the socket.
	mu   sync.Mutex
	conn net.Conn

	log *logger.Logger
}

// New creates a disconnected Connection from bridge settings.
func New(cfg config.BridgeConfig) *Connection {
	return &Connection{
		host:            cfg.Host,
		port:            cfg.Port,
		timeout:         cfg.SocketTimeout.Std(),
		connectAttempts: cfg.ConnectAttempts,
		commandAttempts: cfg.CommandAttempts,
		backoffBase:     cfg.RetryBackoff.Std(),
		log:             logger.Global().WithPrefix("bridgeclient"),
	}
}

func (c *Connection) addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

func (c *Connection) getConn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Connection) setConn(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// IsConnected reports whether the connection currently holds a socket.
func (c *Connection) IsConnected() bool {
	return c.getConn() != nil
}

// Connect dials the host, retrying transient failures up to the configured
// attempt budget with linear backoff. Holding a live socket already is a
// no-op success.
func (c *Connection) Connect(ctx context.Context) error {
	if c.getConn() != nil {
		return nil
	}

	addr := c.addr()
	var lastErr error

	for attempt := 1; attempt <= c.connectAttempts; attempt++ {
		dialer := net.Dialer{Timeout: c.timeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			c.setConn(conn)
			c.log.Info("Connected to host at %s on attempt %d/%d", addr, attempt, c.connectAttempts)
			return nil
		}

		lastErr = err
		c.log.Warn("Failed to connect to host at %s on attempt %d/%d: %v", addr, attempt, c.connectAttempts, err)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= c.connectAttempts || !socketutil.IsTransient(err) {
			c.log.Error("Giving up on host connection after %d attempts", attempt)
			return lastErr
		}

		if err := c.sleepBackoff(ctx, attempt); err != nil {
			return err
		}
	}

	return lastErr
}

// Disconnect closes and clears the socket. Safe to call when already
// disconnected.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.log.Error("Error disconnecting from host: %v", err)
	}
	c.conn = nil
}

// sleepBackoff waits backoffBase × attempt. The backoff is linear, not
// exponential, to stay wire-compatible in behavior with existing peers.
func (c *Connection) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase * time.Duration(attempt)
	if delay <= 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendCommand sends one command and returns the host's result payload.
// Transient faults and incomplete responses force a disconnect and are
// retried up to the command attempt budget; a domain error from the host
// comes back as *CommandError without any retry; exhaustion returns
// *RetryExhaustedError naming the attempts and last cause. The Connection
// ends Disconnected whenever an attempt failed.
func (c *Connection) SendCommand(ctx context.Context, cmdType string, params map[string]interface{}) (json.RawMessage, error) {
	frame, err := protocol.Encode(protocol.NewCommand(cmdType, params))
	if err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 1; attempt <= c.commandAttempts; attempt++ {
		if c.getConn() == nil {
			if err := c.Connect(ctx); err != nil {
				lastErr = errors.Join(ErrNotConnected, err)
				break
			}
		}

		c.log.Debug("Sending command %q (attempt %d/%d)", cmdType, attempt, c.commandAttempts)

		result, err := c.exchange(ctx, frame)
		if err == nil {
			return result, nil
		}

		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			// Host executed the command and said "error". Not a
			// transport condition; the socket stays usable.
			c.log.Error("Host error for command %q: %s", cmdType, cmdErr.Message)
			return nil, err
		}

		lastErr = err
		c.Disconnect()

		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		if !retryable(err) {
			c.log.Error("Fatal error communicating with host: %v", err)
			break
		}

		c.log.Warn("Transient failure for command %q (attempt %d/%d): %v", cmdType, attempt, c.commandAttempts, err)
		if attempt < c.commandAttempts {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				lastErr = err
				break
			}
		}
	}

	return nil, &RetryExhaustedError{Attempts: c.commandAttempts, Err: lastErr}
}

// retryable reports whether a failed exchange should be retried on a
// fresh connection.
func retryable(err error) bool {
	if errors.Is(err, ErrIncompleteResponse) || errors.Is(err, ErrClosedBeforeData) {
		return true
	}
	return socketutil.IsTransient(err)
}

// exchange writes one command frame and reads back one response frame on
// the current socket.
func (c *Connection) exchange(ctx context.Context, frame []byte) (json.RawMessage, error) {
	conn := c.getConn()
	if conn == nil {
		return nil, ErrNotConnected
	}

	if err := conn.SetWriteDeadline(c.ioDeadline(ctx)); err != nil {
		return nil, err
	}
	if err := writeFull(conn, frame); err != nil {
		return nil, err
	}

	data, err := c.receiveFullResponse(ctx, conn)
	if err != nil {
		return nil, err
	}

	var resp protocol.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ProtocolError{Cause: err}
	}

	// Only "error" is special. Any other status carries the result; hosts
	// emit "success" but older peers answer with other status strings.
	if resp.IsError() {
		msg := resp.Message
		if msg == "" {
			msg = "unknown error from host"
		}
		return nil, &CommandError{Message: msg}
	}

	if resp.Result == nil {
		return json.RawMessage(`{}`), nil
	}
	return resp.Result, nil
}

// ioDeadline is the per-read/write deadline: the socket timeout, capped
// by the context deadline when one is set.
func (c *Connection) ioDeadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}

// writeFull writes the whole frame, looping until done or an error occurs.
func writeFull(conn net.Conn, data []byte) error {
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// receiveFullResponse accumulates chunks until the buffer parses as one
// complete JSON document. A close with nothing buffered is
// ErrClosedBeforeData; a timeout or a close mid-frame is
// ErrIncompleteResponse rather than silently discarded partial data.
func (c *Connection) receiveFullResponse(ctx context.Context, conn net.Conn) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, recvChunkSize)

	for {
		if err := conn.SetReadDeadline(c.ioDeadline(ctx)); err != nil {
			return nil, err
		}

		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if protocol.Complete(buf) {
				c.log.Debug("Received complete response (%d bytes)", len(buf))
				return buf, nil
			}
		}

		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			if len(buf) == 0 {
				return nil, ErrClosedBeforeData
			}
			if protocol.Complete(buf) {
				return buf, nil
			}
			return nil, errors.Join(ErrIncompleteResponse, errors.New("connection closed mid-frame"))
		}

		if socketutil.IsTimeout(err) {
			c.log.Warn("Socket timeout during chunked receive")
			return nil, errors.Join(ErrIncompleteResponse, err)
		}

		return nil, err
	}
}
