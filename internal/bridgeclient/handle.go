package bridgeclient

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/codefionn/scenelink/internal/config"
	"github.com/codefionn/scenelink/internal/logger"
)

// Handle is a shared, owned connection handle for callers that want to
// issue commands from multiple goroutines. It serializes commands (the
// protocol allows exactly one in flight per connection) and replaces the
// Connection after transport exhaustion under a single lock, so two
// callers never race to create duplicate sockets.
type Handle struct {
	mu   chan struct{} // acquired for the whole command exchange
	cfg  config.BridgeConfig
	conn *Connection
	log  *logger.Logger
}

// NewHandle creates a handle with a fresh, disconnected Connection.
func NewHandle(cfg config.BridgeConfig) *Handle {
	h := &Handle{
		mu:   make(chan struct{}, 1),
		cfg:  cfg,
		conn: New(cfg),
		log:  logger.Global().WithPrefix("bridge"),
	}
	return h
}

// acquire takes the command slot, honoring ctx cancellation while queued
// behind another caller's in-flight command.
func (h *Handle) acquire(ctx context.Context) error {
	select {
	case h.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) release() {
	<-h.mu
}

// SendCommand issues one command through the owned connection. On
// transport exhaustion the connection is discarded and replaced so the
// next caller starts from a clean Disconnected state.
func (h *Handle) SendCommand(ctx context.Context, cmdType string, params map[string]interface{}) (json.RawMessage, error) {
	if err := h.acquire(ctx); err != nil {
		return nil, err
	}
	defer h.release()

	result, err := h.conn.SendCommand(ctx, cmdType, params)
	if err == nil {
		return result, nil
	}

	var exhausted *RetryExhaustedError
	if errors.As(err, &exhausted) {
		h.log.Warn("Replacing bridge connection after failed exchange: %v", err)
		h.conn.Disconnect()
		h.conn = New(h.cfg)
	}

	return nil, err
}

// Close disconnects the underlying connection.
func (h *Handle) Close() {
	if err := h.acquire(context.Background()); err != nil {
		return
	}
	defer h.release()
	h.conn.Disconnect()
}
