package runloop

import (
	"github.com/codefionn/scenelink/internal/logger"
	"github.com/codefionn/scenelink/internal/metrics"
	"github.com/codefionn/scenelink/internal/protocol"
)

// Executor performs the actual domain operation for a decoded command. It
// is registered once at host startup. Expected domain failures should come
// back as error responses rather than panics, but the dispatcher recovers
// panics anyway.
type Executor interface {
	Execute(cmd *protocol.Command) *protocol.Response
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(cmd *protocol.Command) *protocol.Response

// Execute implements Executor.
func (f ExecutorFunc) Execute(cmd *protocol.Command) *protocol.Response {
	return f(cmd)
}

// Dispatcher moves decoded commands from connection workers onto the run
// loop and routes the encoded response back to the originating socket.
type Dispatcher struct {
	loop     *Loop
	executor Executor
}

// NewDispatcher creates a dispatcher bound to the given loop and executor.
func NewDispatcher(loop *Loop, executor Executor) *Dispatcher {
	return &Dispatcher{
		loop:     loop,
		executor: executor,
	}
}

// Dispatch enqueues execution of cmd. respond writes the encoded response
// frame to the originating client socket; a failed write is logged and
// swallowed, it must never take down the loop.
func (d *Dispatcher) Dispatch(cmd *protocol.Command, respond func([]byte) error) error {
	return d.loop.Schedule(func() {
		resp := d.execute(cmd)
		metrics.CommandsExecuted.Inc()
		if resp.IsError() {
			metrics.ExecutorErrors.Inc()
		}

		data, err := protocol.Encode(resp)
		if err != nil {
			logger.Error("Failed to encode response for command %q: %v", cmd.Type, err)
			data, _ = protocol.Encode(protocol.Errorf("failed to encode response: %v", err))
		}

		if err := respond(data); err != nil {
			logger.Debug("Failed to send response for command %q, client gone: %v", cmd.Type, err)
			metrics.ResponseSendErrors.Inc()
			return
		}
		metrics.ResponsesSent.Inc()
	})
}

// execute runs the command, converting a missing executor or a panic into
// an error response.
func (d *Dispatcher) execute(cmd *protocol.Command) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Command %q panicked: %v", cmd.Type, r)
			resp = protocol.Errorf("%v", r)
		}
	}()

	if d.executor == nil {
		return protocol.Errorf("no command executor configured")
	}

	resp = d.executor.Execute(cmd)
	if resp == nil {
		return protocol.Errorf("executor returned no response for command %q", cmd.Type)
	}
	if err := resp.Validate(); err != nil {
		return protocol.Errorf("executor returned invalid response: %v", err)
	}
	return resp
}
