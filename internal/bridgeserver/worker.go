package bridgeserver

import (
	"errors"
	"io"
	"time"

	"github.com/codefionn/scenelink/internal/metrics"
	"github.com/codefionn/scenelink/internal/protocol"
	"github.com/codefionn/scenelink/internal/socketutil"
)

// recvChunkSize is the per-read buffer for accumulating command frames.
const recvChunkSize = 8192

// handleClient is the per-connection worker: accumulate bytes, detect
// frame completion by trial parse, dispatch the decoded command onto the
// run loop with a respond callback bound to this socket, and keep reading
// immediately. The worker never blocks on command execution.
func (s *Server) handleClient(sess *Session) {
	defer func() {
		metrics.HandlerDuration.Observe(time.Since(sess.Started).Seconds())
		metrics.ClientsDisconnected.Inc()

		if err := sess.Conn.Close(); err != nil && !socketutil.IsClosed(err) {
			s.log.Debug("Error closing client connection %s: %v", sess.ID, err)
		}
		s.registry.Unregister(sess.ID)
		close(sess.done)
		s.log.Info("Client handler stopped: %s", sess.ID)
	}()

	clientTimeout := s.cfg.ClientTimeout.Std()
	var buffer []byte
	chunk := make([]byte, recvChunkSize)

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		sess.Conn.SetReadDeadline(time.Now().Add(clientTimeout))
		n, err := sess.Conn.Read(chunk)

		if n > 0 {
			buffer = append(buffer, chunk[:n]...)

			var cmd protocol.Command
			complete, decodeErr := protocol.TryDecode(buffer, &cmd)
			if complete {
				buffer = nil

				if decodeErr != nil {
					// Complete JSON that is not a command document.
					// Answer on the transport level; domain state is
					// never touched.
					s.log.Warn("Client %s sent a malformed command: %v", sess.ID, decodeErr)
					s.respond(sess, mustEncode(protocol.Errorf("invalid command: %v", decodeErr)))
				} else {
					s.dispatchCommand(sess, &cmd)
				}
			}
		}

		if err == nil {
			continue
		}

		switch {
		case socketutil.IsTimeout(err):
			// Idle client; just re-check running and keep waiting.
			continue
		case errors.Is(err, io.EOF):
			s.log.Info("Client disconnected: %s", sess.ID)
			return
		case socketutil.IsClosed(err):
			return
		default:
			s.log.Debug("Error receiving from client %s: %v", sess.ID, err)
			return
		}
	}
}

// dispatchCommand hands the command to the run loop. The respond callback
// writes back to this worker's socket; a full task queue is reported to
// the client as an error response rather than dropped.
func (s *Server) dispatchCommand(sess *Session, cmd *protocol.Command) {
	s.log.Debug("Dispatching command %q from client %s", cmd.Type, sess.ID)

	err := s.dispatcher.Dispatch(cmd, func(data []byte) error {
		return s.respond(sess, data)
	})
	if err != nil {
		s.log.Error("Failed to dispatch command %q: %v", cmd.Type, err)
		s.respond(sess, mustEncode(protocol.Errorf("host is not accepting commands: %v", err)))
	}
}

// respond writes one response frame to the session's socket. Writes are
// serialized per session because the run loop and the worker's transport
// error path may both produce frames.
func (s *Server) respond(sess *Session, data []byte) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	sess.Conn.SetWriteDeadline(time.Now().Add(s.cfg.SocketTimeout.Std()))
	for len(data) > 0 {
		n, err := sess.Conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// mustEncode encodes a response the server itself built; these cannot
// fail to marshal.
func mustEncode(resp *protocol.Response) []byte {
	data, err := protocol.Encode(resp)
	if err != nil {
		return []byte(`{"status":"error","message":"internal encoding failure"}`)
	}
	return data
}
