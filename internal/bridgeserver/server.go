// Package bridgeserver implements the host side of the bridge: a TCP
// listener accepting LLM clients, one worker goroutine per connection, and
// dispatch of every decoded command onto the host's single execution loop.
// Transport concurrency never implies domain concurrency.
package bridgeserver

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/codefionn/scenelink/internal/config"
	"github.com/codefionn/scenelink/internal/logger"
	"github.com/codefionn/scenelink/internal/metrics"
	"github.com/codefionn/scenelink/internal/runloop"
	"github.com/codefionn/scenelink/internal/socketutil"
)

const (
	// acceptPollInterval bounds how long the accept loop can sit in
	// Accept before re-checking the running flag.
	acceptPollInterval = 1 * time.Second

	// acceptErrorBackoff is the pause after a non-timeout accept error.
	acceptErrorBackoff = 500 * time.Millisecond

	// listenerJoinTimeout and workerJoinTimeout bound shutdown. A hung
	// worker must not prevent Stop from completing.
	listenerJoinTimeout = 2 * time.Second
	workerJoinTimeout   = 1 * time.Second
)

// Server accepts bridge clients and feeds their commands to the command
// executor through the run loop.
type Server struct {
	cfg      config.BridgeConfig
	registry *Registry

	loop       *runloop.Loop
	ownsLoop   bool
	dispatcher *runloop.Dispatcher

	listener     net.Listener
	listenerDone chan struct{}

	mu      sync.Mutex
	running bool

	stopChan chan struct{}
	stopOnce sync.Once

	log *logger.Logger
}

// NewServer creates a server executing commands on loop. A nil loop means
// the server owns a private one, for hosts without an existing
// single-threaded execution context.
func NewServer(cfg config.BridgeConfig, loop *runloop.Loop, executor runloop.Executor) *Server {
	ownsLoop := false
	if loop == nil {
		loop = runloop.New(0)
		ownsLoop = true
	}

	return &Server{
		cfg:          cfg,
		registry:     NewRegistry(),
		loop:         loop,
		ownsLoop:     ownsLoop,
		dispatcher:   runloop.NewDispatcher(loop, executor),
		listenerDone: make(chan struct{}),
		stopChan:     make(chan struct{}),
		log:          logger.Global().WithPrefix("bridgeserver"),
	}
}

// Start binds the listener and spawns the accept loop.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = listener

	if s.ownsLoop {
		s.loop.Start()
	}

	go s.acceptLoop()

	s.log.Info("Bridge server started on %s", listener.Addr())
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SessionCount returns the number of live client sessions.
func (s *Server) SessionCount() int {
	return s.registry.Len()
}

// acceptLoop accepts clients until stopped, polling the running flag via
// an accept deadline.
func (s *Server) acceptLoop() {
	defer close(s.listenerDone)

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		if tcp, ok := s.listener.(*net.TCPListener); ok {
			tcp.SetDeadline(time.Now().Add(acceptPollInterval))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if socketutil.IsTimeout(err) {
				continue
			}
			if socketutil.IsClosed(err) {
				s.log.Info("Listener closed, exiting accept loop")
				return
			}
			s.log.Error("Error accepting connection: %v", err)
			metrics.AcceptErrors.Inc()
			time.Sleep(acceptErrorBackoff)
			continue
		}

		sess := s.registry.Register(conn)

		// A connection accepted while Stop runs may have been registered
		// after Stop snapshotted the sessions; it would never be closed or
		// joined. Re-check and tear it down here instead of spawning it.
		select {
		case <-s.stopChan:
			conn.Close()
			s.registry.Unregister(sess.ID)
			close(sess.done)
			return
		default:
		}

		metrics.ClientsConnected.Inc()
		s.log.Info("Client connected: %s (%s)", sess.ID, conn.RemoteAddr())

		go s.handleClient(sess)
	}
}

// Stop shuts the server down cooperatively: flip the flag, close the
// listener and every client socket to unblock blocked calls, then join
// the listener and workers with bounded timeouts.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("Stopping bridge server...")

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		close(s.stopChan)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				s.log.Error("Error closing listener: %v", err)
			}
		}

		// Snapshot under the registry lock, close and join outside it.
		sessions := s.registry.Snapshot()
		for _, sess := range sessions {
			if err := sess.Conn.Close(); err != nil && !socketutil.IsClosed(err) {
				s.log.Debug("Error closing client socket %s: %v", sess.ID, err)
			}
		}

		select {
		case <-s.listenerDone:
		case <-time.After(listenerJoinTimeout):
			s.log.Warn("Listener did not exit within %v", listenerJoinTimeout)
		}

		for _, sess := range sessions {
			select {
			case <-sess.Done():
			case <-time.After(workerJoinTimeout):
				s.log.Warn("Worker %s did not exit within %v", sess.ID, workerJoinTimeout)
			}
		}

		s.registry.Clear()

		if s.ownsLoop {
			s.loop.Stop(listenerJoinTimeout)
		}

		s.log.Info("Bridge server stopped")
	})
}
