package bridgeclient

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/codefionn/scenelink/internal/protocol"
)

func TestHandleSerializesCallers(t *testing.T) {
	ln := listen(t)

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				for {
					var buf []byte
					chunk := make([]byte, 4096)
					conn.SetReadDeadline(time.Now().Add(2 * time.Second))
					for {
						n, err := conn.Read(chunk)
						if err != nil {
							return
						}
						buf = append(buf, chunk[:n]...)
						if protocol.Complete(buf) {
							break
						}
					}

					mu.Lock()
					inFlight++
					if inFlight > maxInFlight {
						maxInFlight = inFlight
					}
					mu.Unlock()

					time.Sleep(20 * time.Millisecond)

					mu.Lock()
					inFlight--
					mu.Unlock()

					frame, _ := protocol.Encode(protocol.Success(nil))
					if _, err := conn.Write(frame); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	h := NewHandle(testBridgeConfig(ln.Addr().String()))
	defer h.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.SendCommand(context.Background(), "ping", nil); err != nil {
				t.Errorf("SendCommand failed: %v", err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if maxInFlight > 1 {
		t.Errorf("expected at most one command in flight, saw %d", maxInFlight)
	}
}

func TestHandleReplacesConnectionAfterExhaustion(t *testing.T) {
	// No listener at all: every attempt is refused.
	ln := listen(t)
	addr := ln.Addr().String()
	ln.Close()

	h := NewHandle(testBridgeConfig(addr))
	defer h.Close()

	_, err := h.SendCommand(context.Background(), "ping", nil)
	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}

	// Bring a host up on the same address and verify the handle recovers
	// with a fresh connection.
	ln2, err := net.Listen("tcp", addr)
	if err != nil {
		t.Skipf("could not rebind %s: %v", addr, err)
	}
	defer ln2.Close()

	go func() {
		conn, err := ln2.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		readCommand(t, conn)
		frame, _ := protocol.Encode(protocol.Success(nil))
		conn.Write(frame)
	}()

	if _, err := h.SendCommand(context.Background(), "ping", nil); err != nil {
		t.Fatalf("handle did not recover after replacement: %v", err)
	}
}
