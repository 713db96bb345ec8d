// Package wiretest provides a fake remote-forwarding daemon, speaking the
// same length-prefixed framing as the real one, for exercising
// internal/upgradewire and the orchestrator without a live agent.
package wiretest

import (
	"encoding/binary"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
)

// Daemon is an in-process stand-in for the remote-forwarding daemon. It
// accepts one connection per exchange, exactly like the real socket
// contract, and hands each received command to a caller-supplied handler.
type Daemon struct {
	t  testing.TB
	ln net.Listener

	mu       sync.Mutex
	received []string
}

// Start listens on a fresh Unix domain socket under a temp directory and
// returns its path plus the running Daemon. The daemon is closed
// automatically at test cleanup.
func Start(t testing.TB, handler func(command string) string) (string, *Daemon) {
	t.Helper()

	dir := t.TempDir()
	socketPath := filepath.Join(dir, "request")

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("wiretest: listen: %v", err)
	}

	d := &Daemon{t: t, ln: ln}
	t.Cleanup(func() { _ = ln.Close() })

	go d.serve(handler)

	return socketPath, d
}

func (d *Daemon) serve(handler func(string) string) {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		go d.handleOne(conn, handler)
	}
}

func (d *Daemon) handleOne(conn net.Conn, handler func(string) string) {
	defer conn.Close()

	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return
	}

	d.mu.Lock()
	d.received = append(d.received, string(payload))
	d.mu.Unlock()

	reply := handler(string(payload))

	replyBytes := []byte(reply)
	var replyLen [4]byte
	binary.BigEndian.PutUint32(replyLen[:], uint32(len(replyBytes)))
	if _, err := conn.Write(replyLen[:]); err != nil {
		return
	}
	_, _ = conn.Write(replyBytes)
}

// Received returns every command observed so far, in arrival order.
func (d *Daemon) Received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.received))
	copy(out, d.received)
	return out
}
