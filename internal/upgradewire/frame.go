package upgradewire

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/smnsjas/upgrade-dispatcher/upgrade"
)

// DefaultSocketPath is the well-known local stream socket the
// remote-forwarding daemon listens on, per spec.md §6.
const DefaultSocketPath = "/queue/ossec/request"

// maxReplySize caps a reply frame, the Go analogue of the original
// OS_MAXSTR guard the remote-forwarding daemon enforces on its own reads.
const maxReplySize = 6144

// ErrReplyTooLarge is returned when the remote reply's declared length
// exceeds maxReplySize.
var ErrReplyTooLarge = errors.New("upgradewire: reply exceeds maximum frame size")

// ResolveSocketPath joins path under chrootDir when the manager process is
// chrooted, or returns path unchanged otherwise, per spec.md §4.1.
func ResolveSocketPath(chrootDir, path string) string {
	if chrootDir == "" {
		return path
	}
	return filepath.Join(chrootDir, path)
}

// Channel is a bidirectional connection factory to the remote-request
// daemon: one connect/send/recv/close cycle per Exchange call, deliberately
// stateless (spec.md §4.1 rationale: the daemon keeps no session state the
// manager relies on, so per-call connections simplify failure recovery).
type Channel struct {
	socketPath  string
	dialTimeout time.Duration
	logger      *slog.Logger
	breaker     *breaker
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithDialTimeout bounds how long a single connect attempt may block.
func WithDialTimeout(d time.Duration) ChannelOption {
	return func(c *Channel) { c.dialTimeout = d }
}

// WithLogger overrides the default slog.Default() sink.
func WithLogger(l *slog.Logger) ChannelOption {
	return func(c *Channel) { c.logger = l }
}

// WithBreakerPolicy overrides the default circuit-breaker policy guarding
// the daemon connection.
func WithBreakerPolicy(p BreakerPolicy) ChannelOption {
	return func(c *Channel) { c.breaker = newBreaker(p) }
}

// NewChannel creates a Channel bound to socketPath.
func NewChannel(socketPath string, opts ...ChannelOption) *Channel {
	c := &Channel{
		socketPath:  socketPath,
		dialTimeout: 5 * time.Second,
		logger:      slog.Default(),
		breaker:     newBreaker(DefaultBreakerPolicy()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exchange sends msg as a length-prefixed frame on a fresh connection and
// blocks for one length-prefixed reply, per spec.md §4.1 and §6. Every call
// emits a debug trace for both the outgoing message and the incoming reply,
// tagged with a correlation id so the two lines can be joined without the
// wire format itself carrying one.
func (c *Channel) Exchange(ctx context.Context, msg string) (string, error) {
	corrID := uuid.NewString()
	c.logger.Debug("upgradewire: sending message", "correlation_id", corrID, "wpk_command", msg)

	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := writeFrame(conn, msg); err != nil {
		return "", upgrade.NewError(upgrade.KindSend, err)
	}

	reply, err := readFrame(conn)
	if err != nil {
		return "", err
	}

	c.logger.Debug("upgradewire: received reply", "correlation_id", corrID, "wpk_reply", reply)
	return reply, nil
}

// dial opens the connection, routed through the circuit breaker: only dial
// failures count against the breaker's threshold, since a send/recv failure
// on an already-established connection says nothing about whether the next
// dial will succeed.
func (c *Channel) dial(ctx context.Context) (net.Conn, error) {
	var conn net.Conn
	err := c.breaker.execute(func() error {
		dialer := net.Dialer{Timeout: c.dialTimeout}
		d, dialErr := dialer.DialContext(ctx, "unix", c.socketPath)
		if dialErr != nil {
			return dialErr
		}
		conn = d
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDaemonUnavailable) {
			return nil, upgrade.NewError(upgrade.KindConnect, err)
		}
		return nil, upgrade.NewError(upgrade.KindConnect, err)
	}
	return conn, nil
}

func writeFrame(w io.Writer, msg string) error {
	payload := []byte(msg)
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", upgrade.NewError(upgrade.KindRecv, err)
	}
	replyLen := binary.BigEndian.Uint32(lenBuf[:])
	if replyLen > maxReplySize {
		return "", upgrade.NewError(upgrade.KindRecv, ErrReplyTooLarge)
	}
	buf := make([]byte, replyLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", upgrade.NewError(upgrade.KindRecv, err)
	}
	return string(buf), nil
}
