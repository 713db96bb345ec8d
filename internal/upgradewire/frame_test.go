package upgradewire

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/upgrade-dispatcher/internal/upgradewire/wiretest"
	"github.com/smnsjas/upgrade-dispatcher/upgrade"
)

func TestChannel_Exchange_RoundTrip(t *testing.T) {
	socketPath, daemon := wiretest.Start(t, func(cmd string) string {
		return "ok " + cmd
	})
	ch := NewChannel(socketPath)

	reply, err := ch.Exchange(context.Background(), "028 com lock_restart -1")
	require.NoError(t, err)
	assert.Equal(t, "ok 028 com lock_restart -1", reply)
	assert.Equal(t, []string{"028 com lock_restart -1"}, daemon.Received())
}

func TestChannel_Exchange_ConnectError(t *testing.T) {
	ch := NewChannel("/nonexistent/path/to/socket", WithBreakerPolicy(BreakerPolicy{}))

	_, err := ch.Exchange(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, upgrade.KindConnect, upgrade.ErrorKind(err))
}

func TestChannel_Exchange_ReplyTooLarge(t *testing.T) {
	socketPath, _ := wiretest.Start(t, func(cmd string) string {
		return strings.Repeat("x", maxReplySize+1)
	})
	ch := NewChannel(socketPath)

	_, err := ch.Exchange(context.Background(), "ping")
	require.Error(t, err)
	assert.Equal(t, upgrade.KindRecv, upgrade.ErrorKind(err))
}

func TestResolveSocketPath(t *testing.T) {
	assert.Equal(t, "/queue/ossec/request", ResolveSocketPath("", "/queue/ossec/request"))
	assert.Equal(t, "/chroot/queue/ossec/request", ResolveSocketPath("/chroot", "/queue/ossec/request"))
}

func TestChannel_Exchange_BreakerTripsOnRepeatedConnectFailures(t *testing.T) {
	ch := NewChannel("/nonexistent/path/to/socket", WithBreakerPolicy(BreakerPolicy{
		Enabled:          true,
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	}))

	for i := 0; i < 2; i++ {
		_, err := ch.Exchange(context.Background(), "hello")
		require.Error(t, err)
	}

	_, err := ch.Exchange(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDaemonUnavailable)
}
