package upgradewire

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/upgrade-dispatcher/internal/upgradewire/wiretest"
)

func TestSteps_LockRestart(t *testing.T) {
	socketPath, daemon := wiretest.Start(t, func(cmd string) string {
		return "ok"
	})
	steps := NewSteps(NewChannel(socketPath))

	err := steps.LockRestart(context.Background(), "028")
	require.NoError(t, err)
	assert.Equal(t, []string{"028 com lock_restart -1"}, daemon.Received())
}

func TestSteps_LockRestart_Err(t *testing.T) {
	socketPath, _ := wiretest.Start(t, func(cmd string) string {
		return "err"
	})
	steps := NewSteps(NewChannel(socketPath, WithBreakerPolicy(BreakerPolicy{})))

	err := steps.LockRestart(context.Background(), "028")
	require.Error(t, err)
}

func TestSteps_Open_RetriesUpToTen(t *testing.T) {
	attempts := 0
	socketPath, daemon := wiretest.Start(t, func(cmd string) string {
		attempts++
		return "err"
	})
	steps := NewSteps(NewChannel(socketPath, WithBreakerPolicy(BreakerPolicy{})))

	err := steps.Open(context.Background(), "039", "test.wpk")
	require.Error(t, err)
	assert.Equal(t, openMaxAttempts, attempts)
	assert.Equal(t, openMaxAttempts, len(daemon.Received()))
	for _, cmd := range daemon.Received() {
		assert.Equal(t, "039 com open wb test.wpk", cmd)
	}
}

func TestSteps_Open_SucceedsOnLaterAttempt(t *testing.T) {
	attempts := 0
	socketPath, _ := wiretest.Start(t, func(cmd string) string {
		attempts++
		if attempts < 3 {
			return "err"
		}
		return "ok"
	})
	steps := NewSteps(NewChannel(socketPath, WithBreakerPolicy(BreakerPolicy{})))

	err := steps.Open(context.Background(), "039", "test.wpk")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestSteps_Write(t *testing.T) {
	socketPath, daemon := wiretest.Start(t, func(cmd string) string { return "ok" })
	steps := NewSteps(NewChannel(socketPath))

	err := steps.Write(context.Background(), "039", 5, "test.wpk", []byte("test\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"039 com write 5 test.wpk test\n"}, daemon.Received())
}

func TestSteps_Sha1(t *testing.T) {
	socketPath, _ := wiretest.Start(t, func(cmd string) string { return "ok d321af253a" })
	steps := NewSteps(NewChannel(socketPath))

	digest, err := steps.Sha1(context.Background(), "033", "test.wpk")
	require.NoError(t, err)
	assert.Equal(t, "d321af253a", digest)
}

func TestSteps_Upgrade(t *testing.T) {
	socketPath, _ := wiretest.Start(t, func(cmd string) string { return "ok 0" })
	steps := NewSteps(NewChannel(socketPath))

	exitCode, err := steps.Upgrade(context.Background(), "111", "test.wpk", "upgrade.sh")
	require.NoError(t, err)
	assert.True(t, UpgradeSucceeded(exitCode))
}

func TestSha1Matches(t *testing.T) {
	assert.True(t, Sha1Matches("D321AF253A", "d321af253a"))
	assert.False(t, Sha1Matches("d321af253a", strings.Repeat("0", 40)))
}
