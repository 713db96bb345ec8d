package upgradewire

import (
	"context"
	"fmt"
	"strings"
)

// openMaxAttempts is the total number of "open" attempts (1 initial + 9
// retries), a named constant per spec.md §4.3 and the Design Notes. The
// original implementation's test suite pins this at exactly 10
// (expect_value_count(..., 10) in test_wm_agent_upgrade_upgrades.c).
const openMaxAttempts = 10

// Steps executes the six one-shot protocol operations over a Channel,
// formatting each command per the wire grammar in spec.md §6 and
// interpreting the reply via Parse.
type Steps struct {
	ch *Channel
}

// NewSteps wraps a Channel with the protocol step primitives.
func NewSteps(ch *Channel) *Steps {
	return &Steps{ch: ch}
}

// LockRestart sends "<id3> com lock_restart -1". No retry.
func (s *Steps) LockRestart(ctx context.Context, agentID3 string) error {
	reply, err := s.ch.Exchange(ctx, agentID3+" com lock_restart -1")
	if err != nil {
		return err
	}
	_, err = Parse(reply)
	return err
}

// Open sends "<id3> com open wb <remoteFile>", making up to openMaxAttempts
// attempts in total, with no backoff, retrying on any Err reply or
// transport error (spec.md §4.3:
// "open is the only step observed to race with agent-local file-handle
// churn"). It returns the last error seen if every attempt fails.
func (s *Steps) Open(ctx context.Context, agentID3, remoteFile string) error {
	msg := agentID3 + " com open wb " + remoteFile

	var lastErr error
	for attempt := 1; attempt <= openMaxAttempts; attempt++ {
		reply, err := s.ch.Exchange(ctx, msg)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := Parse(reply); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// Write sends "<id3> com write <n> <remoteFile> <chunk>". No retry. chunk
// may contain arbitrary bytes, including spaces and newlines; it is always
// the final token on the wire so no escaping is needed.
func (s *Steps) Write(ctx context.Context, agentID3 string, n int, remoteFile string, chunk []byte) error {
	msg := fmt.Sprintf("%s com write %d %s %s", agentID3, n, remoteFile, chunk)
	reply, err := s.ch.Exchange(ctx, msg)
	if err != nil {
		return err
	}
	_, err = Parse(reply)
	return err
}

// Close sends "<id3> com close <remoteFile>". No retry.
func (s *Steps) Close(ctx context.Context, agentID3, remoteFile string) error {
	reply, err := s.ch.Exchange(ctx, agentID3+" com close "+remoteFile)
	if err != nil {
		return err
	}
	_, err = Parse(reply)
	return err
}

// Sha1 sends "<id3> com sha1 <remoteFile>" and returns the digest payload
// on success.
func (s *Steps) Sha1(ctx context.Context, agentID3, remoteFile string) (string, error) {
	reply, err := s.ch.Exchange(ctx, agentID3+" com sha1 "+remoteFile)
	if err != nil {
		return "", err
	}
	parsed, err := Parse(reply)
	if err != nil {
		return "", err
	}
	return parsed.Payload, nil
}

// Upgrade sends "<id3> com upgrade <remoteFile> <installer>" and returns
// the exit-code payload on success.
func (s *Steps) Upgrade(ctx context.Context, agentID3, remoteFile, installer string) (string, error) {
	reply, err := s.ch.Exchange(ctx, agentID3+" com upgrade "+remoteFile+" "+installer)
	if err != nil {
		return "", err
	}
	parsed, err := Parse(reply)
	if err != nil {
		return "", err
	}
	return parsed.Payload, nil
}

// Sha1Matches compares two hex digests case-insensitively, per spec.md
// §4.3's correctness gate.
func Sha1Matches(expected, actual string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(actual))
}

// UpgradeSucceeded reports whether the "upgrade" step's exit-code payload
// indicates success ("0").
func UpgradeSucceeded(payload string) bool {
	return strings.TrimSpace(payload) == "0"
}
