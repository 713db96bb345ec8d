package upgrade

import (
	"context"
	"fmt"
	"strings"
)

// ProtocolSteps is the subset of internal/upgradewire.Steps the orchestrator
// depends on. Expressed as an interface here so the orchestrator never
// imports the wire-level package, and so tests can inject a fake.
type ProtocolSteps interface {
	LockRestart(ctx context.Context, agentID3 string) error
	Open(ctx context.Context, agentID3, remoteFile string) error
	Write(ctx context.Context, agentID3 string, n int, remoteFile string, chunk []byte) error
	Close(ctx context.Context, agentID3, remoteFile string) error
	Sha1(ctx context.Context, agentID3, remoteFile string) (string, error)
	Upgrade(ctx context.Context, agentID3, remoteFile, installer string) (string, error)
}

// Orchestrator drives the seven-step protocol for one agent (spec.md §4.5):
// pre-flight validation, then lock_restart, open, write*, close, sha1,
// upgrade, strictly in order with abort-on-failure.
type Orchestrator struct {
	Config          Config
	Steps           ProtocolSteps
	WpkValidator    WpkValidator
	CustomValidator CustomValidator
}

// Run executes the full protocol for req and returns its terminal Outcome.
// It never panics on a missing file handle: the streamer closes on every
// exit path, including write failure.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	if err := req.Task.Validate(); err != nil {
		return Failure(StageValidate, err)
	}

	expectedSha1, installer, err := o.preflight(ctx, req)
	if err != nil {
		return Failure(StageValidate, err)
	}

	agentID3 := req.AgentID3()
	localPath, remoteFile := RemotePathFor(o.Config, req.Task)

	if err := o.Steps.LockRestart(ctx, agentID3); err != nil {
		return Failure(StageLockRestart, NewError(KindSendLockRestartError, err))
	}

	if err := o.Steps.Open(ctx, agentID3, remoteFile); err != nil {
		return Failure(StageOpen, NewError(KindSendOpenError, err))
	}

	if err := o.streamChunks(ctx, agentID3, remoteFile, localPath); err != nil {
		// Design Notes: on a write failure, abort without sending close and
		// release the local file handle (already done by streamChunks).
		return Failure(StageWrite, NewError(KindSendWriteError, err))
	}

	if err := o.Steps.Close(ctx, agentID3, remoteFile); err != nil {
		return Failure(StageClose, NewError(KindSendCloseError, err))
	}

	digest, err := o.Steps.Sha1(ctx, agentID3, remoteFile)
	if err != nil {
		return Failure(StageSha1, NewError(KindSendSha1Error, err))
	}
	if !sha1Matches(expectedSha1, digest) {
		mismatch := fmt.Errorf("%w: expected %s, agent reported %s", ErrSha1Mismatch, expectedSha1, digest)
		return Failure(StageSha1, NewError(KindSendSha1Error, mismatch))
	}

	exitCode, err := o.Steps.Upgrade(ctx, agentID3, remoteFile, installer)
	if err != nil {
		return Failure(StageUpgrade, NewError(KindSendUpgradeError, err))
	}
	if !upgradeSucceeded(exitCode) {
		scriptErr := fmt.Errorf("agent upgrade script exited with code %s", exitCode)
		return Failure(StageUpgrade, NewError(KindSendUpgradeError, scriptErr))
	}

	return Success()
}

// preflight validates the task via the appropriate external validator and
// resolves the expected sha1 digest and installer name for step 6, per
// spec.md §4.5.
func (o *Orchestrator) preflight(ctx context.Context, req Request) (expectedSha1, installer string, err error) {
	if req.Task.Standard != nil {
		validation, vErr := o.WpkValidator.ValidateWpk(ctx, o.Config, *req.Task.Standard)
		if vErr != nil {
			return "", "", vErr
		}
		return validation.ExpectedSha1, DefaultInstaller(req.Platform), nil
	}

	validation, vErr := o.CustomValidator.ValidateCustom(ctx, req.Platform, *req.Task.Custom)
	if vErr != nil {
		return "", "", vErr
	}
	resolvedInstaller := validation.Installer
	if resolvedInstaller == "" {
		resolvedInstaller = DefaultInstaller(req.Platform)
	}
	return validation.ExpectedSha1, resolvedInstaller, nil
}

// streamChunks reads localPath in Config.ChunkSize pieces and issues one
// Write step per non-empty chunk, releasing the streamer's file handle on
// every exit path.
func (o *Orchestrator) streamChunks(ctx context.Context, agentID3, remoteFile, localPath string) error {
	streamer, err := NewStreamer(localPath, remoteFile, o.Config.ChunkSize)
	if err != nil {
		return err
	}
	defer streamer.Close()

	for {
		chunk, err := streamer.NextChunk()
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		if err := o.Steps.Write(ctx, agentID3, len(chunk), remoteFile, chunk); err != nil {
			return err
		}
	}
}

func sha1Matches(expected, actual string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(actual))
}

func upgradeSucceeded(payload string) bool {
	return strings.TrimSpace(payload) == "0"
}
