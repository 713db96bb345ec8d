package tasktracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smnsjas/upgrade-dispatcher/internal/semverlite"
	"github.com/smnsjas/upgrade-dispatcher/upgrade"
)

// Client is the external collaborator that actually delivers a
// StatusUpdateRequest and parses its response — out of scope per spec.md
// §1 ("task-tracker JSON request/response wire format"). Reporter only
// builds the request and interprets the response's Error field.
type Client interface {
	Submit(ctx context.Context, req StatusUpdateRequest) (StatusUpdateResponse, error)
}

// newUpgradeMechanismVersion is the minimum agent version that understands
// upgrade_update_status, mirroring the original's
// WM_UPGRADE_NEW_UPGRADE_MECHANISM (spec.md Supplemented Features).
var newUpgradeMechanismVersion = semverlite.Parse("v4.0.0")

// stageMessages maps a failed Stage to the fixed human string the task
// tracker's dashboard expects, taken verbatim from
// original_source/.../test_wm_agent_upgrade_upgrades.c where available.
var stageMessages = map[upgrade.Stage]string{
	upgrade.StageValidate:    "WPK validation error.",
	upgrade.StageLockRestart: "Send lock restart error.",
	upgrade.StageOpen:        "Send open error.",
	upgrade.StageWrite:       "Send write error.",
	upgrade.StageClose:       "Send close error.",
	upgrade.StageSha1:        "Send sha1 error.",
	upgrade.StageUpgrade:     "Send upgrade error.",
}

// sha1MismatchMessage overrides stageMessages[StageSha1] specifically for a
// failed correctness check, as distinct from a transport error on the same
// stage (spec.md §4.3, §7).
const sha1MismatchMessage = "The SHA1 of the file doesn't match in the agent."

// Reporter builds and submits terminal status updates for one upgrade
// attempt (spec.md §4.7). It is the only consumer of upgrade.Outcome.
type Reporter struct {
	client Client
	logger *slog.Logger
}

// NewReporter builds a Reporter. If logger is nil, slog.Default() is used.
func NewReporter(client Client, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{client: client, logger: logger}
}

// Report sends the primary status update for outcome, then, if the agent's
// reported version is below the new-mechanism threshold, a second update
// with status Legacy (spec.md §4.7).
func (r *Reporter) Report(ctx context.Context, req upgrade.Request, outcome upgrade.Outcome) error {
	primary := StatusUpdateRequest{
		Module:  moduleUpgrade,
		Command: commandUpdateStat,
		Agent:   req.AgentID,
	}
	if outcome.Failed {
		primary.Status = StatusFailed
		primary.ErrorMsg = messageFor(outcome)
	} else {
		primary.Status = StatusInProgress
	}

	resp, err := r.client.Submit(ctx, primary)
	if err != nil {
		return err
	}
	if resp.Error != 0 {
		r.logger.Warn("task tracker rejected status update",
			"agent_id", req.AgentID, "response_error", resp.Error, "response_data", resp.Data)
	}

	version, ok := customVersionOf(req)
	if !ok || !semverlite.LessThan(semverlite.Parse(version), newUpgradeMechanismVersion) {
		return nil
	}

	legacy := StatusUpdateRequest{
		Module:  moduleUpgrade,
		Command: commandUpdateStat,
		Agent:   req.AgentID,
		Status:  StatusLegacy,
	}
	if _, err := r.client.Submit(ctx, legacy); err != nil {
		return err
	}
	return nil
}

func messageFor(outcome upgrade.Outcome) string {
	if outcome.Stage == upgrade.StageSha1 && errors.Is(outcome.Detail, upgrade.ErrSha1Mismatch) {
		return sha1MismatchMessage
	}
	if msg, ok := stageMessages[outcome.Stage]; ok {
		return msg
	}
	return "Upgrade error."
}

func customVersionOf(req upgrade.Request) (string, bool) {
	if req.Task.Standard == nil || req.Task.Standard.CustomVersion == "" {
		return "", false
	}
	return req.Task.Standard.CustomVersion, true
}
