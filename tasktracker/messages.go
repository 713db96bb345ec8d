package tasktracker

import (
	json "github.com/goccy/go-json"
)

// Status is the task tracker's terminal-state vocabulary for one upgrade
// attempt (spec.md §6).
type Status string

const (
	// StatusInProgress marks a successfully delivered WPK; actual
	// installation is observed separately once the agent restarts.
	StatusInProgress Status = "In progress"
	// StatusFailed marks any stage failure, with ErrorMsg populated.
	StatusFailed Status = "Failed"
	// StatusLegacy is an additional update sent alongside the primary one
	// when the agent's reported version predates the new upgrade
	// mechanism.
	StatusLegacy Status = "Legacy"
)

// StatusUpdateRequest is the JSON body posted to the task tracker, per
// spec.md §6's wire grammar.
type StatusUpdateRequest struct {
	Module   string `json:"module"`
	Command  string `json:"command"`
	Agent    int    `json:"agent"`
	Status   Status `json:"status"`
	ErrorMsg string `json:"error_msg,omitempty"`
}

// StatusUpdateResponse is the task tracker's reply.
type StatusUpdateResponse struct {
	Error  int    `json:"error"`
	Data   string `json:"data"`
	Agent  int    `json:"agent"`
	Status Status `json:"status"`
}

const (
	moduleUpgrade     = "upgrade_module"
	commandUpdateStat = "upgrade_update_status"
)

// Marshal encodes req using the same JSON library the rest of this module's
// ambient stack uses for request/response payloads.
func (req StatusUpdateRequest) Marshal() ([]byte, error) {
	return json.Marshal(req)
}

// UnmarshalResponse decodes a task tracker reply body.
func UnmarshalResponse(body []byte) (StatusUpdateResponse, error) {
	var resp StatusUpdateResponse
	err := json.Unmarshal(body, &resp)
	return resp, err
}
