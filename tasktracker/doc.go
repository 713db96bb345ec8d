// Package tasktracker reports an upgrade.Outcome back to the manager's
// task-status API (spec.md §6) with one primary status update per request,
// translating the orchestrator's internal Stage/Kind taxonomy into the fixed
// message strings the manager's dashboard expects. When the request's
// version is below the new-upgrade-mechanism threshold, it sends a second
// update of the same shape with status Legacy (spec.md Supplemented
// Features).
package tasktracker
