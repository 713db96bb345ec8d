// Package semverlite compares dotted-numeric version strings such as
// "4.3.0" or "v3.13.1", with no build-metadata or pre-release support.
// It exists only to answer one question the status reporter needs: is the
// reporting agent old enough that its manager-side client predates the
// "upgrade_update_status" API and must be told about its outcome the legacy
// way (spec.md Supplemented Features, grounded on
// WM_UPGRADE_NEW_UPGRADE_MECHANISM in original_source).
package semverlite
