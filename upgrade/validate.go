package upgrade

import "context"

// WpkValidation is the outcome of validating a Standard task's WPK: its
// signature and the expected sha1 it must report back in the "sha1" step.
type WpkValidation struct {
	// ExpectedSha1 is the digest the "sha1" step's reply must match.
	ExpectedSha1 string
}

// WpkValidator verifies a signed WPK's signature and precomputed sha1. It is
// an external collaborator per spec.md §1 (WPK validation is out of scope
// for this core); the orchestrator only depends on this interface.
type WpkValidator interface {
	ValidateWpk(ctx context.Context, cfg Config, task StandardTask) (WpkValidation, error)
}

// CustomValidation is the outcome of validating a Custom task: the resolved
// installer name (platform default if none was given) and the file's
// locally-computed sha1, which becomes the expected digest for the "sha1"
// step (spec.md §4.5: "For Custom, compute the file's SHA1 locally and use
// it as the expected digest for step 5").
type CustomValidation struct {
	Installer    string
	ExpectedSha1 string
}

// CustomValidator verifies a Custom task's file exists and computes its
// sha1. External collaborator, same rationale as WpkValidator.
type CustomValidator interface {
	ValidateCustom(ctx context.Context, platform string, task CustomTask) (CustomValidation, error)
}
