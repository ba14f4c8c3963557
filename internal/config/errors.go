package config

import "errors"

// Configuration validation errors.
//
// Design decision: Package-level sentinel errors rather than fresh
// instances in Validate() so callers can use errors.Is() while still
// getting a human-readable message. errors.New rather than fmt.Errorf
// because none of these need dynamic values.
var (
	// ErrMissingPages is returned when the start or target page is not set.
	ErrMissingPages = errors.New("missing pages: provide both a start and a target article")

	// ErrSamePage is returned when start and target name the same article.
	// There is nothing to traverse.
	ErrSamePage = errors.New("start and target are the same article")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkerCount is returned when the prefetch pool size is
	// not positive.
	ErrInvalidWorkerCount = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxLinks is returned when the per-step candidate cap is
	// not positive.
	ErrInvalidMaxLinks = errors.New("invalid max links per page: must be positive")

	// ErrInvalidTopN is returned when the ranking breadth is not positive.
	ErrInvalidTopN = errors.New("invalid top-n: must be positive")

	// ErrInvalidMaxSteps is returned when the step budget is not positive.
	ErrInvalidMaxSteps = errors.New("invalid max steps: must be positive")

	// ErrInvalidStepDelay is returned when the step delay is negative.
	// Use 0 for no pacing between steps.
	ErrInvalidStepDelay = errors.New("invalid step delay: must be non-negative")

	// ErrMissingEmbedConfig is returned when the embedding endpoint or
	// model is empty.
	ErrMissingEmbedConfig = errors.New("missing embedding configuration: endpoint and model are required")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
