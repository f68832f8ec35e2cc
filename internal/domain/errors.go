package domain

import "errors"

var (
	// ErrOriginNotFound means the outbreak-origin location is absent, so the
	// distance feature cannot be computed.
	ErrOriginNotFound = errors.New("outbreak origin not found in data")

	// ErrNoModels means at least one target has no persisted model.
	ErrNoModels = errors.New("no trained models found, run train first")

	// ErrNoPredictions means no predictions artifact exists yet.
	ErrNoPredictions = errors.New("no predictions found, run predict first")

	// ErrUnknownTarget is returned for a target name outside Targets().
	ErrUnknownTarget = errors.New("unknown target")
)
