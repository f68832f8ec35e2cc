package model

import "errors"

var (
	// ErrMissingFeature means a dataset lacks a column the model was trained on.
	ErrMissingFeature = errors.New("missing feature")

	// ErrNoTrainingRows means every training label was undefined.
	ErrNoTrainingRows = errors.New("no training rows with a defined label")
)
