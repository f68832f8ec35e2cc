package model

import (
	"errors"
	"fmt"
)

// Params controls gradient boosting.
type Params struct {
	Iterations   int
	LearningRate float64
	MaxDepth     int
	L2Reg        float64
	BorderCount  int
	// MinLeafRows is the smallest number of samples a split may leave on a side.
	MinLeafRows int
	// LogPeriod is how often, in iterations, progress is reported. Zero disables it.
	LogPeriod int
	// UseBest truncates the ensemble to the iteration with the lowest eval RMSE.
	UseBest bool
	// CategoryPrior weighs the global mean in smoothed category encodings.
	CategoryPrior float64
}

// DefaultParams are the settings used for the production models.
func DefaultParams() Params {
	return Params{
		Iterations:    1000,
		LearningRate:  0.05,
		MaxDepth:      6,
		L2Reg:         3,
		BorderCount:   64,
		MinLeafRows:   1,
		LogPeriod:     100,
		UseBest:       true,
		CategoryPrior: 1,
	}
}

// Validate reports the first invalid setting.
func (p Params) Validate() error {
	var errs []error
	if p.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", p.Iterations))
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		errs = append(errs, fmt.Errorf("learning rate must be in (0, 1], got %g", p.LearningRate))
	}
	if p.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max depth must be positive, got %d", p.MaxDepth))
	}
	if p.L2Reg < 0 {
		errs = append(errs, fmt.Errorf("l2 regularization must be non-negative, got %g", p.L2Reg))
	}
	if p.BorderCount < 1 {
		errs = append(errs, fmt.Errorf("border count must be positive, got %d", p.BorderCount))
	}
	if p.MinLeafRows < 1 {
		errs = append(errs, fmt.Errorf("min leaf rows must be positive, got %d", p.MinLeafRows))
	}
	return errors.Join(errs...)
}
