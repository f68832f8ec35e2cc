package pipeline

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/model"
)

// TrainResult summarizes one Train call.
type TrainResult struct {
	Skipped  bool
	Paths    []string
	EvalRMSE map[string]float64
}

// Train fits one model per target on the train partition, scoring the eval
// partition, and saves them. Nothing is done when every target already has
// a saved model.
func (r *Runner) Train(ctx context.Context) (TrainResult, error) {
	complete, err := r.models.Complete()
	if err != nil {
		return TrainResult{}, fmt.Errorf("check models: %w", err)
	}
	if complete {
		r.logger.Info("models already exist, skipping training")
		return TrainResult{Skipped: true}, nil
	}

	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	parts, err := r.Prepare(ctx)
	if err != nil {
		return TrainResult{}, err
	}

	boosters := make(map[string]*model.Booster, domain.NumFields)
	result := TrainResult{EvalRMSE: make(map[string]float64, domain.NumFields)}
	for _, f := range domain.Fields {
		b, err := r.fit(ctx, f, parts)
		if err != nil {
			return TrainResult{}, err
		}
		boosters[f.Target()] = b
		result.EvalRMSE[f.Target()] = b.BestEvalRMSE
	}

	if result.Paths, err = r.models.Save(boosters); err != nil {
		return TrainResult{}, fmt.Errorf("save models: %w", err)
	}
	return result, nil
}

func (r *Runner) fit(ctx context.Context, f domain.Field, parts domain.Partitions) (*model.Booster, error) {
	target := f.Target()
	train := r.settings.Schema.Sample(parts.Train, f)
	eval := r.settings.Schema.Sample(parts.Eval, f)
	r.logger.Info("training model", "target", target, "train_rows", train.X.Rows(), "eval_rows", eval.X.Rows())

	start := time.Now()
	b, err := model.Fit(ctx, target, train, eval, r.settings.Boost, r.logger.With("target", target))
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", target, err)
	}
	elapsed := time.Since(start)
	r.metrics.TrainingDuration.WithLabelValues(target).Observe(elapsed.Seconds())
	if !math.IsNaN(b.BestEvalRMSE) {
		r.metrics.EvalRMSE.WithLabelValues(target).Set(b.BestEvalRMSE)
	}

	r.logger.Info("model trained",
		"target", target,
		"trees", len(b.Trees),
		"best_iteration", b.BestIteration,
		"eval_rmse", b.BestEvalRMSE,
		"duration", elapsed,
	)
	r.logger.Debug("feature importance", "target", target, "top", TopFeatures(b.FeatureImportance(), 5))
	return b, nil
}

// TopFeatures returns up to n feature names with the largest positive
// importance, highest first. Ties are broken by name.
func TopFeatures(importance map[string]float64, n int) []string {
	names := make([]string, 0, len(importance))
	for name, gain := range importance {
		if gain > 0 {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case importance[a] > importance[b]:
			return -1
		case importance[a] < importance[b]:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
