package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample pairs a feature matrix with one label per row. NaN labels are
// ignored by Fit.
type Sample struct {
	X *Dataset
	Y []float64
}

// Booster is an additive ensemble of regression trees fitted to one target.
// Its features are the numeric columns followed by the encoded categorical
// columns, matched by name at prediction time.
type Booster struct {
	Target        string
	NumericNames  []string
	Encoders      []CategoryEncoder
	Base          float64
	Trees         []Tree
	BestIteration int
	BestEvalRMSE  float64
	Params        Params
}

// FeatureNames lists the model inputs in column order.
func (b *Booster) FeatureNames() []string {
	names := append([]string(nil), b.NumericNames...)
	for _, e := range b.Encoders {
		names = append(names, e.Name)
	}
	return names
}

// Fit trains a booster on train, scoring eval after every iteration. eval
// may be empty, in which case the full ensemble is kept.
func Fit(ctx context.Context, target string, train, eval Sample, p Params, logger *slog.Logger) (*Booster, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	trainX, trainY, err := definedLabels(train)
	if err != nil {
		return nil, fmt.Errorf("train sample: %w", err)
	}
	if len(trainY) == 0 {
		return nil, ErrNoTrainingRows
	}
	evalX, evalY, err := definedLabels(eval)
	if err != nil {
		return nil, fmt.Errorf("eval sample: %w", err)
	}

	mean := stat.Mean(trainY, nil)
	b := &Booster{
		Target:       target,
		NumericNames: append([]string(nil), trainX.NumericNames...),
		Base:         mean,
		Params:       p,
		BestEvalRMSE: math.NaN(),
	}
	for j, name := range trainX.CategoricalNames {
		b.Encoders = append(b.Encoders, fitCategoryEncoder(name, trainX.categorical[j], trainY, mean, p.CategoryPrior))
	}

	trainCols, err := b.columns(trainX)
	if err != nil {
		return nil, err
	}
	var evalCols [][]float64
	if len(evalY) > 0 {
		if evalCols, err = b.columns(evalX); err != nil {
			return nil, fmt.Errorf("eval sample: %w", err)
		}
	}

	g := &grower{
		bins:    make([][]int, len(trainCols)),
		borders: make([][]float64, len(trainCols)),
		grad:    make([]float64, len(trainY)),
		params:  p,
	}
	for f, col := range trainCols {
		g.borders[f] = quantize(col, p.BorderCount)
		g.bins[f] = make([]int, len(col))
		for i, v := range col {
			g.bins[f][i] = binOf(g.borders[f], v)
		}
	}

	all := make([]int, len(trainY))
	for i := range all {
		all[i] = i
	}
	trainPred := filled(len(trainY), mean)
	evalPred := filled(len(evalY), mean)
	bestIter, bestRMSE := -1, math.Inf(1)

	for it := 0; it < p.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range g.grad {
			g.grad[i] = trainPred[i] - trainY[i]
		}
		tree := g.grow(all)
		b.Trees = append(b.Trees, tree)

		for i := range trainPred {
			trainPred[i] += tree.predict(trainCols, i)
		}
		for i := range evalPred {
			evalPred[i] += tree.predict(evalCols, i)
		}

		trainRMSE := RMSE(trainPred, trainY)
		evalRMSE := math.NaN()
		if len(evalY) > 0 {
			evalRMSE = RMSE(evalPred, evalY)
			if evalRMSE < bestRMSE {
				bestIter, bestRMSE = it, evalRMSE
			}
		}
		if p.LogPeriod > 0 && (it%p.LogPeriod == 0 || it == p.Iterations-1) {
			logger.Info("boosting progress",
				"target", target,
				"iteration", it,
				"train_rmse", trainRMSE,
				"eval_rmse", evalRMSE,
			)
		}
	}

	if bestIter < 0 {
		b.BestIteration = len(b.Trees) - 1
		return b, nil
	}
	b.BestIteration = bestIter
	b.BestEvalRMSE = bestRMSE
	if p.UseBest {
		b.Trees = b.Trees[:bestIter+1]
	}
	logger.Info("boosting finished",
		"target", target,
		"trees", len(b.Trees),
		"best_iteration", bestIter,
		"best_eval_rmse", bestRMSE,
	)
	return b, nil
}

// Predict scores every row of d.
func (b *Booster) Predict(d *Dataset) ([]float64, error) {
	cols, err := b.columns(d)
	if err != nil {
		return nil, err
	}
	out := make([]float64, d.Rows())
	for i := range out {
		v := b.Base
		for t := range b.Trees {
			v += b.Trees[t].predict(cols, i)
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportance returns each feature's share of total split gain, in percent.
func (b *Booster) FeatureImportance() map[string]float64 {
	names := b.FeatureNames()
	gains := make([]float64, len(names))
	for _, t := range b.Trees {
		for _, n := range t.Nodes {
			if !n.Leaf {
				gains[n.Feature] += n.Gain
			}
		}
	}
	total := floats.Sum(gains)
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if total > 0 {
			out[name] = 100 * gains[i] / total
		} else {
			out[name] = 0
		}
	}
	return out
}

// columns resolves d into the booster's feature order, one slice per feature.
func (b *Booster) columns(d *Dataset) ([][]float64, error) {
	cols := make([][]float64, 0, len(b.NumericNames)+len(b.Encoders))
	for _, name := range b.NumericNames {
		j, err := d.numericIndex(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, d.NumericColumn(j))
	}
	for _, enc := range b.Encoders {
		j, err := d.categoricalIndex(enc.Name)
		if err != nil {
			return nil, err
		}
		col := make([]float64, d.Rows())
		for i := range col {
			col[i] = enc.Encode(d.Categorical(i, j))
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// RMSE is the root mean squared error of pred against y.
func RMSE(pred, y []float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	return floats.Distance(pred, y, 2) / math.Sqrt(float64(len(y)))
}

func definedLabels(s Sample) (*Dataset, []float64, error) {
	if s.X == nil {
		if len(s.Y) > 0 {
			return nil, nil, errors.New("labels without features")
		}
		return NewDataset(0, nil, nil), nil, nil
	}
	if s.X.Rows() != len(s.Y) {
		return nil, nil, fmt.Errorf("%d rows but %d labels", s.X.Rows(), len(s.Y))
	}
	var idx []int
	var y []float64
	for i, v := range s.Y {
		if !math.IsNaN(v) {
			idx = append(idx, i)
			y = append(y, v)
		}
	}
	return s.X.Subset(idx), y, nil
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
