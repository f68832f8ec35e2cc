package forecast

import (
	"fmt"

	"github.com/couchcryptid/covid-forecast/internal/domain"
)

// ChainReport holds the Run reports of both ranges.
type ChainReport struct {
	Eval Report
	Test Report
}

// Forecast predicts the eval range without feedback, seeded by the last
// train day, then the test range with lag propagation, seeded by the actual
// values of the last eval day. The train partition is returned unchanged.
func (p *Predictor) Forecast(parts domain.Partitions, dates domain.SplitDates) (domain.Partitions, ChainReport, error) {
	eval, evalReport, err := p.Run(parts.Eval, domain.RowsOn(parts.Train, dates.LastTrain), Range{
		First: dates.FirstEval(),
		Last:  dates.LastEval,
	})
	if err != nil {
		return domain.Partitions{}, ChainReport{}, fmt.Errorf("eval range: %w", err)
	}

	test, testReport, err := p.Run(parts.Test, domain.RowsOn(eval, dates.LastEval), Range{
		First:     dates.FirstTest(),
		Last:      dates.LastTest,
		Propagate: true,
	})
	if err != nil {
		return domain.Partitions{}, ChainReport{}, fmt.Errorf("test range: %w", err)
	}

	p.logger.Info("forecast complete",
		"eval_rows", evalReport.Rows,
		"eval_unmatched", evalReport.Unmatched,
		"test_rows", testReport.Rows,
		"test_unmatched", testReport.Unmatched,
	)
	out := domain.Partitions{Train: domain.CloneAll(parts.Train), Eval: eval, Test: test}
	return out, ChainReport{Eval: evalReport, Test: testReport}, nil
}
