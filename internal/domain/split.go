package domain

import (
	"fmt"
	"time"
)

// Partition tags a row with the date range it belongs to.
type Partition string

const (
	PartitionNone  Partition = ""
	PartitionTrain Partition = "train"
	PartitionEval  Partition = "eval"
	PartitionTest  Partition = "test"
)

// Default split boundaries, all inclusive upper bounds.
var (
	DefaultLastTrainDate = time.Date(2020, 3, 11, 0, 0, 0, 0, time.UTC)
	DefaultLastEvalDate  = time.Date(2020, 3, 24, 0, 0, 0, 0, time.UTC)
	DefaultLastTestDate  = time.Date(2020, 4, 23, 0, 0, 0, 0, time.UTC)
)

// SplitDates are the inclusive upper bounds of the three partitions.
type SplitDates struct {
	LastTrain time.Time
	LastEval  time.Time
	LastTest  time.Time
}

// DefaultSplitDates returns the boundaries of the Week 1 competition.
func DefaultSplitDates() SplitDates {
	return SplitDates{LastTrain: DefaultLastTrainDate, LastEval: DefaultLastEvalDate, LastTest: DefaultLastTestDate}
}

// Validate checks that the boundaries are strictly increasing.
func (d SplitDates) Validate() error {
	if !d.LastTrain.Before(d.LastEval) {
		return fmt.Errorf("last train date %s must be before last eval date %s",
			d.LastTrain.Format(DateLayout), d.LastEval.Format(DateLayout))
	}
	if !d.LastEval.Before(d.LastTest) {
		return fmt.Errorf("last eval date %s must be before last test date %s",
			d.LastEval.Format(DateLayout), d.LastTest.Format(DateLayout))
	}
	return nil
}

// FirstEval is the first day of the eval range.
func (d SplitDates) FirstEval() time.Time { return d.LastTrain.AddDate(0, 0, 1) }

// FirstTest is the first day of the test range.
func (d SplitDates) FirstTest() time.Time { return d.LastEval.AddDate(0, 0, 1) }

// PartitionOf returns the partition containing date.
func (d SplitDates) PartitionOf(date time.Time) Partition {
	switch {
	case !date.After(d.LastTrain):
		return PartitionTrain
	case !date.After(d.LastEval):
		return PartitionEval
	case !date.After(d.LastTest):
		return PartitionTest
	default:
		return PartitionNone
	}
}

// Partitions holds the rows of each range, each in input order.
type Partitions struct {
	Train []Observation
	Eval  []Observation
	Test  []Observation
}

// All concatenates train, eval and test.
func (p Partitions) All() []Observation {
	out := make([]Observation, 0, len(p.Train)+len(p.Eval)+len(p.Test))
	out = append(out, p.Train...)
	out = append(out, p.Eval...)
	return append(out, p.Test...)
}

// Split copies rows into the three partitions and tags each copy. Rows after
// LastTest are left out.
func Split(rows []Observation, dates SplitDates) Partitions {
	var p Partitions
	for i := range rows {
		row := rows[i].Clone()
		row.Partition = dates.PartitionOf(row.Date)
		switch row.Partition {
		case PartitionTrain:
			p.Train = append(p.Train, row)
		case PartitionEval:
			p.Eval = append(p.Eval, row)
		case PartitionTest:
			p.Test = append(p.Test, row)
		}
	}
	return p
}
