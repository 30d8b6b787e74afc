package dataset

import (
	"github.com/harrison/songdeck/internal/parser"
)

// Durations are target split durations in seconds. A nil Train takes every
// file not used by the other splits; a nil Val or Test yields no such split.
type Durations struct {
	Train *float64
	Val   *float64
	Test  *float64
}

// Splitter partitions entries into named splits.
type Splitter interface {
	Split(entries []Entry, durs Durations) (map[string][]Entry, error)
}

// GreedySplitter fills test, then val, then train by walking entries in
// order and adding each file to the split until its target is reached. The
// result depends only on the input order.
type GreedySplitter struct{}

// Split implements Splitter. Files left over once every target is met are
// not assigned. A target the data cannot reach is an error.
func (GreedySplitter) Split(entries []Entry, durs Durations) (map[string][]Entry, error) {
	out := make(map[string][]Entry)
	rest := entries

	take := func(split string, target float64) error {
		var got float64
		i := 0
		for ; i < len(rest) && got < target; i++ {
			got += rest[i].Duration
		}
		if got < target {
			return parser.Errorf(parser.KindValue, "PREP", split+"_dur",
				"requested %g s for the %s split but only %g s of data remain", target, split, got)
		}
		out[split] = append([]Entry(nil), rest[:i]...)
		rest = rest[i:]
		return nil
	}

	if durs.Test != nil && *durs.Test > 0 {
		if err := take(Test, *durs.Test); err != nil {
			return nil, err
		}
	}
	if durs.Val != nil && *durs.Val > 0 {
		if err := take(Val, *durs.Val); err != nil {
			return nil, err
		}
	}
	if durs.Train != nil {
		if err := take(Train, *durs.Train); err != nil {
			return nil, err
		}
	} else if len(rest) > 0 {
		out[Train] = append([]Entry(nil), rest...)
	}

	if len(out[Train]) == 0 {
		return nil, parser.Errorf(parser.KindValue, "PREP", "train_dur", "no files left for the train split")
	}
	return out, nil
}
