package parser

import (
	"strconv"

	"github.com/harrison/songdeck/internal/schema"
)

// rule is a section-specific check run after coercion and defaults.
type rule func(v *Values) error

var sectionRules = map[schema.Section][]rule{
	schema.Prep:        {exactlyOneSourceFormat, countsInRange},
	schema.SpectParams: {freqCutoffsAscending, countsInRange},
	schema.DataLoader:  {countsInRange},
	schema.Train:       {previousRunDependency, countsInRange},
	schema.Learncurve:  {previousRunDependency, learncurveDurations, positiveReplicates, countsInRange},
	schema.Eval:        {countsInRange},
	schema.Predict:     {countsInRange},
}

// countMinimums is the smallest accepted value of each count option. Sizes
// and steps must be positive; num_workers may be 0 to load in-process.
var countMinimums = []struct {
	name string
	min  int
}{
	{"fft_size", 1},
	{"step_size", 1},
	{"window_size", 1},
	{"batch_size", 1},
	{"n_max_iter", 1},
	{"num_epochs", 1},
	{"val_error_step", 1},
	{"checkpoint_step", 1},
	{"patience", 1},
	{"num_workers", 0},
}

// exactlyOneSourceFormat requires one of audio_format and spect_format.
func exactlyOneSourceFormat(v *Values) error {
	audio, spect := v.IsSet("audio_format"), v.IsSet("spect_format")
	switch {
	case audio && spect:
		return Errorf(KindMutualExclusion, string(v.section), "spect_format",
			"audio_format and spect_format cannot both be specified")
	case !audio && !spect:
		return Errorf(KindMutualExclusion, string(v.section), "audio_format",
			"must specify either audio_format or spect_format")
	}
	return nil
}

func freqCutoffsAscending(v *Values) error {
	if !v.IsSet("freq_cutoffs") {
		return nil
	}
	cutoffs := v.Ints("freq_cutoffs")
	if len(cutoffs) != 2 || cutoffs[0] >= cutoffs[1] {
		return &Error{
			Kind:    KindValue,
			Section: string(v.section),
			Option:  "freq_cutoffs",
			Value:   cutoffs,
			Message: "expected two ascending frequencies, e.g. [500, 10000]",
		}
	}
	return nil
}

// previousRunDependency ties previous_run_path to the reuse flag: the path
// is required when the flag is true and forbidden otherwise.
func previousRunDependency(v *Values) error {
	reuse := v.Bool("use_train_subsets_from_previous_run")
	hasPath := v.IsSet("previous_run_path")
	switch {
	case reuse && !hasPath:
		return Errorf(KindMutualExclusion, string(v.section), "previous_run_path",
			"required when use_train_subsets_from_previous_run is true")
	case !reuse && hasPath:
		return Errorf(KindMutualExclusion, string(v.section), "previous_run_path",
			"only allowed when use_train_subsets_from_previous_run is true")
	}
	return nil
}

func learncurveDurations(v *Values) error {
	for _, d := range v.Ints("train_set_durs") {
		if d <= 0 {
			return &Error{
				Kind:    KindValue,
				Section: string(v.section),
				Option:  "train_set_durs",
				Value:   v.Ints("train_set_durs"),
				Message: "training set durations must be positive",
			}
		}
	}
	return nil
}

func positiveReplicates(v *Values) error {
	if v.IsSet("num_replicates") && v.Int("num_replicates") < 1 {
		return Errorf(KindValue, string(v.section), "num_replicates",
			"must be at least 1, got %d", v.Int("num_replicates"))
	}
	return nil
}

func countsInRange(v *Values) error {
	for _, c := range countMinimums {
		n, ok := v.values[c.name].(int)
		if !ok || n >= c.min {
			continue
		}
		adjective := "positive"
		if c.min == 0 {
			adjective = "non-negative"
		}
		return &Error{
			Kind:    KindValue,
			Section: string(v.section),
			Option:  c.name,
			Value:   n,
			Message: "must be " + adjective + ", got " + strconv.Itoa(n),
		}
	}
	return nil
}
