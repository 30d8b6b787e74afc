package schema

// requirement marks an option required for the purposes accepted by when.
type requirement struct {
	option string
	when   func(Purpose) bool
}

func always(Purpose) bool { return true }

func only(purposes ...Purpose) func(Purpose) bool {
	return func(p Purpose) bool {
		for _, want := range purposes {
			if p == want {
				return true
			}
		}
		return false
	}
}

func except(purposes ...Purpose) func(Purpose) bool {
	in := only(purposes...)
	return func(p Purpose) bool { return !in(p) }
}

// requiredOptions is the static table of required options per section.
// Sections without an entry have no required options.
var requiredOptions = map[Section][]requirement{
	Prep: {
		{"data_dir", always},
		{"labelset", except(PurposePredict)},
		{"train_dur", only(PurposeLearncurve)},
		{"test_dur", only(PurposeLearncurve)},
	},
	Train: {
		{"models", always},
		{"root_results_dir", always},
		{"train_data_path", always},
	},
	Learncurve: {
		{"models", always},
		{"root_results_dir", always},
		{"train_data_path", always},
		{"train_set_durs", always},
		{"num_replicates", always},
	},
	Eval: {
		{"models", always},
		{"checkpoint_path", only(PurposeEval)},
		{"csv_path", only(PurposeEval)},
		{"labelmap_path", only(PurposeEval)},
	},
	Predict: {
		{"models", always},
		{"checkpoint_path", only(PurposePredict)},
		{"csv_path", only(PurposePredict)},
		{"labelmap_path", only(PurposePredict)},
	},
}

// RequiredOptions returns the options of section that must be present when
// the active purpose is purpose, in table order. It returns nil for sections
// with no required options.
func RequiredOptions(section Section, purpose Purpose) []string {
	reqs, ok := requiredOptions[section]
	if !ok {
		return nil
	}
	var names []string
	for _, r := range reqs {
		if r.when(purpose) {
			names = append(names, r.option)
		}
	}
	return names
}
