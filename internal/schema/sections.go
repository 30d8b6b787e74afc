package schema

import "runtime"

// Supported source formats for PREP.
var (
	AudioFormats = []string{"cbin", "wav"}
	SpectFormats = []string{"mat", "npz"}
	AnnotFormats = []string{"notmat", "koumura", "yarden", "csv"}
)

// Devices a model entrypoint can be asked to run on.
var Devices = []string{"cpu", "cuda"}

// DefaultNMaxIter is the iteration cap used when TRAIN/LEARNCURVE omit n_max_iter.
const DefaultNMaxIter = 18000

func shuffleDefault(p Purpose) any {
	return p.Trains()
}

func cpuCount(Purpose) any {
	return runtime.NumCPU()
}

var prepSchema = newSchema(Prep,
	Option{Name: "data_dir", Kind: KindExistingDir},
	Option{Name: "output_dir", Kind: KindExistingDir},
	Option{Name: "audio_format", Kind: KindEnum, Choices: AudioFormats},
	Option{Name: "spect_format", Kind: KindEnum, Choices: SpectFormats},
	Option{Name: "annot_format", Kind: KindEnum, Choices: AnnotFormats},
	Option{Name: "annot_file", Kind: KindExistingFile},
	Option{Name: "labelset", Kind: KindLabelSet},
	Option{Name: "all_labels_are_int", Kind: KindBool, Default: false},
	Option{Name: "silent_gap_label", Kind: KindInt, Default: 0},
	Option{Name: "skip_files_with_labels_not_in_labelset", Kind: KindBool, Default: true},
	Option{Name: "train_dur", Kind: KindDuration},
	Option{Name: "val_dur", Kind: KindDuration},
	Option{Name: "test_dur", Kind: KindDuration},
	Option{Name: "num_workers", Kind: KindInt, DefaultFor: cpuCount},
)

var spectParamsSchema = newSchema(SpectParams,
	Option{Name: "fft_size", Kind: KindInt, Default: 512},
	Option{Name: "step_size", Kind: KindInt, Default: 64},
	Option{Name: "freq_cutoffs", Kind: KindIntList},
	Option{Name: "thresh", Kind: KindFloat},
	Option{Name: "transform_type", Kind: KindEnum, Choices: []string{"log_spect", "log_spect_plus_one"}},
	Option{Name: "spect_key", Kind: KindString, Default: "s"},
	Option{Name: "freqbins_key", Kind: KindString, Default: "f"},
	Option{Name: "timebins_key", Kind: KindString, Default: "t"},
	Option{Name: "audio_path_key", Kind: KindString, Default: "audio_path"},
)

var dataLoaderSchema = newSchema(DataLoader,
	Option{Name: "window_size", Kind: KindInt, Default: 88},
	Option{Name: "shuffle", Kind: KindBool, DefaultFor: shuffleDefault},
	Option{Name: "num_workers", Kind: KindInt, Default: 2},
)

// trainOptions are shared by TRAIN and LEARNCURVE.
func trainOptions() []Option {
	return []Option{
		{Name: "models", Kind: KindModelList},
		{Name: "root_results_dir", Kind: KindExistingDir},
		{Name: "train_data_path", Kind: KindExistingFile},
		{Name: "val_data_path", Kind: KindExistingFile},
		{Name: "test_data_path", Kind: KindExistingFile},
		{Name: "csv_path", Kind: KindExistingFile},
		{Name: "checkpoint_path", Kind: KindExistingFile},
		{Name: "spect_scaler_path", Kind: KindExistingFile},
		{Name: "num_epochs", Kind: KindOptionalInt},
		{Name: "n_max_iter", Kind: KindInt, Default: DefaultNMaxIter},
		{Name: "batch_size", Kind: KindInt, Default: 8},
		{Name: "val_error_step", Kind: KindOptionalInt},
		{Name: "checkpoint_step", Kind: KindOptionalInt},
		{Name: "save_only_single_checkpoint_file", Kind: KindBool, Default: true},
		{Name: "patience", Kind: KindOptionalInt},
		{Name: "normalize_spectrograms", Kind: KindBool, Default: false},
		{Name: "save_transformed_data", Kind: KindBool, Default: false},
		{Name: "device", Kind: KindEnum, Choices: Devices, Default: "cpu"},
		{Name: "use_train_subsets_from_previous_run", Kind: KindBool, Default: false},
		{Name: "previous_run_path", Kind: KindExistingDir},
	}
}

var trainSchema = newSchema(Train, trainOptions()...)

var learncurveSchema = newSchema(Learncurve, append(trainOptions(),
	Option{Name: "train_set_durs", Kind: KindIntList},
	Option{Name: "num_replicates", Kind: KindInt},
)...)

var evalSchema = newSchema(Eval,
	Option{Name: "models", Kind: KindModelList},
	Option{Name: "checkpoint_path", Kind: KindExistingFile},
	Option{Name: "csv_path", Kind: KindExistingFile},
	Option{Name: "labelmap_path", Kind: KindExistingFile},
	Option{Name: "output_dir", Kind: KindExistingDir},
	Option{Name: "spect_scaler_path", Kind: KindExistingFile},
	Option{Name: "batch_size", Kind: KindInt, Default: 8},
	Option{Name: "num_workers", Kind: KindInt, Default: 2},
	Option{Name: "device", Kind: KindEnum, Choices: Devices, Default: "cpu"},
)

var predictSchema = newSchema(Predict,
	Option{Name: "models", Kind: KindModelList},
	Option{Name: "checkpoint_path", Kind: KindExistingFile},
	Option{Name: "csv_path", Kind: KindExistingFile},
	Option{Name: "labelmap_path", Kind: KindExistingFile},
	Option{Name: "output_dir", Kind: KindExistingDir},
	Option{Name: "spect_scaler_path", Kind: KindExistingFile},
	Option{Name: "annot_csv_filename", Kind: KindString},
	Option{Name: "min_segment_dur", Kind: KindFloat},
	Option{Name: "majority_vote", Kind: KindBool, Default: false},
	Option{Name: "save_net_outputs", Kind: KindBool, Default: false},
	Option{Name: "batch_size", Kind: KindInt, Default: 8},
	Option{Name: "num_workers", Kind: KindInt, Default: 2},
	Option{Name: "device", Kind: KindEnum, Choices: Devices, Default: "cpu"},
)

// schemas is the dispatch table from section name to option table.
var schemas = map[Section]*Schema{
	Prep:        prepSchema,
	SpectParams: spectParamsSchema,
	DataLoader:  dataLoaderSchema,
	Train:       trainSchema,
	Learncurve:  learncurveSchema,
	Eval:        evalSchema,
	Predict:     predictSchema,
}

// Lookup returns the schema for a section.
func Lookup(section Section) (*Schema, bool) {
	s, ok := schemas[section]
	return s, ok
}
