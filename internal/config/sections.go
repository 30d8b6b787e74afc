package config

import (
	"github.com/harrison/songdeck/internal/parser"
	"github.com/harrison/songdeck/internal/schema"
)

// PrepConfig is the parsed PREP section.
type PrepConfig struct {
	DataDir                          string
	OutputDir                        string // empty means data_dir
	AudioFormat                      string
	SpectFormat                      string
	AnnotFormat                      string
	AnnotFile                        string
	Labelset                         []string
	AllLabelsAreInt                  bool
	SilentGapLabel                   int
	SkipFilesWithLabelsNotInLabelset bool
	TrainDur                         *float64 // nil: all remaining files
	ValDur                           *float64 // nil: no validation split
	TestDur                          *float64 // nil: no test split
	NumWorkers                       int
}

// SpectParamsConfig is the parsed SPECT_PARAMS section.
type SpectParamsConfig struct {
	FFTSize       int      `yaml:"fft_size" msgpack:"fft_size"`
	StepSize      int      `yaml:"step_size" msgpack:"step_size"`
	FreqCutoffs   []int    `yaml:"freq_cutoffs,omitempty" msgpack:"freq_cutoffs"`
	Thresh        *float64 `yaml:"thresh,omitempty" msgpack:"thresh"`
	TransformType string   `yaml:"transform_type,omitempty" msgpack:"transform_type"`
	SpectKey      string   `yaml:"spect_key" msgpack:"spect_key"`
	FreqBinsKey   string   `yaml:"freqbins_key" msgpack:"freqbins_key"`
	TimeBinsKey   string   `yaml:"timebins_key" msgpack:"timebins_key"`
	AudioPathKey  string   `yaml:"audio_path_key" msgpack:"audio_path_key"`
}

// DataLoaderConfig is the parsed DATALOADER section.
type DataLoaderConfig struct {
	WindowSize int
	Shuffle    bool
	NumWorkers int
}

// TrainConfig is the parsed TRAIN section.
type TrainConfig struct {
	Models                         []string
	RootResultsDir                 string
	TrainDataPath                  string
	ValDataPath                    string
	TestDataPath                   string
	CSVPath                        string
	CheckpointPath                 string
	SpectScalerPath                string
	NumEpochs                      *int
	NMaxIter                       int
	BatchSize                      int
	ValErrorStep                   *int
	CheckpointStep                 *int
	SaveOnlySingleCheckpointFile   bool
	Patience                       *int
	NormalizeSpectrograms          bool
	SaveTransformedData            bool
	Device                         string
	UseTrainSubsetsFromPreviousRun bool
	PreviousRunPath                string
}

// LearncurveConfig is the parsed LEARNCURVE section: every TRAIN option
// plus the training-set sizes and replicate count.
type LearncurveConfig struct {
	TrainConfig
	TrainSetDurs  []int
	NumReplicates int
}

// EvalConfig is the parsed EVAL section.
type EvalConfig struct {
	Models          []string
	CheckpointPath  string
	CSVPath         string
	LabelmapPath    string
	OutputDir       string
	SpectScalerPath string
	BatchSize       int
	NumWorkers      int
	Device          string
}

// PredictConfig is the parsed PREDICT section.
type PredictConfig struct {
	Models           []string
	CheckpointPath   string
	CSVPath          string
	LabelmapPath     string
	OutputDir        string
	SpectScalerPath  string
	AnnotCSVFilename string
	MinSegmentDur    *float64
	MajorityVote     bool
	SaveNetOutputs   bool
	BatchSize        int
	NumWorkers       int
	Device           string
}

// builders assigns a parsed section to its typed field on Config.
var builders = map[schema.Section]func(*Config, *parser.Values){
	schema.Prep: func(c *Config, v *parser.Values) {
		c.Prep = &PrepConfig{
			DataDir:                          v.String("data_dir"),
			OutputDir:                        v.String("output_dir"),
			AudioFormat:                      v.String("audio_format"),
			SpectFormat:                      v.String("spect_format"),
			AnnotFormat:                      v.String("annot_format"),
			AnnotFile:                        v.String("annot_file"),
			Labelset:                         v.Strings("labelset"),
			AllLabelsAreInt:                  v.Bool("all_labels_are_int"),
			SilentGapLabel:                   v.Int("silent_gap_label"),
			SkipFilesWithLabelsNotInLabelset: v.Bool("skip_files_with_labels_not_in_labelset"),
			TrainDur:                         v.OptionalFloat("train_dur"),
			ValDur:                           v.OptionalFloat("val_dur"),
			TestDur:                          v.OptionalFloat("test_dur"),
			NumWorkers:                       v.Int("num_workers"),
		}
	},
	schema.SpectParams: func(c *Config, v *parser.Values) {
		c.SpectParams = &SpectParamsConfig{
			FFTSize:       v.Int("fft_size"),
			StepSize:      v.Int("step_size"),
			FreqCutoffs:   v.Ints("freq_cutoffs"),
			Thresh:        v.OptionalFloat("thresh"),
			TransformType: v.String("transform_type"),
			SpectKey:      v.String("spect_key"),
			FreqBinsKey:   v.String("freqbins_key"),
			TimeBinsKey:   v.String("timebins_key"),
			AudioPathKey:  v.String("audio_path_key"),
		}
	},
	schema.DataLoader: func(c *Config, v *parser.Values) {
		c.DataLoader = &DataLoaderConfig{
			WindowSize: v.Int("window_size"),
			Shuffle:    v.Bool("shuffle"),
			NumWorkers: v.Int("num_workers"),
		}
	},
	schema.Train: func(c *Config, v *parser.Values) {
		t := trainFrom(v)
		c.Train = &t
	},
	schema.Learncurve: func(c *Config, v *parser.Values) {
		c.Learncurve = &LearncurveConfig{
			TrainConfig:   trainFrom(v),
			TrainSetDurs:  v.Ints("train_set_durs"),
			NumReplicates: v.Int("num_replicates"),
		}
	},
	schema.Eval: func(c *Config, v *parser.Values) {
		c.Eval = &EvalConfig{
			Models:          v.Strings("models"),
			CheckpointPath:  v.String("checkpoint_path"),
			CSVPath:         v.String("csv_path"),
			LabelmapPath:    v.String("labelmap_path"),
			OutputDir:       v.String("output_dir"),
			SpectScalerPath: v.String("spect_scaler_path"),
			BatchSize:       v.Int("batch_size"),
			NumWorkers:      v.Int("num_workers"),
			Device:          v.String("device"),
		}
	},
	schema.Predict: func(c *Config, v *parser.Values) {
		c.Predict = &PredictConfig{
			Models:           v.Strings("models"),
			CheckpointPath:   v.String("checkpoint_path"),
			CSVPath:          v.String("csv_path"),
			LabelmapPath:     v.String("labelmap_path"),
			OutputDir:        v.String("output_dir"),
			SpectScalerPath:  v.String("spect_scaler_path"),
			AnnotCSVFilename: v.String("annot_csv_filename"),
			MinSegmentDur:    v.OptionalFloat("min_segment_dur"),
			MajorityVote:     v.Bool("majority_vote"),
			SaveNetOutputs:   v.Bool("save_net_outputs"),
			BatchSize:        v.Int("batch_size"),
			NumWorkers:       v.Int("num_workers"),
			Device:           v.String("device"),
		}
	},
}

func trainFrom(v *parser.Values) TrainConfig {
	return TrainConfig{
		Models:                         v.Strings("models"),
		RootResultsDir:                 v.String("root_results_dir"),
		TrainDataPath:                  v.String("train_data_path"),
		ValDataPath:                    v.String("val_data_path"),
		TestDataPath:                   v.String("test_data_path"),
		CSVPath:                        v.String("csv_path"),
		CheckpointPath:                 v.String("checkpoint_path"),
		SpectScalerPath:                v.String("spect_scaler_path"),
		NumEpochs:                      v.OptionalInt("num_epochs"),
		NMaxIter:                       v.Int("n_max_iter"),
		BatchSize:                      v.Int("batch_size"),
		ValErrorStep:                   v.OptionalInt("val_error_step"),
		CheckpointStep:                 v.OptionalInt("checkpoint_step"),
		SaveOnlySingleCheckpointFile:   v.Bool("save_only_single_checkpoint_file"),
		Patience:                       v.OptionalInt("patience"),
		NormalizeSpectrograms:          v.Bool("normalize_spectrograms"),
		SaveTransformedData:            v.Bool("save_transformed_data"),
		Device:                         v.String("device"),
		UseTrainSubsetsFromPreviousRun: v.Bool("use_train_subsets_from_previous_run"),
		PreviousRunPath:                v.String("previous_run_path"),
	}
}
