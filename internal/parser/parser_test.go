package parser

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/songdeck/internal/schema"
)

type fakeRegistry map[string]bool

func (r fakeRegistry) Has(name string) bool { return r[name] }

func (r fakeRegistry) Names() []string {
	var names []string
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var installed = fakeRegistry{"TweetyNet": true, "TeenyTweetyNet": true}

// fixture creates a data dir, a results dir and a dataset file.
type fixture struct {
	dir, data, results, dataset string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		data:    filepath.Join(dir, "data"),
		results: filepath.Join(dir, "results"),
		dataset: filepath.Join(dir, "train.dataset.yaml"),
	}
	require.NoError(t, os.Mkdir(f.data, 0o755))
	require.NoError(t, os.Mkdir(f.results, 0o755))
	require.NoError(t, os.WriteFile(f.dataset, []byte("split: train\n"), 0o644))
	return f
}

func lookup(t *testing.T, s schema.Section) *schema.Schema {
	t.Helper()
	sch, ok := schema.Lookup(s)
	require.True(t, ok)
	return sch
}

func ctxFor(f fixture, p schema.Purpose) Context {
	return Context{Purpose: p, Registry: installed, BaseDir: f.dir}
}

func assertKind(t *testing.T, err error, sentinel error, section, option string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel), "want %v, got %v", sentinel, err)
	ce, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, section, ce.Section)
	assert.Equal(t, option, ce.Option)
	assert.Contains(t, err.Error(), section)
	assert.Contains(t, err.Error(), option)
}

func TestParsePrep(t *testing.T) {
	f := newFixture(t)
	raw := map[string]any{
		"data_dir":     "data",
		"audio_format": "CBIN",
		"labelset":     "iabcdef",
		"train_dur":    int64(50),
		"val_dur":      "15",
		"test_dur":     "None",
	}

	v, err := Parse(raw, lookup(t, schema.Prep), ctxFor(f, schema.PurposeTrain))
	require.NoError(t, err)

	assert.Equal(t, f.data, v.String("data_dir"))
	assert.Equal(t, "cbin", v.String("audio_format"))
	assert.Equal(t, []string{"i", "a", "b", "c", "d", "e", "f"}, v.Strings("labelset"))
	require.NotNil(t, v.OptionalFloat("train_dur"))
	assert.Equal(t, 50.0, *v.OptionalFloat("train_dur"))
	assert.Equal(t, 15.0, *v.OptionalFloat("val_dur"))
	assert.Nil(t, v.OptionalFloat("test_dur"))
	assert.True(t, v.IsSet("test_dur"))

	// defaults
	assert.True(t, v.Bool("skip_files_with_labels_not_in_labelset"))
	assert.Equal(t, 0, v.Int("silent_gap_label"))
	assert.Greater(t, v.Int("num_workers"), 0)
	assert.False(t, v.IsSet("num_workers"))
	assert.Equal(t, "", v.String("spect_format"))
}

func TestUnknownOption(t *testing.T) {
	f := newFixture(t)
	raw := map[string]any{"window_size": int64(88), "windw_size": int64(10)}

	_, err := Parse(raw, lookup(t, schema.DataLoader), ctxFor(f, schema.PurposeTrain))
	assertKind(t, err, ErrInvalidOption, "DATALOADER", "windw_size")
}

func TestMissingRequiredOptions(t *testing.T) {
	f := newFixture(t)
	full := map[string]any{
		"models":           "TweetyNet",
		"root_results_dir": f.results,
		"train_data_path":  f.dataset,
	}
	_, err := Parse(full, lookup(t, schema.Train), ctxFor(f, schema.PurposeTrain))
	require.NoError(t, err)

	for _, name := range schema.RequiredOptions(schema.Train, schema.PurposeTrain) {
		t.Run(name, func(t *testing.T) {
			raw := make(map[string]any)
			for k, v := range full {
				if k != name {
					raw[k] = v
				}
			}
			_, err := Parse(raw, lookup(t, schema.Train), ctxFor(f, schema.PurposeTrain))
			assertKind(t, err, ErrMissingOption, "TRAIN", name)
		})
	}
}

func TestRequiredDependsOnPurpose(t *testing.T) {
	f := newFixture(t)
	raw := map[string]any{"models": "TweetyNet"}

	_, err := Parse(raw, lookup(t, schema.Eval), ctxFor(f, schema.PurposeTrain))
	require.NoError(t, err, "EVAL only requires models outside eval")

	_, err = Parse(raw, lookup(t, schema.Eval), ctxFor(f, schema.PurposeEval))
	assertKind(t, err, ErrMissingOption, "EVAL", "checkpoint_path")
}

func TestTypeErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		section schema.Section
		option  string
		value   any
	}{
		{schema.SpectParams, "fft_size", "big"},
		{schema.SpectParams, "thresh", true},
		{schema.DataLoader, "shuffle", "maybe"},
		{schema.SpectParams, "transform_type", "mel"},
		{schema.SpectParams, "freq_cutoffs", "500,high"},
		{schema.SpectParams, "spect_key", int64(3)},
		{schema.SpectParams, "step_size", 1e20},
		{schema.DataLoader, "window_size", -1e19},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			raw := map[string]any{tt.option: tt.value}
			_, err := Parse(raw, lookup(t, tt.section), ctxFor(f, schema.PurposeTrain))
			assertKind(t, err, ErrType, string(tt.section), tt.option)
			ce, _ := AsError(err)
			assert.Equal(t, tt.value, ce.Value)
		})
	}
}

func TestStringCoercion(t *testing.T) {
	f := newFixture(t)
	raw := map[string]any{
		"fft_size":     "1024",
		"thresh":       "6.25",
		"freq_cutoffs": "500, 10000",
	}
	v, err := Parse(raw, lookup(t, schema.SpectParams), ctxFor(f, schema.PurposeTrain))
	require.NoError(t, err)
	assert.Equal(t, 1024, v.Int("fft_size"))
	assert.Equal(t, 6.25, v.Float("thresh"))
	assert.Equal(t, []int{500, 10000}, v.Ints("freq_cutoffs"))
	assert.Equal(t, 64, v.Int("step_size"))
	assert.Equal(t, "s", v.String("spect_key"))

	dl, err := Parse(map[string]any{"shuffle": "Yes"}, lookup(t, schema.DataLoader), ctxFor(f, schema.PurposeEval))
	require.NoError(t, err)
	assert.True(t, dl.Bool("shuffle"))
}

func TestPurposeDependentDefault(t *testing.T) {
	f := newFixture(t)
	v, err := Parse(map[string]any{}, lookup(t, schema.DataLoader), ctxFor(f, schema.PurposeTrain))
	require.NoError(t, err)
	assert.True(t, v.Bool("shuffle"))

	v, err = Parse(map[string]any{}, lookup(t, schema.DataLoader), ctxFor(f, schema.PurposePredict))
	require.NoError(t, err)
	assert.False(t, v.Bool("shuffle"))
}

func TestFreqCutoffsMustAscend(t *testing.T) {
	f := newFixture(t)
	raw := map[string]any{"freq_cutoffs": []any{int64(10000), int64(500)}}
	_, err := Parse(raw, lookup(t, schema.SpectParams), ctxFor(f, schema.PurposeTrain))
	assertKind(t, err, ErrValue, "SPECT_PARAMS", "freq_cutoffs")
}

func TestCountOptionRange(t *testing.T) {
	f := newFixture(t)
	prep := func(workers any) map[string]any {
		return map[string]any{"data_dir": f.data, "labelset": "abc", "audio_format": "wav", "num_workers": workers}
	}
	tests := []struct {
		name    string
		section schema.Section
		raw     map[string]any
		option  string
		wantErr bool
	}{
		{"negative window", schema.DataLoader, map[string]any{"window_size": int64(-88)}, "window_size", true},
		{"zero window", schema.DataLoader, map[string]any{"window_size": int64(0)}, "window_size", true},
		{"negative loader workers", schema.DataLoader, map[string]any{"num_workers": int64(-1)}, "num_workers", true},
		{"zero loader workers", schema.DataLoader, map[string]any{"num_workers": int64(0)}, "num_workers", false},
		{"zero fft", schema.SpectParams, map[string]any{"fft_size": int64(0)}, "fft_size", true},
		{"negative step as string", schema.SpectParams, map[string]any{"step_size": "-64"}, "step_size", true},
		{"negative prep workers", schema.Prep, prep(int64(-4)), "num_workers", true},
		{"prep workers", schema.Prep, prep(int64(4)), "num_workers", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, lookup(t, tt.section), ctxFor(f, schema.PurposeTrain))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			assertKind(t, err, ErrValue, string(tt.section), tt.option)
		})
	}
}

func TestPrepFormatExclusivity(t *testing.T) {
	f := newFixture(t)
	base := map[string]any{"data_dir": f.data, "labelset": "abc"}

	both := copyRaw(base)
	both["audio_format"] = "cbin"
	both["spect_format"] = "mat"
	_, err := Parse(both, lookup(t, schema.Prep), ctxFor(f, schema.PurposeTrain))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMutualExclusion))

	_, err = Parse(base, lookup(t, schema.Prep), ctxFor(f, schema.PurposeTrain))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMutualExclusion))

	one := copyRaw(base)
	one["spect_format"] = "npz"
	_, err = Parse(one, lookup(t, schema.Prep), ctxFor(f, schema.PurposeTrain))
	require.NoError(t, err)
}

func TestPreviousRunDependency(t *testing.T) {
	f := newFixture(t)
	base := map[string]any{
		"models":           "TweetyNet",
		"root_results_dir": f.results,
		"train_data_path":  f.dataset,
		"train_set_durs":   "4, 6",
		"num_replicates":   int64(2),
	}
	sch := lookup(t, schema.Learncurve)

	reuse := copyRaw(base)
	reuse["use_train_subsets_from_previous_run"] = true
	_, err := Parse(reuse, sch, ctxFor(f, schema.PurposeLearncurve))
	assertKind(t, err, ErrMutualExclusion, "LEARNCURVE", "previous_run_path")

	stray := copyRaw(base)
	stray["previous_run_path"] = f.results
	_, err = Parse(stray, sch, ctxFor(f, schema.PurposeLearncurve))
	assertKind(t, err, ErrMutualExclusion, "LEARNCURVE", "previous_run_path")

	ok := copyRaw(reuse)
	ok["previous_run_path"] = f.results
	v, err := Parse(ok, sch, ctxFor(f, schema.PurposeLearncurve))
	require.NoError(t, err)
	assert.Equal(t, f.results, v.String("previous_run_path"))
	assert.Equal(t, []int{4, 6}, v.Ints("train_set_durs"))
}

func TestModelNotInstalledListsAll(t *testing.T) {
	f := newFixture(t)
	raw := map[string]any{"models": "TweetyNet, NotARealModel, AlsoFake"}

	_, err := Parse(raw, lookup(t, schema.Eval), ctxFor(f, schema.PurposeTrain))
	assertKind(t, err, ErrModelNotInstalled, "EVAL", "models")
	assert.Contains(t, err.Error(), `"NotARealModel"`)
	assert.Contains(t, err.Error(), `"AlsoFake"`)
	assert.Contains(t, err.Error(), "TweetyNet")

	ce, _ := AsError(err)
	assert.Equal(t, []string{"NotARealModel", "AlsoFake"}, ce.Value)
}

func TestModelListArray(t *testing.T) {
	f := newFixture(t)
	raw := map[string]any{"models": []any{"TweetyNet", " TeenyTweetyNet "}}
	v, err := Parse(raw, lookup(t, schema.Eval), ctxFor(f, schema.PurposeTrain))
	require.NoError(t, err)
	assert.Equal(t, []string{"TweetyNet", "TeenyTweetyNet"}, v.Strings("models"))
}

func TestPathChecks(t *testing.T) {
	f := newFixture(t)
	base := map[string]any{
		"models":           "TweetyNet",
		"root_results_dir": f.results,
		"train_data_path":  f.dataset,
	}
	sch := lookup(t, schema.Train)

	missingFile := copyRaw(base)
	missingFile["train_data_path"] = "nope.yaml"
	_, err := Parse(missingFile, sch, ctxFor(f, schema.PurposeTrain))
	assertKind(t, err, ErrFileNotFound, "TRAIN", "train_data_path")
	assert.Contains(t, err.Error(), filepath.Join(f.dir, "nope.yaml"))

	fileAsDir := copyRaw(base)
	fileAsDir["root_results_dir"] = f.dataset
	_, err = Parse(fileAsDir, sch, ctxFor(f, schema.PurposeTrain))
	assertKind(t, err, ErrNotADirectory, "TRAIN", "root_results_dir")

	dirAsFile := copyRaw(base)
	dirAsFile["train_data_path"] = f.data
	_, err = Parse(dirAsFile, sch, ctxFor(f, schema.PurposeTrain))
	assertKind(t, err, ErrFileNotFound, "TRAIN", "train_data_path")
}

func TestInjectedChecker(t *testing.T) {
	var seen []string
	checker := CheckerFunc(func(path string) (fs.FileInfo, error) {
		seen = append(seen, path)
		return nil, fs.ErrNotExist
	})
	raw := map[string]any{"data_dir": "/virtual/data", "audio_format": "wav", "labelset": "ab"}

	_, err := Parse(raw, lookup(t, schema.Prep), Context{Purpose: schema.PurposeTrain, Checker: checker})
	assertKind(t, err, ErrNotADirectory, "PREP", "data_dir")
	assert.Equal(t, []string{"/virtual/data"}, seen)
}

func TestRawRoundTrip(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		section schema.Section
		purpose schema.Purpose
		raw     map[string]any
	}{
		{schema.Prep, schema.PurposeTrain, map[string]any{
			"data_dir":           "data",
			"audio_format":       "cbin",
			"labelset":           "iabc",
			"all_labels_are_int": "no",
			"train_dur":          int64(30),
			"test_dur":           "None",
		}},
		{schema.SpectParams, schema.PurposeTrain, map[string]any{
			"fft_size":     "512",
			"freq_cutoffs": "500,10000",
			"thresh":       6.25,
		}},
		{schema.Learncurve, schema.PurposeLearncurve, map[string]any{
			"models":           []any{"TweetyNet", "TeenyTweetyNet"},
			"root_results_dir": "results",
			"train_data_path":  "train.dataset.yaml",
			"num_epochs":       "None",
			"patience":         int64(4),
			"train_set_durs":   []any{int64(4), int64(6)},
			"num_replicates":   int64(2),
		}},
		{schema.Prep, schema.PurposeTrain, map[string]any{
			"data_dir":     "data",
			"spect_format": "mat",
			"labelset":     "mo, ha, ka",
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			sch := lookup(t, tt.section)
			first, err := Parse(tt.raw, sch, ctxFor(f, tt.purpose))
			require.NoError(t, err)

			raw := first.Raw()
			assert.Len(t, raw, len(tt.raw))

			second, err := Parse(raw, sch, ctxFor(f, tt.purpose))
			require.NoError(t, err)
			assert.Equal(t, first.values, second.values)
			assert.Equal(t, first.set, second.set)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Errorf(KindMissingOption, "TRAIN", "train_data_path", "required when purpose is %s", schema.PurposeTrain)
	assert.Equal(t,
		`missing required option in section [TRAIN], option "train_data_path": required when purpose is train`,
		err.Error())

	structural := &Error{Kind: KindStructural, Section: "NETWORKS", Message: "unknown section"}
	assert.Equal(t, "invalid config structure in section [NETWORKS]: unknown section", structural.Error())
	assert.True(t, errors.Is(structural, ErrStructural))
	assert.False(t, errors.Is(structural, ErrValue))
}

func copyRaw(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
