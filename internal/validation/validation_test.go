package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/songdeck/internal/document"
	"github.com/harrison/songdeck/internal/parser"
	"github.com/harrison/songdeck/internal/schema"
)

func parseDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	doc, err := document.Parse("/tmp/config.toml", []byte(text))
	require.NoError(t, err)
	return doc
}

func TestCheckStructure(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"valid", "[PREP]\n[TRAIN]\n", ""},
		{"empty", "", ""},
		{"unknown section", "[PREP]\n[NETWORKS]\n", "NETWORKS"},
		{"scalar section", "EVAL = 3\n", "must be a table"},
		{"stray key", "debug = true\n[PREP]\n", "debug"},
		{"train and learncurve", "[TRAIN]\n[LEARNCURVE]\n", "both TRAIN and LEARNCURVE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStructure(parseDoc(t, tt.text))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, parser.ErrStructural))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDerivePurpose(t *testing.T) {
	tests := []struct {
		text     string
		explicit schema.Purpose
		want     schema.Purpose
	}{
		{"[PREP]\n[TRAIN]\n", schema.PurposeNone, schema.PurposeTrain},
		{"[PREP]\n[LEARNCURVE]\n", schema.PurposeNone, schema.PurposeLearncurve},
		{"[PREDICT]\n[EVAL]\n", schema.PurposeNone, schema.PurposeEval},
		{"[PREDICT]\n", schema.PurposeNone, schema.PurposePredict},
		{"[PREP]\n", schema.PurposeNone, schema.PurposeNone},
		{"[TRAIN]\n[EVAL]\n", schema.PurposeEval, schema.PurposeEval},
	}
	for _, tt := range tests {
		got := DerivePurpose(parseDoc(t, tt.text), tt.explicit)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestSelection(t *testing.T) {
	all, err := Selection(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(schema.Sections))

	some, err := Selection([]string{"PREP,SPECT_PARAMS"})
	require.NoError(t, err)
	assert.True(t, some[schema.Prep])
	assert.True(t, some[schema.SpectParams])
	assert.False(t, some[schema.Train])

	_, err = Selection([]string{"PREP", "NETWORKS"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrStructural))
	assert.Contains(t, err.Error(), "NETWORKS")
}

func TestLearncurveFitsTrainDur(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "train.dataset.yaml")
	require.NoError(t, os.WriteFile(dataset, []byte("split: train\n"), 0o644))
	ctx := parser.Context{Purpose: schema.PurposeLearncurve, BaseDir: dir}

	prep := func(trainDur any) *parser.Values {
		sch, _ := schema.Lookup(schema.Prep)
		raw := map[string]any{
			"data_dir":     dir,
			"spect_format": "mat",
			"labelset":     "ab",
			"train_dur":    trainDur,
			"test_dur":     "None",
		}
		v, err := parser.Parse(raw, sch, ctx)
		require.NoError(t, err)
		return v
	}
	learncurve := func(durs string) *parser.Values {
		sch, _ := schema.Lookup(schema.Learncurve)
		raw := map[string]any{
			"models":           "TweetyNet",
			"root_results_dir": dir,
			"train_data_path":  dataset,
			"train_set_durs":   durs,
			"num_replicates":   int64(1),
		}
		v, err := parser.Parse(raw, sch, ctx)
		require.NoError(t, err)
		return v
	}

	ok := map[schema.Section]*parser.Values{
		schema.Prep:       prep(int64(60)),
		schema.Learncurve: learncurve("30, 60"),
	}
	assert.NoError(t, CheckInvariants(ok))

	tooLong := map[schema.Section]*parser.Values{
		schema.Prep:       prep(int64(50)),
		schema.Learncurve: learncurve("30, 60"),
	}
	err := CheckInvariants(tooLong)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrValue))
	assert.Contains(t, err.Error(), "train_set_durs")

	unset := map[schema.Section]*parser.Values{
		schema.Prep:       prep("None"),
		schema.Learncurve: learncurve("600"),
	}
	assert.NoError(t, CheckInvariants(unset))

	onlyOne := map[schema.Section]*parser.Values{schema.Learncurve: learncurve("600")}
	assert.NoError(t, CheckInvariants(onlyOne))
}
