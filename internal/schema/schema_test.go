package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	for _, s := range Sections {
		got, ok := ParseSection(string(s))
		require.True(t, ok, "section %s", s)
		assert.Equal(t, s, got)
	}

	_, ok := ParseSection("NETWORKS")
	assert.False(t, ok)
	_, ok = ParseSection("prep")
	assert.False(t, ok, "section names are case sensitive")
}

func TestParseSectionList(t *testing.T) {
	got, err := ParseSectionList([]string{"PREP, spect_params", ""})
	require.NoError(t, err)
	assert.Equal(t, []Section{Prep, SpectParams}, got)

	_, err = ParseSectionList([]string{"PREP,BOGUS"})
	assert.ErrorContains(t, err, "BOGUS")
}

func TestParsePurpose(t *testing.T) {
	tests := []struct {
		in      string
		want    Purpose
		wantErr bool
	}{
		{"train", PurposeTrain, false},
		{"LEARNCURVE", PurposeLearncurve, false},
		{" eval ", PurposeEval, false},
		{"predict", PurposePredict, false},
		{"", PurposeNone, false},
		{"prep", PurposeNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePurpose(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPurposeSectionRoundTrip(t *testing.T) {
	for _, s := range PurposeSections {
		p, ok := PurposeOf(s)
		require.True(t, ok)
		back, ok := p.Section()
		require.True(t, ok)
		assert.Equal(t, s, back)
	}
	_, ok := PurposeNone.Section()
	assert.False(t, ok)
	_, ok = PurposeOf(Prep)
	assert.False(t, ok)
}

func TestEverySectionHasSchema(t *testing.T) {
	for _, s := range Sections {
		sch, ok := Lookup(s)
		require.True(t, ok, "missing schema for %s", s)
		assert.Equal(t, s, sch.Section)
	}
}

func TestRequiredOptionsAreDeclared(t *testing.T) {
	purposes := []Purpose{PurposeNone, PurposeTrain, PurposeLearncurve, PurposeEval, PurposePredict}
	for _, s := range Sections {
		sch, _ := Lookup(s)
		for _, p := range purposes {
			for _, name := range RequiredOptions(s, p) {
				_, ok := sch.Option(name)
				assert.True(t, ok, "%s requires undeclared option %s", s, name)
			}
		}
	}
}

func TestRequiredOptionsDependOnPurpose(t *testing.T) {
	assert.Equal(t, []string{"models"}, RequiredOptions(Eval, PurposeTrain))
	assert.Equal(t,
		[]string{"models", "checkpoint_path", "csv_path", "labelmap_path"},
		RequiredOptions(Eval, PurposeEval))
	assert.Equal(t,
		[]string{"models", "checkpoint_path", "csv_path", "labelmap_path"},
		RequiredOptions(Predict, PurposePredict))

	assert.Equal(t, []string{"data_dir", "labelset"}, RequiredOptions(Prep, PurposeTrain))
	assert.Equal(t, []string{"data_dir"}, RequiredOptions(Prep, PurposePredict))
	assert.Equal(t,
		[]string{"data_dir", "labelset", "train_dur", "test_dur"},
		RequiredOptions(Prep, PurposeLearncurve))

	assert.Equal(t, []string{"models", "root_results_dir", "train_data_path"}, RequiredOptions(Train, PurposeTrain))
}

func TestSectionsWithoutRequiredOptions(t *testing.T) {
	assert.Nil(t, RequiredOptions(SpectParams, PurposeTrain))
	assert.Nil(t, RequiredOptions(DataLoader, PurposeLearncurve))
}

func TestDefaults(t *testing.T) {
	train, _ := Lookup(Train)
	opt, ok := train.Option("n_max_iter")
	require.True(t, ok)
	assert.Equal(t, 18000, opt.DefaultValue(PurposeTrain))

	dl, _ := Lookup(DataLoader)
	shuffle, _ := dl.Option("shuffle")
	assert.Equal(t, true, shuffle.DefaultValue(PurposeTrain))
	assert.Equal(t, true, shuffle.DefaultValue(PurposeLearncurve))
	assert.Equal(t, false, shuffle.DefaultValue(PurposePredict))

	eval, _ := Lookup(Eval)
	ckpt, _ := eval.Option("checkpoint_path")
	assert.Nil(t, ckpt.DefaultValue(PurposeEval))
}

func TestLearncurveExtendsTrain(t *testing.T) {
	train, _ := Lookup(Train)
	lc, _ := Lookup(Learncurve)
	for _, name := range train.Names() {
		_, ok := lc.Option(name)
		assert.True(t, ok, "LEARNCURVE missing %s", name)
	}
	_, ok := lc.Option("train_set_durs")
	assert.True(t, ok)
	_, ok = train.Option("train_set_durs")
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "existing-dir", KindExistingDir.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.True(t, KindExistingFile.IsPath())
	assert.False(t, KindModelList.IsPath())
}
