package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/songdeck/internal/parser"
)

func TestValidateCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "data"), 0755))
	cfgPath := filepath.Join(root, "c.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`[PREP]
data_dir = "data"
audio_format = "wav"
labelset = "iab"

[SPECT_PARAMS]
fft_size = 1024

[TRAIN]
models = "TweetyNet"
root_results_dir = "no_such_dir"
`), 0644))

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantOut []string
	}{
		{
			name:    "whole document",
			args:    nil,
			wantErr: parser.ErrNotADirectory,
		},
		{
			name:    "sections filter skips TRAIN",
			args:    []string{"--sections", "PREP,SPECT_PARAMS"},
			wantOut: []string{"purpose: train", "[PREP] 3 of", "[SPECT_PARAMS] 1 of", "valid"},
		},
		{
			name:    "repeated sections flag",
			args:    []string{"--sections", "PREP", "--sections", "SPECT_PARAMS"},
			wantOut: []string{"[PREP]", "[SPECT_PARAMS]", "valid"},
		},
		{
			name:    "unknown section name",
			args:    []string{"--sections", "PERP"},
			wantErr: parser.ErrStructural,
		},
		{
			name:    "purpose predict drops labelset requirement",
			args:    []string{"--sections", "PREP", "--purpose", "predict"},
			wantOut: []string{"purpose: predict", "valid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"validate", cfgPath}, tt.args...)
			out, err := execute(t, t.TempDir(), args...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestValidateBadPurpose(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "c.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[SPECT_PARAMS]\n"), 0644))

	_, err := execute(t, t.TempDir(), "validate", cfgPath, "--purpose", "fly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid purpose")
}

func TestValidateTrainAndLearncurve(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "c.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[TRAIN]\n\n[LEARNCURVE]\n"), 0644))

	// Rejected even when both sections are filtered out.
	_, err := execute(t, t.TempDir(), "validate", cfgPath, "--sections", "SPECT_PARAMS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrStructural))
}
