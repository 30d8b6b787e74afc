package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelsCommand(t *testing.T) {
	home := t.TempDir()
	modelsDir := filepath.Join(home, "models")
	require.NoError(t, os.MkdirAll(modelsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(modelsDir, "ed-tcn.md"), []byte(`---
name: ED_TCN
entrypoint: python -m edtcn
---

# Encoder-decoder TCN

Temporal convolutional network for frame labels.
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(modelsDir, "broken.md"), []byte("no frontmatter"), 0644))

	out, err := execute(t, home, "models")
	require.NoError(t, err)

	assert.Contains(t, out, "TweetyNet (builtin)")
	assert.Contains(t, out, "TeenyTweetyNet (builtin)")
	assert.Contains(t, out, "ED_TCN")
	assert.Contains(t, out, "Encoder-decoder TCN")
	assert.Contains(t, out, "Temporal convolutional network for frame labels.")
	assert.Contains(t, out, "entrypoint: python -m edtcn")
	assert.Contains(t, out, "models directory: "+modelsDir)
	assert.NotContains(t, out, "broken")
}

func TestUserModelIsAcceptedInConfig(t *testing.T) {
	home := t.TempDir()
	modelsDir := filepath.Join(home, "models")
	require.NoError(t, os.MkdirAll(modelsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(modelsDir, "ed-tcn.md"),
		[]byte("---\nname: ED_TCN\nentrypoint: edtcn\n---\n"), 0644))

	root := t.TempDir()
	for _, f := range []string{"checkpoint.pt", "dataset.csv", "labelmap.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte("x"), 0644))
	}
	cfgPath := filepath.Join(root, "eval.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`[EVAL]
models = "ED_TCN, TweetyNet"
checkpoint_path = "checkpoint.pt"
csv_path = "dataset.csv"
labelmap_path = "labelmap.json"
`), 0644))

	out, err := execute(t, home, "validate", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	_, err = execute(t, t.TempDir(), "validate", cfgPath)
	require.Error(t, err, "ED_TCN is not installed in a fresh home")
}
