// Package spect produces the per-file spectrogram artifacts a prep run
// writes. The numerics of computing spectrograms belong to the model
// entrypoints; an artifact records the source file, its duration, and the
// parameters and label mapping the entrypoint must use.
package spect

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/filelock"
)

// Ext is the artifact file extension.
const Ext = ".spect"

// Artifact is the msgpack record written for every source file.
type Artifact struct {
	Source      string                   `msgpack:"source"`
	Format      string                   `msgpack:"format"`
	DurationS   float64                  `msgpack:"duration_s"`
	SampleRate  int                      `msgpack:"sample_rate,omitempty"`
	SpectParams config.SpectParamsConfig `msgpack:"spect_params"`
	Labelmap    map[string]int           `msgpack:"labelmap"`
	AnnotFile   string                   `msgpack:"annot_file,omitempty"`
	AnnotFormat string                   `msgpack:"annot_format,omitempty"`
}

// WriteArtifact encodes a to path.
func WriteArtifact(path string, a *Artifact) error {
	data, err := msgpack.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := filelock.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// ReadArtifact decodes the artifact at path.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return &a, nil
}
