// Package dataset describes the splits a prep run produces. A Dict lists
// the spectrogram artifacts of one split with their durations and is saved
// as YAML for the train/learncurve/eval commands to read back.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/filelock"
)

// Split names.
const (
	Train = "train"
	Val   = "val"
	Test  = "test"
)

// Splits lists split names in the order they are written.
var Splits = []string{Train, Val, Test}

// CSVFilename is the name of the listing of every file in every split.
const CSVFilename = "dataset.csv"

// Entry is one file of a split.
type Entry struct {
	SpectPath  string  `yaml:"spect_path"`
	SourcePath string  `yaml:"source_path"`
	Duration   float64 `yaml:"duration_s"`
}

// Dict is a saved split.
type Dict struct {
	ID          string                   `yaml:"id"`
	Split       string                   `yaml:"split"`
	Duration    float64                  `yaml:"duration_s"`
	Labelmap    map[string]int           `yaml:"labelmap"`
	SpectParams config.SpectParamsConfig `yaml:"spect_params"`
	Files       []Entry                  `yaml:"files"`
}

// NewDict builds a Dict with a fresh ID and the summed duration of files.
func NewDict(split string, files []Entry, labelmap map[string]int, params config.SpectParamsConfig) *Dict {
	d := &Dict{
		ID:          uuid.NewString(),
		Split:       split,
		Labelmap:    labelmap,
		SpectParams: params,
		Files:       files,
	}
	d.Duration = TotalDuration(files)
	return d
}

// TotalDuration sums entry durations.
func TotalDuration(files []Entry) float64 {
	var total float64
	for _, f := range files {
		total += f.Duration
	}
	return total
}

// Filename returns the file a dict for split is saved as.
func Filename(split string) string {
	return split + ".dataset.yaml"
}

// Save writes d into dir and returns the path written.
func (d *Dict) Save(dir string) (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode %s dataset: %w", d.Split, err)
	}
	path := filepath.Join(dir, Filename(d.Split))
	if err := filelock.AtomicWrite(path, data); err != nil {
		return "", fmt.Errorf("save %s dataset: %w", d.Split, err)
	}
	return path, nil
}

// Load reads a dict saved by Save.
func Load(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var d Dict
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	if d.Split == "" {
		return nil, fmt.Errorf("dataset %s: missing split", path)
	}
	return &d, nil
}

// WriteCSV lists every file of dicts in one CSV with its split.
func WriteCSV(path string, dicts []*Dict) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"split", "spect_path", "source_path", "duration_s"}); err != nil {
		return fmt.Errorf("write dataset csv: %w", err)
	}
	for _, d := range dicts {
		for _, e := range d.Files {
			rec := []string{d.Split, e.SpectPath, e.SourcePath, strconv.FormatFloat(e.Duration, 'f', -1, 64)}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write dataset csv: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write dataset csv: %w", err)
	}
	return f.Close()
}

// ReadCSV reads a listing written by WriteCSV, grouped by split.
func ReadCSV(path string) (map[string][]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset csv %s: %w", path, err)
	}
	out := make(map[string][]Entry)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) != 4 {
			return nil, fmt.Errorf("dataset csv %s line %d: expected 4 columns, got %d", path, i+1, len(row))
		}
		dur, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("dataset csv %s line %d: bad duration %q", path, i+1, row[3])
		}
		out[row[0]] = append(out[row[0]], Entry{SpectPath: row[1], SourcePath: row[2], Duration: dur})
	}
	return out, nil
}
