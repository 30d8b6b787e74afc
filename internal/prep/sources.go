package prep

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/songdeck/internal/config"
	"github.com/harrison/songdeck/internal/fileutil"
	"github.com/harrison/songdeck/internal/parser"
)

// Source is one input file and the annotation that goes with it.
type Source struct {
	Path        string
	Format      string
	AnnotFile   string
	AnnotFormat string
}

// Discover finds the files a prep run converts. With spect_format set it
// takes every file of that extension in data_dir. With audio_format set it
// only looks for that format: .cbin files in data_dir and then in its
// immediate subdirectories, or .wav files in data_dir. When neither is set
// it tries .cbin before .wav.
func Discover(p *config.PrepConfig) ([]Source, error) {
	if p.SpectFormat != "" {
		files, err := scan(p.DataDir, p.SpectFormat, 1)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, notFound(p.DataDir, "."+p.SpectFormat)
		}
		return withAnnotation(files, p.SpectFormat, p.AnnotFile, p.AnnotFormat), nil
	}

	switch p.AudioFormat {
	case "cbin":
		cbins, err := findCbins(p.DataDir)
		if err != nil {
			return nil, err
		}
		if len(cbins) == 0 {
			return nil, notFound(p.DataDir, ".cbin")
		}
		return notmatSources(cbins, p), nil
	case "wav":
		return wavSources(p, ".wav")
	case "":
	default:
		return nil, parser.Errorf(parser.KindValue, "PREP", "audio_format", "unsupported audio format %q", p.AudioFormat)
	}

	cbins, err := findCbins(p.DataDir)
	if err != nil {
		return nil, err
	}
	if len(cbins) > 0 {
		return notmatSources(cbins, p), nil
	}
	return wavSources(p, ".cbin or .wav")
}

// findCbins searches data_dir, then its immediate subdirectories.
func findCbins(dir string) ([]string, error) {
	cbins, err := scan(dir, "cbin", 1)
	if err != nil || len(cbins) > 0 {
		return cbins, err
	}
	return scan(dir, "cbin", 2)
}

func wavSources(p *config.PrepConfig, missing string) ([]Source, error) {
	wavs, err := scan(p.DataDir, "wav", 1)
	if err != nil {
		return nil, err
	}
	if len(wavs) == 0 {
		return nil, notFound(p.DataDir, missing)
	}
	annot, format, err := wavAnnotation(p)
	if err != nil {
		return nil, err
	}
	return withAnnotation(wavs, "wav", annot, format), nil
}

func scan(dir, ext string, depth int) ([]string, error) {
	result, err := fileutil.ScanDirectory(dir, fileutil.ScanOptions{
		Extensions: []string{ext},
		Recursive:  depth > 1,
		MaxDepth:   depth,
	})
	if err != nil {
		return nil, &parser.Error{Kind: parser.KindNotADirectory, Section: "PREP", Option: "data_dir", Value: dir, Err: err}
	}
	return result.Files, nil
}

func notFound(dir, what string) error {
	return &parser.Error{
		Kind:    parser.KindFileNotFound,
		Section: "PREP",
		Option:  "data_dir",
		Value:   dir,
		Message: fmt.Sprintf("no %s files found in %s or its subdirectories", what, dir),
	}
}

func withAnnotation(files []string, format, annot, annotFormat string) []Source {
	out := make([]Source, len(files))
	for i, f := range files {
		out[i] = Source{Path: f, Format: format, AnnotFile: annot, AnnotFormat: annotFormat}
	}
	return out
}

// notmatSources pairs each .cbin with its <file>.not.mat annotation when
// one exists.
func notmatSources(cbins []string, p *config.PrepConfig) []Source {
	format := p.AnnotFormat
	if format == "" {
		format = "notmat"
	}
	out := make([]Source, len(cbins))
	for i, f := range cbins {
		s := Source{Path: f, Format: "cbin", AnnotFormat: format, AnnotFile: p.AnnotFile}
		if s.AnnotFile == "" {
			if _, err := os.Stat(f + ".not.mat"); err == nil {
				s.AnnotFile = f + ".not.mat"
			}
		}
		out[i] = s
	}
	return out
}

// wavAnnotation picks the annotation shared by every .wav file: annot_file
// when given, else the one *annotation*.mat in data_dir, else
// ../Annotation.xml. Finding none is not an error.
func wavAnnotation(p *config.PrepConfig) (path, format string, err error) {
	if p.AnnotFile != "" {
		return p.AnnotFile, p.AnnotFormat, nil
	}

	mat, err := fileutil.FindOne(p.DataDir, "*annotation*.mat")
	if errors.Is(err, fileutil.ErrAmbiguous) {
		return "", "", &parser.Error{
			Kind:    parser.KindValue,
			Section: "PREP",
			Option:  "annot_file",
			Message: "cannot pick an annotation file; set annot_file",
			Err:     err,
		}
	}
	if err != nil {
		return "", "", err
	}
	if mat != "" {
		return mat, formatOr(p.AnnotFormat, "yarden"), nil
	}

	xml := filepath.Join(filepath.Dir(filepath.Clean(p.DataDir)), "Annotation.xml")
	if info, err := os.Stat(xml); err == nil && !info.IsDir() {
		return xml, formatOr(p.AnnotFormat, "koumura"), nil
	}
	return "", p.AnnotFormat, nil
}

func formatOr(configured, inferred string) string {
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	return inferred
}
