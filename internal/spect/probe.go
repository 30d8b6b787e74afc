package spect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Info is what a Prober learns about a source file.
type Info struct {
	FormatName string
	Duration   float64 // seconds
	SampleRate int
	Channels   int
}

// Prober measures source files.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, path string) (Info, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, path string) (Info, error) {
	return f(ctx, path)
}

// FFProbe probes audio files with the ffprobe binary.
type FFProbe struct {
	Bin string // defaults to "ffprobe"
}

// Probe runs ffprobe on path and reads the container duration and the first
// audio stream.
func (p FFProbe) Probe(ctx context.Context, path string) (Info, error) {
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin, "-v", "error", "-show_format", "-show_streams", "-of", "json", path)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return Info{}, fmt.Errorf("ffprobe %s: %v: %s", path, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseFFProbe(out)
}

func parseFFProbe(out []byte) (Info, error) {
	var ff struct {
		Format struct {
			FormatName string `json:"format_name"`
			Duration   string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &ff); err != nil {
		return Info{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := Info{FormatName: ff.Format.FormatName}
	info.Duration, _ = strconv.ParseFloat(strings.TrimSpace(ff.Format.Duration), 64)
	for _, s := range ff.Streams {
		if s.CodecType != "audio" {
			continue
		}
		info.SampleRate, _ = strconv.Atoi(strings.TrimSpace(s.SampleRate))
		info.Channels = s.Channels
		if info.Duration == 0 {
			info.Duration, _ = strconv.ParseFloat(strings.TrimSpace(s.Duration), 64)
		}
		break
	}
	if info.Duration <= 0 {
		return Info{}, fmt.Errorf("ffprobe reported no duration")
	}
	return info, nil
}
