package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"radiograb/internal/services"
)

// commandContext is replaced in tests.
var commandContext = exec.CommandContext

// Probe is the subset of ffprobe's -show_format -show_streams JSON that
// radiograb reads.
type Probe struct {
	Streams []Stream `json:"streams"`
	Format  struct {
		FormatName string            `json:"format_name"`
		Duration   string            `json:"duration"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
}

type Stream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Profile    string `json:"profile"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Inspect runs binary (default "ffprobe") against path.
func Inspect(ctx context.Context, binary, path string) (Probe, error) {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Probe{}, errors.New("ffprobe: empty path")
	}

	output, err := commandContext(ctx, binary, "-v", "error", "-hide_banner",
		"-show_format", "-show_streams", "-of", "json", "--", path).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return Probe{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Probe{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probe Probe
	if err := json.Unmarshal(output, &probe); err != nil {
		return Probe{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	return probe, nil
}

// Audio returns the first audio stream.
func (p Probe) Audio() (Stream, bool) {
	for _, s := range p.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			return s, true
		}
	}
	return Stream{}, false
}

// Duration returns the container duration; zero when missing or unparsable.
func (p Probe) Duration() time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(p.Format.Duration), 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Tag looks up a container tag case-insensitively; muxers differ on key case.
func (p Probe) Tag(key string) (string, bool) {
	for k, v := range p.Format.Tags {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Verify checks that a converted file holds an AAC audio stream with a
// positive duration. Failures wrap services.ErrConversion.
func Verify(ctx context.Context, binary, path string) (Probe, error) {
	probe, err := Inspect(ctx, binary, path)
	if err != nil {
		return Probe{}, services.Wrap(services.ErrConversion, "verify", "ffprobe", path, err)
	}
	audio, ok := probe.Audio()
	if !ok {
		return probe, services.Wrap(services.ErrConversion, "verify", "streams", "no audio stream in "+path, nil)
	}
	if audio.CodecName != "" && !strings.EqualFold(audio.CodecName, "aac") {
		return probe, services.Wrap(services.ErrConversion, "verify", "codec",
			fmt.Sprintf("unexpected codec %q in %s", audio.CodecName, path), nil)
	}
	if probe.Duration() <= 0 {
		return probe, services.Wrap(services.ErrConversion, "verify", "duration",
			fmt.Sprintf("invalid duration %q in %s", probe.Format.Duration, path), nil)
	}
	return probe, nil
}
