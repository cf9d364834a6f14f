package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"radiograb/internal/logging"
	"radiograb/internal/services"
)

const (
	profileHE   = "aac_he"
	profileHEv2 = "aac_he_v2"
)

// TranscodeOptions selects the encoder settings.
type TranscodeOptions struct {
	// Quality is the libfdk_aac VBR mode, 1 (lowest) to 5.
	Quality int
	// HEv2 selects the HE-AAC v2 profile (parametric stereo).
	HEv2 bool
	// MaxSeconds limits the output duration when positive.
	MaxSeconds int
}

// Transcoder converts audio files with ffmpeg.
type Transcoder struct {
	binary string
	logger *slog.Logger
}

// NewTranscoder returns a Transcoder for binary, defaulting to "ffmpeg" on PATH.
func NewTranscoder(binary string, logger *slog.Logger) *Transcoder {
	return &Transcoder{binary: binaryOrDefault(binary), logger: logging.NewComponentLogger(logger, "ffmpeg")}
}

// Binary returns the configured ffmpeg executable.
func (t *Transcoder) Binary() string { return t.binary }

// Args returns the ffmpeg arguments for converting input into output.
func (t *Transcoder) Args(input, output string, opts TranscodeOptions) []string {
	args := []string{"-y", "-nostdin", "-hide_banner"}
	if opts.MaxSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(opts.MaxSeconds))
	}
	profile := profileHE
	if opts.HEv2 {
		profile = profileHEv2
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = 1
	}
	args = append(args,
		"-i", input,
		"-c:a", "libfdk_aac",
		"-profile:a", profile,
		"-vbr", strconv.Itoa(quality),
		"-sample_fmt", "s16",
		output,
	)
	return args
}

// Transcode converts input into output. On failure any partial output is
// removed and the returned error wraps services.ErrConversion and an *ExitError.
func (t *Transcoder) Transcode(ctx context.Context, input, output string, opts TranscodeOptions) error {
	if _, err := os.Stat(input); err != nil {
		return services.Wrap(services.ErrConversion, "convert", "stat input", input, err)
	}
	args := t.Args(input, output, opts)
	t.logger.Debug("ffmpeg command", logging.String("command", t.binary+" "+strings.Join(args, " ")))

	var stderr bytes.Buffer
	cmd := commandContext(ctx, t.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			t.logger.Warn("could not remove partial output", logging.String("path", output), logging.Error(rmErr))
		}
		exitErr := newExitError(t.binary, err, &stderr)
		return services.Wrap(services.ErrConversion, "convert", "ffmpeg", fmt.Sprintf("exit code %d", exitErr.ExitCode), exitErr)
	}
	return nil
}
