package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"

	"radiograb/internal/logging"
	"radiograb/internal/services"
)

// Tagger writes metadata tags by remuxing a file with ffmpeg.
type Tagger struct {
	binary string
	logger *slog.Logger
}

// NewTagger returns a Tagger for binary, defaulting to "ffmpeg" on PATH.
func NewTagger(binary string, logger *slog.Logger) *Tagger {
	return &Tagger{binary: binaryOrDefault(binary), logger: logging.NewComponentLogger(logger, "tagger")}
}

// Tag stamps tags onto path. A comment tag is also written as description.
// Fields with unusable names are skipped and reported in the returned error
// while the remaining fields are still saved. The error wraps
// services.ErrTagging.
func (t *Tagger) Tag(ctx context.Context, path string, tags map[string]string) error {
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrTagging, "tag", "stat", path, err)
	}

	fields, fieldErrs := metadataFields(tags)
	if len(fields) == 0 {
		return errors.Join(fieldErrs...)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithExistingPermissions())
	if err != nil {
		return services.Wrap(services.ErrTagging, "tag", "create pending file", path, err)
	}
	defer func() { _ = pending.Cleanup() }()

	args := t.Args(path, pending.Name(), fields)
	var stderr bytes.Buffer
	cmd := commandContext(ctx, t.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return services.Wrap(services.ErrTagging, "tag", "ffmpeg", path, newExitError(t.binary, err, &stderr))
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return services.Wrap(services.ErrTagging, "tag", "replace", path, err)
	}

	t.logger.Debug("tagged file", logging.String("path", path), logging.Int("fields", len(fields)))
	if len(fieldErrs) == 0 {
		return nil
	}
	for _, fieldErr := range fieldErrs {
		t.logger.Warn("tag field skipped", logging.String("path", path), logging.Error(fieldErr))
	}
	return &SkippedFieldsError{Written: len(fields), Errs: fieldErrs}
}

// SkippedFieldsError is returned by Tag when the file was tagged but some
// fields had to be left out.
type SkippedFieldsError struct {
	Written int
	Errs    []error
}

func (e *SkippedFieldsError) Error() string {
	return fmt.Sprintf("%d tag field(s) skipped: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *SkippedFieldsError) Unwrap() []error { return e.Errs }

// Args returns the ffmpeg arguments that copy input to output with fields
// as container metadata.
func (t *Tagger) Args(input, output string, fields []Field) []string {
	args := []string{
		"-y", "-nostdin", "-hide_banner", "-v", "error",
		"-i", input,
		"-map", "0", "-map_metadata", "0", "-c", "copy",
		"-movflags", "use_metadata_tags",
	}
	for _, f := range fields {
		args = append(args, "-metadata", f.Name+"="+f.Value)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(input)), ".")
	if ext == "m4a" || ext == "mp4" || ext == "" {
		ext = "mp4"
	}
	return append(args, "-f", ext, output)
}

// Field is one metadata key and value.
type Field struct {
	Name  string
	Value string
}

// metadataFields orders tags by name, adds description alongside comment,
// and rejects names ffmpeg cannot take as a -metadata key.
func metadataFields(tags map[string]string) ([]Field, []error) {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		fields []Field
		errs   []error
	)
	for _, name := range names {
		key := strings.TrimSpace(name)
		if key == "" || strings.ContainsAny(key, "= \t\r\n") {
			errs = append(errs, services.Wrap(services.ErrTagging, "tag", "field", fmt.Sprintf("invalid tag name %q", name), nil))
			continue
		}
		fields = append(fields, Field{Name: key, Value: tags[name]})
		if key == "comment" {
			if _, explicit := tags["description"]; !explicit {
				fields = append(fields, Field{Name: "description", Value: tags[name]})
			}
		}
	}
	return fields, errs
}
