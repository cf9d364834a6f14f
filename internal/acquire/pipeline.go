package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"radiograb/internal/broadcast"
	"radiograb/internal/fileutil"
	"radiograb/internal/logging"
	"radiograb/internal/matcher"
	"radiograb/internal/media/ffmpeg"
	"radiograb/internal/rules"
	"radiograb/internal/services"
	"radiograb/internal/textutil"
)

const (
	originalExt  = ".mp3"
	convertedExt = ".m4a"
)

// Downloader fetches a stream into dest.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Transcoder converts input into output.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string, opts ffmpeg.TranscodeOptions) error
}

// Tagger writes metadata fields into a media file in place.
type Tagger interface {
	Tag(ctx context.Context, path string, tags map[string]string) error
}

// VerifyFunc checks a converted file. A nil VerifyFunc skips verification.
type VerifyFunc func(ctx context.Context, path string) error

// Options controls pipeline behaviour for one run.
type Options struct {
	DownloadBaseDir string
	ConfigDir       string
	DryRun          bool
	Overwrite       bool
	Convert         bool
	HEv2            bool
	MaxSeconds      int
	// ToolTimeout bounds each ffmpeg invocation when positive.
	ToolTimeout time.Duration
}

// Pipeline processes a match set stage by stage.
type Pipeline struct {
	opts       Options
	downloader Downloader
	transcoder Transcoder
	tagger     Tagger
	verify     VerifyFunc
	logger     *slog.Logger
	now        func() time.Time
}

// New constructs a Pipeline. transcoder and tagger may be nil when
// opts.Convert is false.
func New(opts Options, downloader Downloader, transcoder Transcoder, tagger Tagger, verify VerifyFunc, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		opts:       opts,
		downloader: downloader,
		transcoder: transcoder,
		tagger:     tagger,
		verify:     verify,
		logger:     logging.NewComponentLogger(logger, "acquire"),
		now:        time.Now,
	}
}

// ProcessAll runs every pair in set, rules in name order and broadcasts in
// match order. Cancellation stops the batch before the next item starts.
func (p *Pipeline) ProcessAll(ctx context.Context, set *matcher.MatchSet) *Report {
	report := &Report{DryRun: p.opts.DryRun}
	started := p.now()
	total := set.Len()
	index := 0

	for _, group := range set.Groups() {
		for _, item := range group.Items {
			if err := ctx.Err(); err != nil {
				report.Interrupted = err
				report.Elapsed = p.now().Sub(started)
				return report
			}
			index++
			p.logger.Info(
				fmt.Sprintf("> processing %d of %d", index, total),
				logging.Int(logging.FieldItemIndex, index),
				logging.Int(logging.FieldItemCount, total),
				logging.String(logging.FieldRule, group.Rule.Name),
				logging.String("broadcast", textutil.TruncateRunes(item.String(), 80)),
			)
			report.Items = append(report.Items, p.Process(ctx, group.Rule, item))
		}
	}
	report.Elapsed = p.now().Sub(started)
	return report
}

// Process runs the stage sequence for one pair.
func (p *Pipeline) Process(ctx context.Context, rule rules.Rule, item broadcast.Enriched) Item {
	ctx = services.WithRule(ctx, rule.Name)
	ctx = services.WithBroadcast(ctx, item.ID)
	result := Item{Rule: rule.Name, ID: item.ID, Title: item.Title, Scheduled: item.ScheduledAt}

	fields := p.fields(rule, item)
	if err := p.name(ctx, rule, fields, &result); err != nil {
		return p.failed(ctx, result, err)
	}

	fresh, err := p.download(ctx, item, &result)
	if err != nil {
		return p.failed(ctx, result, err)
	}

	if !p.opts.Convert {
		return result
	}
	p.convert(ctx, rule, &result)
	if fresh {
		p.tag(ctx, rule, fields, &result)
	}
	if !rule.KeepOriginal {
		p.applyRetention(ctx, &result)
	}
	return result
}

func (p *Pipeline) failed(ctx context.Context, result Item, err error) Item {
	logging.WarnWithContext(logging.WithContext(ctx, p.logger), "broadcast failed", "item_failed",
		logging.Error(err),
		logging.String("error_class", services.Classify(err)),
		logging.String(logging.FieldImpact, "broadcast skipped for this run"),
	)
	return result.fail(err)
}

func (p *Pipeline) fields(rule rules.Rule, item broadcast.Enriched) map[string]string {
	fields := item.Fields()
	fields[rules.FieldSection] = rule.Name
	fields[rules.FieldDownloadBaseDir] = p.opts.DownloadBaseDir
	fields[rules.FieldConfigDir] = p.opts.ConfigDir
	fields[rules.FieldScriptDir] = p.opts.ConfigDir
	return fields
}

func (p *Pipeline) name(ctx context.Context, rule rules.Rule, fields map[string]string, result *Item) error {
	ctx = services.WithStage(ctx, "name")
	logger := logging.WithContext(ctx, p.logger)

	dir, err := textutil.Render(rule.TargetDir, fields)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "name", "render TargetDir", rule.TargetDir, err)
	}
	rendered, err := textutil.Render(rule.TargetName, fields)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "name", "render TargetName", rule.TargetName, err)
	}
	name := strings.TrimSpace(textutil.SanitizeFileName(rendered))
	if name == "" {
		return services.Wrap(services.ErrConfiguration, "name", "render TargetName", "template produced an empty file name", nil)
	}
	dir = filepath.Clean(dir)

	result.Dir = dir
	result.Original = filepath.Join(dir, name+originalExt)
	result.Converted = filepath.Join(dir, name+convertedExt)
	logger.Debug("target resolved",
		logging.String("original", result.Original),
		logging.String("converted", result.Converted),
	)

	if p.opts.DryRun {
		return nil
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return services.Wrap(services.ErrTransport, "name", "create target dir", dir, err)
	}
	return nil
}

// download reports whether a fresh download happened (or would happen in a dry run).
func (p *Pipeline) download(ctx context.Context, item broadcast.Enriched, result *Item) (bool, error) {
	ctx = services.WithStage(ctx, "download")
	logger := logging.WithContext(ctx, p.logger)

	present := fileutil.IsFile(result.Original) || fileutil.IsFile(result.Converted)
	if present && !p.opts.Overwrite {
		result.Status = StatusPresent
		logger.Info("skipping already existing file",
			decision("download", "skipped", "file exists",
				logging.String("path", result.Original))...)
		return false, nil
	}

	if p.opts.DryRun {
		result.Status = StatusPlanned
		logger.Info("dry run: would download",
			decision("download", "would_download", "dry run",
				logging.String("url", item.StreamURL),
				logging.String("path", result.Original))...)
		return true, nil
	}

	if strings.TrimSpace(item.StreamURL) == "" {
		return false, services.Wrap(services.ErrTransport, "download", "resolve stream", "broadcast has no stream url", nil)
	}
	// Only a file this attempt created is cleaned up; a replaced original stays.
	existed := fileutil.IsFile(result.Original)
	started := p.now()
	size, err := p.downloader.Download(ctx, item.StreamURL, result.Original)
	if err != nil {
		if !existed {
			_ = removeFile(result.Original)
		}
		return false, err
	}
	result.Status = StatusDownloaded
	result.Bytes = size
	logger.Info("download completed",
		logging.String("path", result.Original),
		logging.Int64("bytes", size),
		logging.Duration("elapsed", p.now().Sub(started)),
	)
	return true, nil
}

func (p *Pipeline) convert(ctx context.Context, rule rules.Rule, result *Item) {
	ctx = services.WithStage(ctx, "convert")
	logger := logging.WithContext(ctx, p.logger)

	if fileutil.IsFile(result.Converted) && !p.opts.Overwrite {
		logger.Debug("conversion skipped",
			decision("convert", "skipped", "converted file exists",
				logging.String("path", result.Converted))...)
		return
	}
	if p.opts.DryRun {
		logger.Info("dry run: would convert",
			decision("convert", "would_convert", "dry run",
				logging.String("path", result.Converted),
				logging.Int("quality", rule.Quality),
				logging.Bool("he_v2", p.opts.HEv2))...)
		return
	}
	if !fileutil.IsFile(result.Original) {
		result.warn(services.Wrap(services.ErrConversion, "convert", "locate input", "original file missing: "+result.Original, nil))
		logging.WarnWithContext(logger, "conversion skipped", "convert_input_missing",
			logging.String("path", result.Original),
			logging.String(logging.FieldImpact, "no converted file for this broadcast"),
		)
		return
	}

	opts := ffmpeg.TranscodeOptions{Quality: rule.Quality, HEv2: p.opts.HEv2, MaxSeconds: p.opts.MaxSeconds}
	started := p.now()
	toolCtx, cancel := p.toolContext(ctx)
	defer cancel()
	if err := p.transcoder.Transcode(toolCtx, result.Original, result.Converted, opts); err != nil {
		result.warn(err)
		logging.WarnWithContext(logger, "conversion failed", "convert_failed",
			logging.Error(err),
			logging.String("path", result.Original),
			logging.String(logging.FieldErrorHint, "check the ffmpeg build supports libfdk_aac"),
			logging.String(logging.FieldImpact, "original file kept, no converted file"),
		)
		return
	}

	if p.verify != nil {
		if err := p.verify(ctx, result.Converted); err != nil {
			_ = fileutil.RemoveFile(result.Converted)
			result.warn(err)
			logging.WarnWithContext(logger, "converted file failed verification", "convert_verify_failed",
				logging.Error(err),
				logging.String("path", result.Converted),
				logging.String(logging.FieldImpact, "converted file removed, original kept"),
			)
			return
		}
	}

	result.ConvertedNow = true
	logger.Info("conversion completed",
		logging.String("path", result.Converted),
		logging.Duration("elapsed", p.now().Sub(started)),
	)
}

func (p *Pipeline) tag(ctx context.Context, rule rules.Rule, fields map[string]string, result *Item) {
	ctx = services.WithStage(ctx, "tag")
	logger := logging.WithContext(ctx, p.logger)

	if p.opts.DryRun {
		logger.Info("dry run: would tag",
			decision("tag", "would_tag", "dry run",
				logging.String("path", result.Converted))...)
		return
	}
	if !fileutil.IsFile(result.Converted) {
		logger.Debug("tagging skipped", decision("tag", "skipped", "no converted file")...)
		return
	}

	tags, renderErr := rule.RenderTags(fields)
	if renderErr != nil {
		wrapped := services.Wrap(services.ErrTagging, "tag", "render", "some tag templates failed", renderErr)
		result.warn(wrapped)
		logging.WarnWithContext(logger, "tag templates failed to render", "tag_render_failed",
			logging.Error(renderErr),
			logging.String(logging.FieldErrorHint, "check the Tag* templates of the rule"),
			logging.String(logging.FieldImpact, "affected fields left out"),
		)
	}
	if len(tags) == 0 {
		return
	}
	toolCtx, cancel := p.toolContext(ctx)
	defer cancel()
	if err := p.tagger.Tag(toolCtx, result.Converted, tags); err != nil {
		result.warn(err)
		logging.WarnWithContext(logger, "tagging failed", "tag_failed",
			logging.Error(err),
			logging.String("path", result.Converted),
			logging.String(logging.FieldImpact, "file kept without some or all tags"),
		)
		var skipped *ffmpeg.SkippedFieldsError
		if !errors.As(err, &skipped) {
			return
		}
	}
	result.Tagged = true
	logger.Info("tags written", logging.Int("fields", len(tags)))
}

// decision builds the record arguments for a skip or would-do log line.
func decision(kind, result, reason string, attrs ...logging.Attr) []any {
	return logging.Args(append(logging.DecisionAttrs(kind, result, reason), attrs...)...)
}

func (p *Pipeline) toolContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.ToolTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.opts.ToolTimeout)
}

func (p *Pipeline) applyRetention(ctx context.Context, result *Item) {
	ctx = services.WithStage(ctx, "retention")
	logger := logging.WithContext(ctx, p.logger)

	if p.opts.DryRun {
		if result.Status != StatusPlanned && !fileutil.IsFile(result.Original) {
			return
		}
		logger.Info("dry run: would delete original",
			decision("retention", "would_delete", "KeepOriginal is false",
				logging.String("path", result.Original))...)
		return
	}
	if !fileutil.IsFile(result.Original) {
		return
	}
	if !fileutil.IsFile(result.Converted) {
		logger.Info("keeping original",
			decision("retention", "kept", "no converted file",
				logging.String("path", result.Original))...)
		return
	}
	logger.Info("deleting original file", logging.String("path", result.Original))
	if err := removeFile(result.Original); err != nil {
		wrapped := services.Wrap(services.ErrRetention, "retention", "delete original", result.Original, err)
		result.warn(wrapped)
		logging.WarnWithContext(logger, "could not delete original", "retention_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "original file left next to converted file"),
		)
		return
	}
	result.OriginalRemoved = true
}
