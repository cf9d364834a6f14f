package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"radiograb/internal/acquire"
	"radiograb/internal/config"
	"radiograb/internal/deps"
	"radiograb/internal/fetch"
	"radiograb/internal/fileutil"
	"radiograb/internal/logging"
	"radiograb/internal/matcher"
	"radiograb/internal/media/ffmpeg"
	"radiograb/internal/media/ffprobe"
	"radiograb/internal/notifications"
	"radiograb/internal/preflight"
	"radiograb/internal/rules"
	"radiograb/internal/services"
)

type runOptions struct {
	dryRun    bool
	noCache   bool
	overwrite bool
	he2       bool
	noConvert bool
	ffmpeg    string
	from      string
	to        string
	limit     int
}

func (o *runOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&o.dryRun, "dry-run", false, "Log what would be done without downloading or converting")
	flags.BoolVar(&o.noCache, "no-cache", false, "Ignore cached catalog pages (fresh pages are still cached)")
	flags.BoolVar(&o.overwrite, "overwrite", false, "Download and convert again even if files exist")
	flags.BoolVar(&o.he2, "he2", false, "Encode with the HE-AAC v2 profile")
	flags.BoolVar(&o.noConvert, "no-convert", false, "Keep the downloaded mp3 and skip conversion, tagging, and retention")
	flags.StringVar(&o.ffmpeg, "ffmpeg", "", "Path to the ffmpeg binary")
	flags.StringVar(&o.from, "from", "", "First catalog day to scan (YYYY-MM-DD)")
	flags.StringVar(&o.to, "to", "", "Last catalog day to scan (YYYY-MM-DD)")
	flags.IntVar(&o.limit, "limit", 0, "Limit converted output to this many seconds")
}

// apply folds command line overrides into cfg.
func (o *runOptions) apply(cfg *config.Config) {
	if strings.TrimSpace(o.ffmpeg) != "" {
		cfg.Transcode.FFmpegBinary = strings.TrimSpace(o.ffmpeg)
	}
	if o.he2 {
		cfg.Transcode.HEv2 = true
	}
	if o.limit > 0 {
		cfg.Transcode.MaxSeconds = o.limit
	}
	if o.noConvert {
		cfg.Transcode.Enabled = false
	}
}

func newRunCommand(ctx *commandContext, opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the catalog, match rules, and download new broadcasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAcquisition(cmd, ctx, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runAcquisition(cmd *cobra.Command, cc *commandContext, opts *runOptions) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	opts.apply(cfg)

	started := time.Now()
	runID := uuid.NewString()
	baseLogger, err := cc.logger(runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := logging.NewComponentLogger(baseLogger, "run")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ruleSet, err := compileRules(cfg, logger)
	if err != nil {
		return err
	}
	if len(ruleSet) == 0 {
		fmt.Fprintln(out, `No rules configured; add [rules."<Name>"] tables to the configuration.`)
		return nil
	}

	if err := prepareDirectories(cfg, opts.dryRun); err != nil {
		return services.Wrap(services.ErrConfiguration, "startup", "directories", "", err)
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another radiograb run is already in progress (lock %s)", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	if !opts.dryRun {
		if err := runPreflight(ctx, cfg, logger); err != nil {
			return err
		}
	}

	session, err := openCatalogSession(ctx, cfg, baseLogger, opts.noCache)
	if err != nil {
		return err
	}
	defer session.close(ctx)

	start, end, err := resolveRange(opts.from, opts.to, cfg.Catalog.LookbackDays, session.fetcher.Location(), time.Now())
	if err != nil {
		return err
	}
	logger.Info("scanning catalog",
		logging.String("from", start.Format("2006-01-02")),
		logging.String("to", end.Format("2006-01-02")),
		logging.Int("rules", len(ruleSet)),
		logging.Bool("dry_run", opts.dryRun),
	)

	records, err := session.fetcher.Collect(ctx, start, end)
	if err != nil {
		return err
	}
	finder := matcher.New(session.fetcher, baseLogger)
	matches := finder.FindMatches(ctx, ruleSet, records)
	logger.Info("catalog matched",
		logging.Int("broadcasts", len(records)),
		logging.Int("matches", matches.Len()),
		logging.Int("enriched", finder.Enriched()),
	)

	pipeline := newPipeline(cfg, opts, baseLogger)
	report := pipeline.ProcessAll(ctx, matches)
	session.flush(ctx)

	if len(report.Items) > 0 {
		fmt.Fprintln(out, renderReport(out, report))
	}
	if err := report.WriteSummary(out); err != nil {
		return err
	}

	if !opts.dryRun {
		summary := notifications.RunSummary{
			RunID:      runID,
			Downloaded: report.Downloaded(),
			Converted:  report.Converted(),
			Failed:     len(report.Failed()),
			Skipped:    report.Count(acquire.StatusPresent),
			Duration:   time.Since(started),
		}
		if err := notifications.NewService(cfg).NotifyRunCompleted(context.WithoutCancel(ctx), summary); err != nil {
			logging.WarnWithContext(logger, "run notification failed", "notify_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "no push notification for this run"),
			)
		}
	}

	logger.Info("run finished",
		logging.Int("downloaded", len(report.Downloaded())),
		logging.Int("converted", len(report.Converted())),
		logging.Int("failed", len(report.Failed())),
		logging.Int("warnings", report.WarningCount()),
		logging.Duration("elapsed", time.Since(started)),
	)
	if cfg.Paths.LogDir != "" {
		logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logging.LogFilePath(cfg.Paths.LogDir, time.Now()))
	}
	return report.Interrupted
}

// prepareDirectories creates the run's directories. A dry run leaves the
// download library alone and only needs the lock and log locations.
func prepareDirectories(cfg *config.Config, dryRun bool) error {
	if !dryRun {
		return cfg.EnsureDirectories()
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := fileutil.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

func compileRules(cfg *config.Config, logger *slog.Logger) ([]rules.Rule, error) {
	ruleSet, err := rules.FromConfig(cfg)
	if err != nil {
		if !services.IsFatal(err) {
			err = services.Wrap(services.ErrConfiguration, "startup", "compile rules", "", err)
		}
		return nil, err
	}
	for _, r := range ruleSet {
		for _, warning := range r.Warnings() {
			logging.WarnWithContext(logger, "rule warning", "rule_warning",
				logging.String(logging.FieldRule, r.Name),
				logging.String("detail", warning),
				logging.String(logging.FieldImpact, "rule still runs"),
			)
		}
	}
	return ruleSet, nil
}

func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed || r.Fatal {
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
		)
	}
	if failed, ok := preflight.FirstFatal(results); ok {
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_fatal",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "fix the directory or its permissions, then rerun"),
		)
		return services.Wrap(services.ErrConfiguration, "preflight", failed.Name, failed.Detail, nil)
	}

	statuses := preflight.CheckSystemDeps(ctx, cfg)
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		parts := make([]string, 0, len(missing))
		for _, m := range missing {
			parts = append(parts, fmt.Sprintf("%s: %s", m.Name, m.Detail))
		}
		return services.Wrap(services.ErrExternalTool, "preflight", "dependencies",
			strings.Join(parts, "; ")+" (use --no-convert to download only)", nil)
	}
	return nil
}

func newPipeline(cfg *config.Config, opts *runOptions, logger *slog.Logger) *acquire.Pipeline {
	var verify acquire.VerifyFunc
	if cfg.Transcode.Verify {
		binary := cfg.Transcode.FFprobeBinary
		verify = func(ctx context.Context, path string) error {
			_, err := ffprobe.Verify(ctx, binary, path)
			return err
		}
	}
	return acquire.New(
		acquire.Options{
			DownloadBaseDir: cfg.Paths.DownloadDir,
			ConfigDir:       cfg.SourceDir(),
			DryRun:          opts.dryRun,
			Overwrite:       opts.overwrite,
			Convert:         cfg.Transcode.Enabled,
			HEv2:            cfg.Transcode.HEv2,
			MaxSeconds:      cfg.Transcode.MaxSeconds,
			ToolTimeout:     time.Duration(cfg.Transcode.Timeout) * time.Second,
		},
		fetch.NewDownloaderFromConfig(cfg, logger),
		ffmpeg.NewTranscoder(cfg.Transcode.FFmpegBinary, logger),
		ffmpeg.NewTagger(cfg.Transcode.FFmpegBinary, logger),
		verify,
		logger,
	)
}

func renderReport(out io.Writer, report *acquire.Report) string {
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		converted := "-"
		if item.ConvertedNow {
			converted = "yes"
		}
		note := ""
		if problem := item.Problem(); problem != nil {
			note = services.Classify(problem)
			if errors.Is(problem, context.Canceled) {
				note = "cancelled"
			}
		}
		rows = append(rows, []string{
			item.Rule,
			item.Scheduled.Format("2006-01-02 15:04"),
			item.Title,
			string(item.Status),
			converted,
			yesNo(item.Tagged),
			sizeLabel(item.Bytes),
			note,
		})
	}
	return renderTable(out,
		[]string{"Rule", "Scheduled", "Title", "Status", "Converted", "Tagged", "Size", "Problem"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func sizeLabel(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytes))
}
