package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"radiograb/internal/broadcast"
	"radiograb/internal/config"
	"radiograb/internal/textutil"
)

// Tag is one output metadata field and the template that renders its value.
type Tag struct {
	Field    string
	Template string
}

// Rule is a compiled subscription rule. It is immutable after Compile.
type Rule struct {
	Name         string
	Window       TimeWindow
	TitlePattern *regexp.Regexp
	InfoPattern  *regexp.Regexp
	TargetDir    string
	TargetName   string
	KeepOriginal bool
	Quality      int
	Tags         []Tag

	days     map[int]struct{}
	warnings []string
}

// Compile merges section over overrides over Defaults and validates the result.
func Compile(name string, section, overrides map[string]string) (Rule, error) {
	merged := Defaults()
	for k, v := range overrides {
		merged[k] = v
	}
	for k, v := range section {
		merged[k] = v
	}

	rule := Rule{Name: name}
	fail := func(key string, err error) (Rule, error) {
		return Rule{}, &ConfigError{Rule: name, Key: key, Value: merged[key], Err: err}
	}

	var err error
	if rule.Window, err = ParseTimeWindow(merged[KeyTimeWindow]); err != nil {
		return fail(KeyTimeWindow, err)
	}
	if rule.days, err = ParseDays(merged[KeyDays]); err != nil {
		return fail(KeyDays, err)
	}
	if rule.TitlePattern, err = compilePattern(merged[KeyTitle]); err != nil {
		return fail(KeyTitle, err)
	}
	if rule.InfoPattern, err = compilePattern(merged[KeyInfo]); err != nil {
		return fail(KeyInfo, err)
	}
	if rule.KeepOriginal, err = parseFlag(merged[KeyKeepOriginal]); err != nil {
		return fail(KeyKeepOriginal, err)
	}
	if rule.Quality, err = strconv.Atoi(strings.TrimSpace(merged[KeyQuality])); err != nil {
		return fail(KeyQuality, errors.New("not an integer"))
	}
	if rule.Quality < minQuality || rule.Quality > maxQuality {
		return fail(KeyQuality, fmt.Errorf("must be between %d and %d", minQuality, maxQuality))
	}

	known := knownPlaceholders()
	checkTemplate := func(key string) error {
		names, err := textutil.Placeholders(merged[key])
		if err != nil {
			return err
		}
		for _, n := range names {
			if _, ok := known[n]; !ok {
				rule.warnings = append(rule.warnings, fmt.Sprintf("%s uses {%s}, which only resolves if the catalog supplies it", key, n))
			}
		}
		return nil
	}

	rule.TargetDir = merged[KeyTargetDir]
	if err := checkTemplate(KeyTargetDir); err != nil {
		return fail(KeyTargetDir, err)
	}
	rule.TargetName = merged[KeyTargetName]
	if strings.TrimSpace(rule.TargetName) == "" {
		return fail(KeyTargetName, errors.New("must not be empty"))
	}
	if err := checkTemplate(KeyTargetName); err != nil {
		return fail(KeyTargetName, err)
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !strings.HasPrefix(key, tagKeyPrefix) || len(key) == len(tagKeyPrefix) {
			if !isKnownKey(key) {
				rule.warnings = append(rule.warnings, fmt.Sprintf("unknown key %s ignored", key))
			}
			continue
		}
		if err := checkTemplate(key); err != nil {
			return fail(key, err)
		}
		rule.Tags = append(rule.Tags, Tag{
			Field:    strings.ToLower(key[len(tagKeyPrefix):]),
			Template: merged[key],
		})
	}

	return rule, nil
}

// CompileAll compiles every section and returns the rules sorted by name.
// All failures are reported together.
func CompileAll(sections map[string]map[string]string, overrides map[string]string) ([]Rule, error) {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Rule, 0, len(names))
	var errs []error
	for _, name := range names {
		rule, err := Compile(name, sections[name], overrides)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rule)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// FromConfig compiles the rule tables of cfg.
func FromConfig(cfg *config.Config) ([]Rule, error) {
	sections, err := cfg.RuleSections()
	if err != nil {
		return nil, err
	}
	overrides, err := cfg.DefaultOverrides()
	if err != nil {
		return nil, err
	}
	return CompileAll(sections, overrides)
}

// Matches reports whether rec falls inside the window, on one of the
// configured weekdays, and its title and info contain the configured patterns.
func (r Rule) Matches(rec broadcast.Record) bool {
	return rec.MatchesWindow(r.Window.Start, r.Window.End) &&
		rec.MatchesWeekdays(r.days) &&
		rec.MatchesTitle(r.TitlePattern) &&
		rec.MatchesInfo(r.InfoPattern)
}

// Days returns the weekday list as "0,1,...".
func (r Rule) Days() string {
	return formatDays(r.days)
}

// Warnings lists non-fatal observations made while compiling.
func (r Rule) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

// RenderTags renders every tag template against fields. Fields that fail to
// render are left out and reported in the joined error; the rest are returned.
func (r Rule) RenderTags(fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(r.Tags))
	var errs []error
	for _, tag := range r.Tags {
		value, err := textutil.Render(tag.Template, fields)
		if err != nil {
			errs = append(errs, fmt.Errorf("tag %s: %w", tag.Field, err))
			continue
		}
		out[tag.Field] = value
	}
	return out, errors.Join(errs...)
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + expr)
}

func parseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	default:
		return false, errors.New("expected True or False")
	}
}

func isKnownKey(key string) bool {
	switch key {
	case KeyTimeWindow, KeyDays, KeyTargetDir, KeyTargetName, KeyKeepOriginal, KeyQuality, KeyTitle, KeyInfo:
		return true
	}
	return false
}

func knownPlaceholders() map[string]struct{} {
	known := map[string]struct{}{
		FieldSection:         {},
		FieldDownloadBaseDir: {},
		FieldConfigDir:       {},
		FieldScriptDir:       {},
	}
	for _, name := range broadcast.StandardFields() {
		known[name] = struct{}{}
	}
	return known
}
