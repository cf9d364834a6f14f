package broadcast

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"radiograb/internal/services"
	"radiograb/internal/textutil"
)

const (
	dayLabelLayout = "02.01.2006"
	timeLayout     = "15:04"

	// InfoLimit is the rune length of the info_1line_limited placeholder.
	InfoLimit = 120
)

// Catalog field names.
const (
	FieldID        = "id"
	FieldTitle     = "title"
	FieldInfo      = "info"
	FieldDayLabel  = "day_label"
	FieldTime      = "time"
	FieldStreamURL = "url_stream"
)

// ParseError reports a catalog entry whose fields could not be turned into a Record.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broadcast: invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("broadcast: invalid %s %q", e.Field, e.Value)
}

// Unwrap exposes both the parse marker and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrParse}
	}
	return []error{services.ErrParse, e.Err}
}

// Record is one broadcast from the catalog.
type Record struct {
	ID          string
	Title       string
	RawInfo     string
	StreamURL   string
	ScheduledAt time.Time

	raw       map[string]string
	weekday   int
	timeOfDay int
	date      time.Time
}

// New builds a Record from one decoded catalog entry. Times are interpreted in loc.
func New(raw map[string]any, loc *time.Location) (Record, error) {
	if loc == nil {
		loc = time.Local
	}
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		fields[key] = stringify(value)
	}

	id := strings.TrimSpace(fields[FieldID])
	if id == "" {
		return Record{}, &ParseError{Field: FieldID, Value: fields[FieldID]}
	}
	dayLabel := strings.TrimSpace(fields[FieldDayLabel])
	day, err := time.ParseInLocation(dayLabelLayout, dayLabel, loc)
	if err != nil {
		return Record{}, &ParseError{Field: FieldDayLabel, Value: dayLabel, Err: err}
	}
	clock := strings.TrimSpace(fields[FieldTime])
	tod, err := time.Parse(timeLayout, clock)
	if err != nil {
		return Record{}, &ParseError{Field: FieldTime, Value: clock, Err: err}
	}

	scheduled := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc)
	fields[FieldID] = id

	return Record{
		ID:          id,
		Title:       fields[FieldTitle],
		RawInfo:     fields[FieldInfo],
		StreamURL:   strings.TrimSpace(fields[FieldStreamURL]),
		ScheduledAt: scheduled,
		raw:         fields,
		weekday:     (int(scheduled.Weekday()) + 6) % 7,
		timeOfDay:   scheduled.Hour()*60 + scheduled.Minute(),
		date:        time.Date(scheduled.Year(), scheduled.Month(), scheduled.Day(), 0, 0, 0, 0, loc),
	}, nil
}

// Weekday returns the day of week with 0 for Monday through 6 for Sunday.
func (r Record) Weekday() int { return r.weekday }

// TimeOfDay returns minutes since midnight.
func (r Record) TimeOfDay() int { return r.timeOfDay }

// Date returns midnight of the broadcast day.
func (r Record) Date() time.Time { return r.date }

// Raw returns a copy of the catalog fields the record was built from.
func (r Record) Raw() map[string]string {
	out := make(map[string]string, len(r.raw))
	for k, v := range r.raw {
		out[k] = v
	}
	return out
}

// InfoOneLine returns the info text with whitespace runs collapsed to single spaces.
func (r Record) InfoOneLine() string {
	return textutil.CollapseWhitespace(r.RawInfo)
}

// MatchesWindow reports whether the time of day lies within [startMinute, endMinute].
func (r Record) MatchesWindow(startMinute, endMinute int) bool {
	return startMinute <= r.timeOfDay && r.timeOfDay <= endMinute
}

// MatchesWeekdays reports whether the weekday is a member of days.
func (r Record) MatchesWeekdays(days map[int]struct{}) bool {
	_, ok := days[r.weekday]
	return ok
}

// MatchesTitle reports whether pattern finds a match anywhere in the title.
func (r Record) MatchesTitle(pattern *regexp.Regexp) bool {
	return pattern != nil && pattern.MatchString(r.Title)
}

// MatchesInfo reports whether pattern finds a match anywhere in the info text.
func (r Record) MatchesInfo(pattern *regexp.Regexp) bool {
	return pattern != nil && pattern.MatchString(r.RawInfo)
}

// Fields returns the placeholder mapping used by naming and tag templates:
// every raw catalog field plus the derived date parts and info variants.
// extended_info mirrors info until the record is enriched.
func (r Record) Fields() map[string]string {
	out := r.Raw()
	at := r.ScheduledAt
	oneLine := r.InfoOneLine()
	out["Y"] = at.Format("2006")
	out["m"] = at.Format("01")
	out["d"] = at.Format("02")
	out["H"] = at.Format("15")
	out["M"] = at.Format("04")
	out["S"] = at.Format("05")
	out["info_1line"] = oneLine
	out["info_1line_limited"] = textutil.TruncateRunes(oneLine, InfoLimit)
	out["extended_info"] = r.RawInfo
	if _, ok := out[FieldTitle]; !ok {
		out[FieldTitle] = r.Title
	}
	if _, ok := out[FieldInfo]; !ok {
		out[FieldInfo] = r.RawInfo
	}
	return out
}

// Render resolves tmpl against Fields.
func (r Record) Render(tmpl string) (string, error) {
	return textutil.Render(tmpl, r.Fields())
}

// String formats the record for listings.
func (r Record) String() string {
	return fmt.Sprintf("%s id %s %s %s", r.ScheduledAt.Format("2006-01-02 15:04"), r.ID, r.Title, r.InfoOneLine())
}

// StandardFields lists the placeholders every record provides regardless of
// which optional fields the catalog entry carried.
func StandardFields() []string {
	return []string{
		FieldID, FieldTitle, FieldInfo, FieldDayLabel, FieldTime, FieldStreamURL,
		"Y", "m", "d", "H", "M", "S",
		"info_1line", "info_1line_limited", "extended_info",
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
