package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var timeWindowPattern = regexp.MustCompile(`^\s*(\d\d):(\d\d)\s*-\s*(\d\d):(\d\d)\s*$`)

// TimeWindow is an inclusive range of minutes since midnight. 24:00 is
// accepted as an end bound meaning end of day.
type TimeWindow struct {
	Start int
	End   int
}

// ParseTimeWindow parses "HH:MM-HH:MM".
func ParseTimeWindow(value string) (TimeWindow, error) {
	m := timeWindowPattern.FindStringSubmatch(value)
	if m == nil {
		return TimeWindow{}, errors.New("expected HH:MM-HH:MM")
	}
	start, err := clockMinutes(m[1], m[2])
	if err != nil {
		return TimeWindow{}, fmt.Errorf("start: %w", err)
	}
	end, err := clockMinutes(m[3], m[4])
	if err != nil {
		return TimeWindow{}, fmt.Errorf("end: %w", err)
	}
	if start > end {
		return TimeWindow{}, errors.New("start must not be after end")
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Contains reports whether minute lies within the window, bounds included.
func (w TimeWindow) Contains(minute int) bool {
	return w.Start <= minute && minute <= w.End
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

func clockMinutes(hh, mm string) (int, error) {
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	switch {
	case minute > 59:
		return 0, fmt.Errorf("minute %d out of range", minute)
	case hour > 24, hour == 24 && minute != 0:
		return 0, fmt.Errorf("hour %s:%s out of range", hh, mm)
	}
	return hour*60 + minute, nil
}

// ParseDays parses a comma separated list of weekday numbers, 0 for Monday through 6 for Sunday.
func ParseDays(value string) (map[int]struct{}, error) {
	days := make(map[int]struct{})
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("weekday %q is not a number", part)
		}
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("weekday %d out of range 0-6", day)
		}
		days[day] = struct{}{}
	}
	if len(days) == 0 {
		return nil, errors.New("at least one weekday is required")
	}
	return days, nil
}

func formatDays(days map[int]struct{}) string {
	list := make([]int, 0, len(days))
	for day := range days {
		list = append(list, day)
	}
	sort.Ints(list)
	parts := make([]string, len(list))
	for i, day := range list {
		parts[i] = strconv.Itoa(day)
	}
	return strings.Join(parts, ",")
}
