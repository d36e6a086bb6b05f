package rrule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultDayReset resets the counter at local midnight.
const DefaultDayReset = "FREQ=DAILY;BYHOUR=0;BYMINUTE=0;BYSECOND=0"

// Schedule is a parsed RFC 5545 recurrence anchored in a location.
type Schedule struct {
	rule *rrule.RRule
	raw  string
}

// Parse parses an RRULE string. The rule starts at midnight of the day
// containing now in loc, so BYHOUR/BYMINUTE are read as local wall-clock time.
func Parse(ruleStr string, now time.Time, loc *time.Location) (*Schedule, error) {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	opt.Dtstart = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE: %w", err)
	}
	return &Schedule{rule: rule, raw: ruleStr}, nil
}

// Next returns the first occurrence strictly after t.
// ok is false when the rule has no more occurrences.
func (s *Schedule) Next(t time.Time) (time.Time, bool) {
	next := s.rule.After(t, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func (s *Schedule) String() string {
	return s.raw
}

// IntervalRule expresses a reminder interval as an RRULE, preferring whole
// hours when the interval allows it.
func IntervalRule(minutes int) string {
	if minutes >= 60 && minutes%60 == 0 {
		if minutes == 60 {
			return "FREQ=HOURLY"
		}
		return fmt.Sprintf("FREQ=HOURLY;INTERVAL=%d", minutes/60)
	}
	if minutes == 1 {
		return "FREQ=MINUTELY"
	}
	return fmt.Sprintf("FREQ=MINUTELY;INTERVAL=%d", minutes)
}

// Describe returns an English description of an RRULE, e.g.
// "every 2 hours" or "daily at 04:30".
func Describe(ruleStr string) string {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	info := make(map[string]string)
	for _, p := range strings.Split(ruleStr, ";") {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			info[strings.ToUpper(kv[0])] = kv[1]
		}
	}

	interval := 1
	if v, err := strconv.Atoi(info["INTERVAL"]); err == nil && v > 0 {
		interval = v
	}

	units := map[string][2]string{
		"MINUTELY": {"minute", "minutes"},
		"HOURLY":   {"hour", "hours"},
		"DAILY":    {"day", "days"},
		"WEEKLY":   {"week", "weeks"},
	}
	unit, ok := units[info["FREQ"]]
	if !ok {
		return ruleStr
	}

	var result string
	switch {
	case info["FREQ"] == "DAILY" && interval == 1:
		result = "daily"
	case interval == 1:
		result = "every " + unit[0]
	default:
		result = fmt.Sprintf("every %d %s", interval, unit[1])
	}

	if hour, ok := info["BYHOUR"]; ok && !strings.Contains(hour, ",") {
		h, _ := strconv.Atoi(hour)
		m, _ := strconv.Atoi(info["BYMINUTE"])
		result += fmt.Sprintf(" at %02d:%02d", h, m)
	}
	return result
}
