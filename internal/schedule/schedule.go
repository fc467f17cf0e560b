// Package schedule evaluates day/time rule windows against an instant.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/themed-dev/themed/internal/domain/settings"
)

// ParseClock converts an "HH:MM" string into minutes since midnight.
// Unparsable components count as zero, so a malformed value degrades to
// 00:00 instead of failing.
func ParseClock(value string) int {
	hours, minutes := 0, 0
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if v, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
		hours = v
	}
	if len(parts) == 2 {
		if v, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			minutes = v
		}
	}
	return hours*60 + minutes
}

// InRange reports whether the instant's time of day falls inside the
// [start, end) window. Equal start and end cover the whole day; start
// after end wraps past midnight.
func InRange(start, end string, instant time.Time) bool {
	startMin := ParseClock(start)
	endMin := ParseClock(end)
	now := instant.Hour()*60 + instant.Minute()

	switch {
	case startMin == endMin:
		return true
	case startMin < endMin:
		return now >= startMin && now < endMin
	default:
		return now >= startMin || now < endMin
	}
}

// Resolve returns the theme id of the first rule whose window contains the
// instant, or empty when nothing matches. Rules are scanned in stored
// order, so an earlier rule shadows later overlapping ones. A non-zero
// timezone offset shifts the instant before weekday and time-of-day are
// extracted.
func Resolve(rules []settings.ScheduleRule, instant time.Time, tzOffsetMinutes int) string {
	if len(rules) == 0 {
		return ""
	}
	adjusted := instant
	if tzOffsetMinutes != 0 {
		adjusted = instant.Add(time.Duration(tzOffsetMinutes) * time.Minute)
	}
	weekday := int(adjusted.Weekday())
	for _, rule := range rules {
		if rule.ThemeID == "" || !rule.HasDay(weekday) {
			continue
		}
		if InRange(rule.Start, rule.End, adjusted) {
			return rule.ThemeID
		}
	}
	return ""
}
