// Package display computes presentation values derived from the data layer: relative
// times, compact counts, mentions and grouped notification texts.
package display

import (
	"strconv"
	"strings"
	"time"
)

// Elapsed-second thresholds. Months and years are fixed-length approximations.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 604800
	secondsPerMonth  = 2592000
	secondsPerYear   = 31536000
)

// FormatTimeAgo renders the time elapsed between t and now in the largest whole unit:
// "now", "5m", "3h", "2d", "1w", "4mo", "2y". Future times render as "now".
func FormatTimeAgo(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < secondsPerMinute:
		return "now"
	case secs < secondsPerHour:
		return strconv.FormatInt(secs/secondsPerMinute, 10) + "m"
	case secs < secondsPerDay:
		return strconv.FormatInt(secs/secondsPerHour, 10) + "h"
	case secs < secondsPerWeek:
		return strconv.FormatInt(secs/secondsPerDay, 10) + "d"
	case secs < secondsPerMonth:
		return strconv.FormatInt(secs/secondsPerWeek, 10) + "w"
	case secs < secondsPerYear:
		return strconv.FormatInt(secs/secondsPerMonth, 10) + "mo"
	default:
		return strconv.FormatInt(secs/secondsPerYear, 10) + "y"
	}
}

// FormatCount renders follower and like counts: below 1000 as-is, then one decimal
// with a K or M suffix and a trailing ".0" dropped.
func FormatCount(n int) string {
	switch {
	case n < 1000:
		return strconv.Itoa(n)
	case n < 1000000:
		return compact(float64(n)/1000) + "K"
	default:
		return compact(float64(n)/1000000) + "M"
	}
}

func compact(v float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0")
}

// ExtractMentions returns the usernames mentioned with @ in text, deduplicated, in
// order of first appearance. Trailing dots are sentence punctuation, not part of the
// username.
func ExtractMentions(text string) []string {
	var out []string
	seen := make(map[string]bool)

	for i := 0; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		j := i + 1
		for j < len(text) && isUsernameByte(text[j]) {
			j++
		}
		name := strings.TrimRight(text[i+1:j], ".")
		i = j - 1
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func isUsernameByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '.'
}
