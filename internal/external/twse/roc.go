package twse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rocOffset converts a Republic of China (民國) year to a Gregorian year
const rocOffset = 1911

// ParseROCDate parses "113/01/02" into 2024-01-02 (UTC midnight)
func ParseROCDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid ROC date %q: %w", s, err)
		}
		nums[i] = n
	}

	return rocDate(nums[0], nums[1], nums[2], s)
}

// ParseCompactROCDate parses "1140108" (or "990108") into 2025-01-08
func ParseCompactROCDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 6 || len(s) > 7 {
		return time.Time{}, fmt.Errorf("invalid compact ROC date %q", s)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid compact ROC date %q: %w", s, err)
	}

	return rocDate(n/10000, (n/100)%100, n%100, s)
}

// ParseROCPeriod parses "114/01/02～114/01/15" (full-width or ASCII tilde)
func ParseROCPeriod(s string) (time.Time, time.Time, error) {
	s = strings.ReplaceAll(s, "～", "~")
	parts := strings.Split(s, "~")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid ROC period %q", s)
	}

	start, err := ParseROCDate(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseROCDate(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func rocDate(year, month, day int, raw string) (time.Time, error) {
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", raw)
	}

	t := time.Date(year+rocOffset, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", raw)
	}
	return t, nil
}

// parseNumber parses exchange numbers like "1,234.50"
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" || s == "---" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}

// parseInt parses exchange integers like "12,345,678"
func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseInt(s, 10, 64)
}
