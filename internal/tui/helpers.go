package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// formatTime renders a relative timestamp ("5m ago", "in 2h").
func formatTime(t time.Time) string {
	return formatTimeFrom(t, time.Now())
}

func formatTimeFrom(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}
	var s string
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	if future {
		return "in " + s
	}
	return s + " ago"
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// formatMinutes renders a minute count as "3h 20m".
func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

// humanKey turns "emails_processed" into "emails processed".
func humanKey(k string) string {
	return strings.ReplaceAll(k, "_", " ")
}

// renderSection renders a backend-defined metrics map as aligned
// "key  value" lines in key order. Nested maps and lists are summarized.
func renderSection(title string, m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	width := 0
	for k := range m {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("  " + sectionHeaderStyle.Render(title) + "\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s  %s\n",
			dimStyle.Render(fmt.Sprintf("%-*s", width, humanKey(k))),
			normalStyle.Render(formatValue(m[k])))
	}
	return b.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case map[string]any:
		return fmt.Sprintf("%d entries", len(v))
	case []any:
		return fmt.Sprintf("%d items", len(v))
	default:
		return fmt.Sprint(v)
	}
}
