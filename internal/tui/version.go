package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	releaseURL     = "https://api.github.com/repos/naveenspark/aide/releases/latest"
	releaseTimeout = 5 * time.Second
)

// releaseMsg reports a newer build. latest is empty when the running build
// is current or the lookup failed; the footer only cares about the former.
type releaseMsg struct {
	latest string
}

// checkVersion looks up the newest release in the background. Dev builds
// skip it.
func checkVersion(current string) tea.Cmd {
	if current == "" || current == "dev" {
		return nil
	}
	return checkVersionAt(releaseURL, current)
}

func checkVersionAt(url, current string) tea.Cmd {
	return func() tea.Msg {
		tag, err := latestTag(url)
		if err != nil {
			slog.Debug("tui: release lookup", "err", err)
			return releaseMsg{}
		}
		if !IsNewerVersion(tag, current) {
			return releaseMsg{}
		}
		return releaseMsg{latest: "v" + strings.TrimPrefix(tag, "v")}
	}
}

func latestTag(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: %s", resp.Status)
	}
	var rel struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", fmt.Errorf("release lookup: %w", err)
	}
	return rel.TagName, nil
}

// IsNewerVersion compares major.minor.patch numerically. A leading "v" and
// any pre-release or build suffix are ignored; missing parts count as zero.
func IsNewerVersion(latest, current string) bool {
	l, c := versionParts(latest), versionParts(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func versionParts(v string) [3]int {
	var parts [3]int
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	for i, s := range strings.SplitN(v, ".", len(parts)) {
		parts[i], _ = strconv.Atoi(s) //nolint:errcheck
	}
	return parts
}
