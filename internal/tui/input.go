package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// pageSize is the default number of items fetched per API call.
const pageSize = 50

// Input caps, in runes. Pasted callback URLs carry a full JWT.
const (
	maxInputLen = 200
	maxPasteLen = 4096
)

// editKey applies a keystroke to an inline input: backspace drops a rune,
// ctrl+w a word, ctrl+u everything; typed or pasted runes are appended up
// to maxInputLen. Other keys leave text unchanged.
func editKey(text string, msg tea.KeyMsg) string {
	return editKeyLimit(text, msg, maxInputLen)
}

func editKeyLimit(text string, msg tea.KeyMsg, limit int) string {
	switch msg.Type {
	case tea.KeyBackspace:
		if text == "" {
			return text
		}
		_, size := utf8.DecodeLastRuneInString(text)
		return text[:len(text)-size]
	case tea.KeyCtrlW:
		trimmed := strings.TrimRight(text, " ")
		if i := strings.LastIndex(trimmed, " "); i >= 0 {
			return trimmed[:i+1]
		}
		return ""
	case tea.KeyCtrlU:
		return ""
	case tea.KeySpace:
		return appendRunes(text, []rune{' '}, limit)
	case tea.KeyRunes:
		return appendRunes(text, msg.Runes, limit)
	}
	return text
}

func appendRunes(text string, runes []rune, limit int) string {
	room := limit - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for _, r := range runes {
		if room == 0 {
			break
		}
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		b.WriteRune(r)
		room--
	}
	return b.String()
}
