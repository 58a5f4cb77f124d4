package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"

	"github.com/standardbeagle/schedprefs/internal/snap"
)

type styles struct {
	enabled bool
	header  lipgloss.Style
	key     lipgloss.Style
	on      lipgloss.Style
	off     lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
	dim     lipgloss.Style
}

// newStyles enables styling only when w is a terminal.
func newStyles(w io.Writer, noColor bool) styles {
	enabled := false
	if f, ok := w.(*os.File); ok && !noColor {
		enabled = term.IsTerminal(int(f.Fd()))
	}
	return styles{
		enabled: enabled,
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		on:      lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		off:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		added:   lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		removed: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// settingRow pads the plain key before styling it, so escape sequences do
// not count toward the column width.
func (s styles) settingRow(key, value string) string {
	return "  " + s.render(s.key, fmt.Sprintf("%-*s", settingKeyWidth, key)) + " " + value
}

const settingKeyWidth = 26

func (s styles) printProfile(w io.Writer, p snap.Profile) {
	fmt.Fprintln(w, s.render(s.header, p.Key.String()))
	for algo, rule := range p.Rules() {
		state := s.render(s.off, "off")
		if rule.Active {
			state = s.render(s.on, "on ")
		}
		fmt.Fprintf(w, "  %-20s %s %4d\n", algo.String(), state, rule.Distance)
	}
}

// unifiedDiff renders the line diff between two documents, or "" when they
// are equal.
func unifiedDiff(from, to []byte, fromName, toName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(from)),
		B:        difflib.SplitLines(string(to)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  2,
	})
}

func (s styles) printDiff(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = s.render(s.header, text)
		case strings.HasPrefix(text, "+"):
			text = s.render(s.added, text)
		case strings.HasPrefix(text, "-"):
			text = s.render(s.removed, text)
		case strings.HasPrefix(text, "@@"):
			text = s.render(s.dim, text)
		}
		fmt.Fprintln(w, text)
	}
}

func parseSwitch(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(raw)
}
