// Package render prints view states for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"investment-dashboard/src/models"
	"investment-dashboard/src/scoring"
	"investment-dashboard/src/views"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Header   lipgloss.Style
	Badges   map[scoring.Category]lipgloss.Style
}

var badgeColors = map[string]lipgloss.Color{
	"success": lipgloss.Color("42"),
	"info":    lipgloss.Color("39"),
	"warning": lipgloss.Color("214"),
	"default": lipgloss.Color("245"),
}

// DefaultTheme returns the colored theme, or a plain one when color is false.
func DefaultTheme(color bool) Theme {
	if !color {
		plain := lipgloss.NewStyle()
		badges := make(map[scoring.Category]lipgloss.Style, len(scoring.Categories))
		for _, c := range scoring.Categories {
			badges[c] = plain
		}
		return Theme{Title: plain, Subtitle: plain, Notice: plain, Error: plain, Header: plain, Badges: badges}
	}

	badges := make(map[scoring.Category]lipgloss.Style, len(scoring.Categories))
	for _, c := range scoring.Categories {
		badges[c] = lipgloss.NewStyle().Bold(true).Foreground(badgeColors[c.Color()])
	}
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Subtitle: lipgloss.NewStyle().Faint(true),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Header:   lipgloss.NewStyle().Underline(true),
		Badges:   badges,
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// -----------------------------------------------------------------------------

// View writes state as a human-readable report.
func View(w io.Writer, state models.MViewState, theme Theme) error {
	var b strings.Builder

	b.WriteString(theme.Title.Render(fmt.Sprintf("%s [%s]", strings.ToUpper(state.View), state.Status)))
	b.WriteString("\n")
	sub := fmt.Sprintf("generation %d", state.Generation)
	if q := state.Query.Key(); q != "" {
		sub += "  query " + q
	}
	if !state.UpdatedAt.IsZero() {
		sub += "  updated " + state.UpdatedAt.Format("2006-01-02 15:04:05")
	}
	b.WriteString(theme.Subtitle.Render(sub))
	b.WriteString("\n")

	if state.FilterError != nil {
		b.WriteString(theme.Error.Render(fmt.Sprintf("%s: %s", state.FilterError.Field, state.FilterError.Message)))
		b.WriteString("\n")
	}
	if state.Notice != "" {
		style := theme.Notice
		if state.Status == models.ViewError {
			style = theme.Error
		}
		b.WriteString(style.Render(state.Notice))
		b.WriteString("\n")
	}

	names := make([]string, 0, len(state.Sections))
	for name := range state.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		section := state.Sections[name]
		b.WriteString("\n")
		b.WriteString(theme.Header.Render(fmt.Sprintf("%s (%s)", section.Source, section.Origin)))
		b.WriteString("\n")
		switch {
		case section.Empty:
			b.WriteString(section.EmptyText + "\n")
		case !section.HasData():
			b.WriteString(theme.Error.Render("unavailable: "+section.Error) + "\n")
		default:
			writeData(&b, section.Data, theme)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// -----------------------------------------------------------------------------

func writeData(b *strings.Builder, data any, theme Theme) {
	switch d := data.(type) {
	case views.PropertyPage:
		rows := make([][]string, 0, len(d.Rows))
		cats := make([]scoring.Category, 0, len(d.Rows))
		for _, r := range d.Rows {
			rows = append(rows, []string{r.ID, r.Address, r.County, "$" + r.Price.StringFixed(0), score(r.InvestmentScore), r.Status})
			cats = append(cats, r.Category)
		}
		table(b, []string{"ID", "ADDRESS", "COUNTY", "PRICE", "SCORE", "STATUS"}, rows, 4, cats, theme)
		fmt.Fprintf(b, "%d of %d\n", len(d.Rows), d.Total)

	case views.OpportunityBoard:
		rows := make([][]string, 0, len(d.Rows))
		cats := make([]scoring.Category, 0, len(d.Rows))
		for _, r := range d.Rows {
			rows = append(rows, []string{
				r.Address, r.County, "$" + r.Price.StringFixed(0), score(r.InvestmentScore),
				fmt.Sprintf("%.1f%%", r.CapRate), "$" + r.MonthlyCashFlow.StringFixed(0), fmt.Sprintf("%.1f%%", r.ROI),
			})
			cats = append(cats, r.Category)
		}
		table(b, []string{"ADDRESS", "COUNTY", "PRICE", "SCORE", "CAP RATE", "CASH FLOW", "ROI"}, rows, 3, cats, theme)

	case models.MCountyList:
		rows := make([][]string, 0, len(d))
		for _, c := range d {
			rows = append(rows, []string{c.County, fmt.Sprint(c.Properties), fmt.Sprintf("%.0f", c.AvgScore), "$" + c.TotalValue.StringFixed(0)})
		}
		table(b, []string{"COUNTY", "PROPERTIES", "AVG SCORE", "TOTAL VALUE"}, rows, -1, nil, theme)

	case models.MPerformanceSnapshot:
		for _, p := range d.DiscoveryRate {
			fmt.Fprintf(b, "  %-8s %d\n", p.Month, p.Count)
		}
		for _, s := range d.ScoreDistribution {
			fmt.Fprintf(b, "  %-8s %d\n", s.Range, s.Count)
		}
		fmt.Fprintf(b, "  analyzed %d, avg analysis %.1fs\n", d.TotalAnalyzed, d.AvgAnalysisTime)

	case models.MHealthStatus:
		line := "  status " + d.Status
		if d.Version != "" {
			line += "  version " + d.Version
		}
		if d.Error != "" {
			line += "  error " + d.Error
		}
		b.WriteString(line + "\n")

	default:
		raw, err := json.MarshalIndent(data, "  ", "  ")
		if err != nil {
			fmt.Fprintf(b, "  %v\n", data)
			return
		}
		b.WriteString("  " + string(raw) + "\n")
	}
}

func score(s *int) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprint(*s)
}

// table pads plain text first so ANSI styling does not break alignment.
// badgeCol is the column colored by category, or -1.
func table(b *strings.Builder, header []string, rows [][]string, badgeCol int, cats []scoring.Category, theme Theme) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range header {
		fmt.Fprintf(b, "  %-*s", widths[i], h)
	}
	b.WriteString("\n")

	for ri, r := range rows {
		for i, cell := range r {
			padded := fmt.Sprintf("%-*s", widths[i], cell)
			if i == badgeCol && ri < len(cats) {
				padded = theme.Badges[cats[ri]].Render(padded)
			}
			b.WriteString("  " + padded)
		}
		b.WriteString("\n")
	}
}
