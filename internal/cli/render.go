package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okian/lineup/internal/domain/model"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleGood   = lipgloss.NewStyle().Foreground(colorGreen)
	styleBad    = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	scheduleSeparator = " → "
	headerRow         = -1
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == headerRow {
				return styleHeader.Padding(0, 1)
			}
			return styleCell
		})
}

func title(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf(format, args...)))
}

// renderActs prints the catalog in source order.
func renderActs(w io.Writer, cat *model.Catalog) {
	t := newTable("#", "Act", "Performers")
	for i, a := range cat.Acts() {
		t.Row(strconv.Itoa(i+1), a.Name, strings.Join(a.Performers, ", "))
	}
	title(w, "Available acts (%d)", cat.Len())
	_, _ = fmt.Fprintln(w, t.Render())
}

// renderCost prints a coloured cost summary line.
func renderCost(w io.Writer, label string, cost int) {
	style := styleGood
	if cost > 0 {
		style = styleBad
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", label, style.Render(strconv.Itoa(cost)))
}

// renderSchedules lists tied schedules, one per row.
func renderSchedules(w io.Writer, results []model.ScheduleResult) {
	t := newTable("#", "Schedule", "Collisions")
	for i, r := range results {
		t.Row(strconv.Itoa(i+1), strings.Join(r.Schedule, scheduleSeparator), strconv.Itoa(r.Cost))
	}
	_, _ = fmt.Fprintln(w, t.Render())
}

// renderOrder prints one schedule position by position.
func renderOrder(w io.Writer, cat *model.Catalog, schedule model.Schedule) {
	t := newTable("Position", "Act", "Performers")
	for i, name := range schedule {
		performers, _ := cat.Performers(name)
		t.Row(strconv.Itoa(i+1), name, strings.Join(performers, ", "))
	}
	_, _ = fmt.Fprintln(w, t.Render())
}

// renderCollisions prints the collision details of a schedule.
func renderCollisions(w io.Writer, events []model.CollisionEvent) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, styleGood.Render("No performer appears in two consecutive acts."))
		return
	}
	t := newTable("Performer", "Previous act", "Current act", "Positions")
	for _, e := range events {
		t.Row(e.Performer, e.PreviousAct, e.CurrentAct, fmt.Sprintf("%d-%d", e.Positions[0], e.Positions[1]))
	}
	title(w, "Collisions")
	_, _ = fmt.Fprintln(w, t.Render())
}
