package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/oserdar/punchr/internal/api"
	"github.com/oserdar/punchr/internal/session"
)

// historyModel shows past attendance sessions: a bar chart of worked
// hours per day, the session log for the visible window, and an editor
// for today's report. Data comes from the server, never local state.
type historyModel struct {
	gw     *api.Client
	width  int
	height int

	logs   []session.LogEntry
	offset int // 7-day blocks back from today (0 = current)

	chart barchart.Model

	formActive bool
	form       *huh.Form
	report     *string
}

func newHistoryModel(gw *api.Client) historyModel {
	report := ""
	return historyModel{
		gw:     gw,
		chart:  barchart.New(60, 12),
		report: &report,
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

func (h historyModel) refresh() tea.Cmd {
	gw := h.gw
	from, to := h.dateRange()
	return func() tea.Msg {
		logs, err := gw.History(context.Background(), api.HistoryFilter{
			StartDate: from.Format("2006-01-02"),
			EndDate:   to.Add(-24 * time.Hour).Format("2006-01-02"),
		})
		if err != nil {
			return historyDataMsg{err: err}
		}
		return historyDataMsg{logs: logs}
	}
}

func (h historyModel) dateRange() (time.Time, time.Time) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, 1-7*h.offset)
	return end.AddDate(0, 0, -7), end
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		if msg.err != nil {
			return h, errorStatus("Could not load history")
		}
		h.logs = msg.logs
		h.buildChart()
		return h, nil

	case reportSavedMsg:
		h.formActive = false
		h.form = nil
		if msg.err != nil {
			return h, errorStatus(editErrText(msg.err))
		}
		return h, tea.Batch(h.refresh(), infoStatus("Report updated"))

	case tea.KeyMsg:
		if h.formActive && h.form != nil {
			return h.updateForm(msg)
		}
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Edit):
			return h.openEditor()
		}
	}

	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}
	return h, nil
}

// openEditor edits today's report in place. Past days are closed books:
// the server rejects them and the entry point does not even offer it.
func (h historyModel) openEditor() (historyModel, tea.Cmd) {
	today := time.Now().Format("2006-01-02")
	var current *session.LogEntry
	for i := range h.logs {
		if h.logs[i].Day == today {
			current = &h.logs[i]
			break
		}
	}
	if current == nil {
		return h, errorStatus("No session today to edit")
	}

	*h.report = current.DailyReport
	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Edit today's report").
				Description(fmt.Sprintf("At least %d characters.", session.MinReportLen)).
				Value(h.report).
				Validate(session.ValidateReport),
		),
	).WithShowHelp(true).WithShowErrors(true)
	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		h.formActive = false
		h.form = nil
		return h, nil
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		gw := h.gw
		report := *h.report
		return h, func() tea.Msg {
			return reportSavedMsg{err: gw.UpdateTodayReport(context.Background(), report)}
		}
	}
	return h, cmd
}

func editErrText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Could not save report"
}

func (h *historyModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if h.height > 30 {
		chartHeight = 14
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	from, to := h.dateRange()
	totals := session.TotalsByDay(h.logs)

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, t := range totals {
			if t.Day == dateStr {
				values = append(values,
					barchart.BarValue{
						Name:  "worked",
						Value: float64(t.WorkingSeconds) / 3600.0,
						Style: lipgloss.NewStyle().Foreground(colorSuccess),
					},
					barchart.BarValue{
						Name:  "break",
						Value: float64(t.BreakSeconds) / 3600.0,
						Style: lipgloss.NewStyle().Foreground(colorWarning),
					},
				)
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{Label: label, Values: values})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s",
		from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", dateLabel,
	)

	if h.formActive && h.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", h.form.View()),
		)
	}

	var workedTotal int64
	for _, l := range h.logs {
		workedTotal += l.WorkingSeconds
	}
	legend := "  " +
		lipgloss.NewStyle().Foreground(colorSuccess).Render("●") + " worked  " +
		lipgloss.NewStyle().Foreground(colorWarning).Render("●") + " break   " +
		highlightStyle.Render("Σ "+formatHours(workedTotal))

	nav := mutedStyle.Render("  ←/→: navigate  e: edit today's report  E: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", legend, "", h.renderLogTable(w), "", nav,
		),
	)
}

func (h historyModel) renderLogTable(w int) string {
	if len(h.logs) == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-7s %-7s %10s %8s  %s",
		"Date", "In", "Out", "Worked", "Break", "Report")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 70))))

	for _, l := range h.logs {
		out := "—"
		if l.ClockOut != nil {
			out = l.ClockOut.Local().Format("15:04")
		}
		report := l.DailyReport
		if maxLen := w - 56; maxLen > 3 && len(report) > maxLen {
			report = report[:maxLen-1] + "…"
		}
		rows = append(rows, fmt.Sprintf("  %-12s %-7s %-7s %10s %8s  %s",
			l.Day,
			l.ClockIn.Local().Format("15:04"),
			out,
			formatSeconds(l.WorkingSeconds),
			formatSeconds(l.BreakSeconds),
			mutedStyle.Render(report),
		))
	}

	return strings.Join(rows, "\n")
}
