package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/oserdar/punchr/internal/api"
	"github.com/oserdar/punchr/internal/reminder"
	"github.com/oserdar/punchr/internal/session"
	"github.com/oserdar/punchr/internal/store"
)

// popoverState is the widget surface's own state machine, separate from
// the session status. Minimized survives view switches within this run
// but is never persisted.
type popoverState int

const (
	popoverClosed popoverState = iota
	popoverOpen
	popoverMinimized
)

// Intent names, used for side-effect routing and fallback error text.
const (
	actionStatus     = "status"
	actionClockIn    = "clock_in"
	actionClockOut   = "clock_out"
	actionStartBreak = "start_break"
	actionEndBreak   = "end_break"
)

var fallbackErrText = map[string]string{
	actionClockIn:    "Could not clock in",
	actionClockOut:   "Could not clock out",
	actionStartBreak: "Could not start break",
	actionEndBreak:   "Could not end break",
}

// clockModel is the time clock widget: it owns the session clock, the
// status poll loop, the display ticker, the popover menu, the clock-out
// dialog, and the reminder glue. Server truth always wins: no transition
// is shown before its snapshot comes back.
type clockModel struct {
	gw    *api.Client
	flags *store.Store
	sched *reminder.Scheduler
	role  string

	clock        *session.Clock
	pollInterval time.Duration
	now          time.Time

	width  int
	height int

	popover popoverState
	pending string // in-flight intent; "" when idle

	formActive bool
	form       *huh.Form
	report     *string

	nagVisible bool

	pollGen int
	remGen  int
}

func newClockModel(gw *api.Client, flags *store.Store, sched *reminder.Scheduler, role string, pollInterval time.Duration) clockModel {
	report := ""
	return clockModel{
		gw:           gw,
		flags:        flags,
		sched:        sched,
		role:         role,
		clock:        session.NewClock(),
		pollInterval: pollInterval,
		now:          time.Now(),
		report:       &report,
		pollGen:      1,
		remGen:       sched.Arm(),
	}
}

func (m clockModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchStatus(),
		m.pollAfter(m.pollGen),
		m.nagAfter(reminder.InitialDelay, m.remGen),
		m.midnightAfter(m.remGen),
	)
}

func (m *clockModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m clockModel) clockedIn() bool { return m.clock.IsClockedIn() }

// --- Commands ---

// pollAfter arms the next status poll. The generation stamp lets a
// re-armed loop drop ticks from its predecessor, so there is never more
// than one live poll chain.
func (m clockModel) pollAfter(gen int) tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

func (m clockModel) nagAfter(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return nagTickMsg{gen: gen}
	})
}

// midnightAfter arms the rollover timer for the next local midnight. The
// delay is recomputed from the calendar on every arming.
func (m clockModel) midnightAfter(gen int) tea.Cmd {
	d := time.Until(reminder.NextMidnight(time.Now()))
	return tea.Tick(d, func(time.Time) tea.Msg {
		return midnightMsg{gen: gen}
	})
}

func (m clockModel) fetchStatus() tea.Cmd {
	seq := m.clock.NextSeq()
	gw := m.gw
	return func() tea.Msg {
		snap, err := gw.Status(context.Background())
		return snapshotMsg{seq: seq, snap: snap, action: actionStatus, err: err}
	}
}

// dispatch sends a mutation intent. At most one mutation is in flight at
// a time; repeated keypresses while pending are dropped so a duplicate
// clock-in or clock-out can never be sent.
func (m clockModel) dispatch(action string) (clockModel, tea.Cmd) {
	if m.pending != "" {
		return m, nil
	}
	m.pending = action

	seq := m.clock.NextSeq()
	gw := m.gw
	report := strings.TrimSpace(*m.report)
	return m, func() tea.Msg {
		ctx := context.Background()
		var snap session.Snapshot
		var err error
		switch action {
		case actionClockIn:
			snap, err = gw.ClockIn(ctx)
		case actionClockOut:
			snap, err = gw.ClockOut(ctx, report)
		case actionStartBreak:
			snap, err = gw.StartBreak(ctx)
		case actionEndBreak:
			snap, err = gw.EndBreak(ctx)
		}
		return snapshotMsg{seq: seq, snap: snap, action: action, err: err}
	}
}

// --- Update ---

func (m clockModel) update(msg tea.Msg) (clockModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		return m, nil

	case pollTickMsg:
		if msg.gen != m.pollGen {
			return m, nil
		}
		return m, tea.Batch(m.pollAfter(m.pollGen), m.fetchStatus())

	case snapshotMsg:
		return m.applySnapshot(msg)

	case openClockOutDialogMsg:
		return m.openDialog()

	case nagTickMsg:
		return m.handleNagTick(msg)

	case midnightMsg:
		if !m.sched.Current(msg.gen) {
			return m, nil
		}
		m.sched.Rollover(time.Now())
		m.nagVisible = false
		// Fresh day, fresh timers: one midnight timer and a restarted
		// nag cycle.
		return m, tea.Batch(
			m.midnightAfter(msg.gen),
			m.nagAfter(reminder.InitialDelay, msg.gen),
		)

	case tea.KeyMsg:
		if m.formActive && m.form != nil {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m clockModel) applySnapshot(msg snapshotMsg) (clockModel, tea.Cmd) {
	if msg.action != actionStatus {
		m.pending = ""
	}

	if msg.err != nil {
		// Poll read failures just retry on the next interval.
		if msg.action == actionStatus {
			return m, nil
		}
		text := fallbackErrText[msg.action]
		var apiErr *api.APIError
		if errors.As(msg.err, &apiErr) && apiErr.Message != "" {
			text = apiErr.Message
		}
		// A rejected clock-out re-opens the dialog with the server's
		// reason; the typed report is preserved either way.
		var cmds []tea.Cmd
		if msg.action == actionClockOut {
			cmds = append(cmds, m.openDialogCmd())
		}
		cmds = append(cmds, errorStatus(text))
		return m, tea.Batch(cmds...)
	}

	m.clock.Sync(msg.seq, msg.snap)

	var cmds []tea.Cmd
	if m.clock.IsClockedIn() {
		// Set once per day, however the clock-in happened (this tab,
		// another device, or a session restored on startup).
		m.sched.MarkClockedIn(time.Now())
		m.nagVisible = false
	}

	switch msg.action {
	case actionClockIn:
		m.popover = popoverClosed
		cmds = append(cmds, infoStatus("Clocked in — have a good shift"))
	case actionClockOut:
		m.formActive = false
		m.form = nil
		*m.report = ""
		m.popover = popoverClosed
		cmds = append(cmds,
			func() tea.Msg { return historyInvalidateMsg{} },
			infoStatus("Clocked out — report saved"),
		)
	}
	return m, tea.Batch(cmds...)
}

func (m clockModel) handleNagTick(msg nagTickMsg) (clockModel, tea.Cmd) {
	if !m.sched.Current(msg.gen) {
		return m, nil
	}
	if m.flags.RemindersDisabled() {
		// Keep the cycle alive so re-enabling in settings works without
		// a restart.
		return m, m.nagAfter(reminder.Interval, msg.gen)
	}
	if m.sched.ShouldNag(msg.gen, m.role, time.Now()) && !m.clockedIn() {
		m.nagVisible = true
	}
	return m, m.nagAfter(reminder.Interval, msg.gen)
}

func (m clockModel) handleKey(msg tea.KeyMsg) (clockModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Popover):
		switch m.popover {
		case popoverOpen:
			m.popover = popoverClosed
		default:
			m.popover = popoverOpen
		}
		return m, nil

	case key.Matches(msg, keys.Minimize):
		if m.popover == popoverOpen {
			m.popover = popoverMinimized
		}
		return m, nil

	case key.Matches(msg, keys.Back):
		if m.nagVisible {
			m.nagVisible = false
			return m, nil
		}
		if m.popover == popoverOpen {
			m.popover = popoverClosed
		}
		return m, nil

	case key.Matches(msg, keys.ClockIn):
		if m.clockedIn() {
			return m, infoStatus("Already clocked in")
		}
		return m.dispatch(actionClockIn)

	case key.Matches(msg, keys.Break):
		switch m.clock.Status() {
		case session.Working:
			return m.dispatch(actionStartBreak)
		case session.OnBreak:
			return m.dispatch(actionEndBreak)
		}
		return m, errorStatus("Clock in before taking a break")

	case key.Matches(msg, keys.ClockOut):
		return m.requestClockOut()
	}
	return m, nil
}

// requestClockOut opens the report dialog, or explains why it cannot.
// The on-break gate is categorical: the control stays disabled no matter
// what the report says.
func (m clockModel) requestClockOut() (clockModel, tea.Cmd) {
	switch m.clock.Status() {
	case session.ClockedOut:
		return m, errorStatus("You are not clocked in")
	case session.OnBreak:
		return m, errorStatus("End your break before clocking out")
	}
	return m, m.openDialogCmd()
}

// openDialogCmd builds the clock-out dialog around the persistent report
// buffer, so typed text survives dialog restarts and failed submissions.
func (m clockModel) openDialogCmd() tea.Cmd {
	return func() tea.Msg { return openClockOutDialogMsg{} }
}

type openClockOutDialogMsg struct{}

func (m clockModel) openDialog() (clockModel, tea.Cmd) {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Daily report").
				Description(fmt.Sprintf("What did you get done today? At least %d characters.", session.MinReportLen)).
				Value(m.report).
				Validate(session.ValidateReport),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m clockModel) updateForm(msg tea.Msg) (clockModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		// Cancel keeps the typed report for the next attempt.
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		return m.submitClockOut()
	}
	return m, cmd
}

// submitClockOut is the client-side gate: nothing is sent unless the
// report passes the length policy and the session is in a closable state.
func (m clockModel) submitClockOut() (clockModel, tea.Cmd) {
	if err := session.CanClockOut(m.clock.Status(), *m.report); err != nil {
		return m, tea.Batch(m.openDialogCmd(), errorStatus(err.Error()))
	}
	return m.dispatch(actionClockOut)
}

func infoStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

// --- View ---

func (m clockModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}
	w := m.width - 4

	panels := []string{m.renderClockPanel(w)}

	if m.nagVisible {
		panels = append(panels, m.renderNag(w))
	}
	switch {
	case m.formActive && m.form != nil:
		panels = append(panels, m.renderDialog(w))
	case m.popover == popoverOpen:
		panels = append(panels, m.renderPopover(w))
	case m.popover == popoverMinimized:
		panels = append(panels, mutedStyle.Render("  ▸ menu minimized — press o to expand"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (m clockModel) renderClockPanel(w int) string {
	display := m.clock.Tick(m.now)
	timeStr := formatSeconds(display)

	var timeDisplay, pill, hint string
	switch m.clock.Status() {
	case session.Working:
		timeDisplay = timerWorkingStyle.Width(w - 6).Render(timeStr)
		pill = pillWorkingStyle.Render("WORKING")
		hint = mutedStyle.Render("b: take a break  x: clock out")
	case session.OnBreak:
		timeDisplay = timerBreakStyle.Width(w - 6).Render(timeStr)
		pill = pillBreakStyle.Render("ON BREAK")
		hint = mutedStyle.Render("b: end break")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render("00:00:00")
		pill = pillOutStyle.Render("CLOCKED OUT")
		hint = mutedStyle.Render("Press i to clock in")
	}

	if m.pending != "" {
		hint = warningStyle.Render("… " + strings.ReplaceAll(m.pending, "_", " "))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, pill, hint)
	if m.clockedIn() {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

func (m clockModel) renderPopover(w int) string {
	title := titleStyle.Render("Time Clock")

	type item struct {
		label   string
		enabled bool
	}
	items := []item{
		{"i  Clock in", !m.clockedIn() && m.pending == ""},
		{"b  Start break", m.clock.Status() == session.Working && m.pending == ""},
		{"b  End break", m.clock.Status() == session.OnBreak && m.pending == ""},
		{"x  Clock out", m.clock.Status() == session.Working && m.pending == ""},
	}

	rows := []string{title, ""}
	for _, it := range items {
		if it.enabled {
			rows = append(rows, normalItemStyle.Render("  "+it.label))
		} else {
			rows = append(rows, mutedStyle.Render("  "+it.label))
		}
	}
	rows = append(rows, "", mutedStyle.Render("  m: minimize  esc: close"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m clockModel) renderDialog(w int) string {
	counter := fmt.Sprintf("%d/%d", session.ReportLen(*m.report), session.MinReportLen)
	counterStyle := errorStyle
	if session.ReportLen(*m.report) >= session.MinReportLen {
		counterStyle = successStyle
	}

	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Clock out"),
			"",
			m.form.View(),
			counterStyle.Render(counter),
		),
	)
}

func (m clockModel) renderNag(w int) string {
	return panelStyle.Width(w).BorderForeground(colorWarning).Render(
		warningStyle.Render("⏰ You haven't clocked in yet today.") + "\n" +
			mutedStyle.Render("Press i to clock in, or esc to dismiss."),
	)
}
