package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/oserdar/punchr/internal/store"
)

// settingsModel edits local client preferences. These live in the
// client-side store, not on the server, so they follow the machine
// rather than the account.
type settingsModel struct {
	store       *store.Store
	defaultPoll time.Duration
	width       int
	height      int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	pollSecs  *string
	reminders *bool
	exportDir *string
}

func newSettingsModel(s *store.Store, defaultPoll time.Duration) settingsModel {
	ps, ed := "", ""
	rem := false
	return settingsModel{
		store:       s,
		defaultPoll: defaultPoll,
		pollSecs:    &ps,
		reminders:   &rem,
		exportDir:   &ed,
	}
}

// effectivePollSeconds is the stored override when present, otherwise
// the configured default.
func (s settingsModel) effectivePollSeconds() int {
	if n := s.store.PollIntervalSeconds(); n > 0 {
		return n
	}
	return int(s.defaultPoll / time.Second)
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, keys.Enter) || key.Matches(msg, keys.Edit) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.pollSecs = strconv.Itoa(s.effectivePollSeconds())
	*s.reminders = !s.store.RemindersDisabled()
	*s.exportDir = s.store.ExportDir()

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Status poll interval (seconds)").
				Value(s.pollSecs).
				Validate(func(v string) error {
					n, err := strconv.Atoi(v)
					if err != nil || n < 1 {
						return fmt.Errorf("must be a whole number of seconds")
					}
					return nil
				}),
			huh.NewConfirm().Title("Clock-in reminders").
				Affirmative("On").Negative("Off").
				Value(s.reminders),
			huh.NewInput().Title("Export directory").
				Description("Blank uses the current directory").
				Value(s.exportDir),
		).Title("Preferences"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.saveSettings()
		return s, infoStatus("Settings saved — poll interval applies on restart")
	}

	return s, cmd
}

func (s settingsModel) saveSettings() {
	if n, err := strconv.Atoi(*s.pollSecs); err == nil && n >= 1 {
		s.store.SetPollIntervalSeconds(n)
	}
	s.store.SetRemindersDisabled(!*s.reminders)
	s.store.SetExportDir(*s.exportDir)
}

func (s settingsModel) view() string {
	w := s.width - 4

	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	reminders := "on"
	if s.store.RemindersDisabled() {
		reminders = "off"
	}
	exportDir := s.store.ExportDir()
	if exportDir == "" {
		exportDir = "(current directory)"
	}

	rows := []string{
		title,
		"",
		settingRow("Poll interval", fmt.Sprintf("%d s", s.effectivePollSeconds())),
		settingRow("Reminders", reminders),
		settingRow("Export directory", exportDir),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	return fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Width(24).Render(label),
		highlightStyle.Render(value),
	)
}
