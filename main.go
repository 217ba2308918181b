package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/oserdar/punchr/internal/api"
	"github.com/oserdar/punchr/internal/config"
	"github.com/oserdar/punchr/internal/reminder"
	"github.com/oserdar/punchr/internal/store"
	"github.com/oserdar/punchr/internal/tui"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	// A stored preference beats the configured interval.
	poll := cfg.PollInterval
	if n := s.PollIntervalSeconds(); n > 0 {
		poll = time.Duration(n) * time.Second
	}

	gw := api.NewClient(cfg.ServerURL, cfg.UserID)
	sched := reminder.New(s, cfg.ExemptRoles)

	app := tui.NewApp(gw, s, sched, cfg.UserRole, poll)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
