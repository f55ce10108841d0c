package main

import (
	"fmt"
	"io"
	"os"

	"codeberg.org/studyai/server/internal/client"
	"codeberg.org/studyai/server/internal/logger"
	"codeberg.org/studyai/server/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if !term.IsTerminal(os.Stdout.Fd()) {
		fmt.Println("studyai needs an interactive terminal")
		os.Exit(1)
	}

	token := os.Getenv("STUDYAI_TOKEN")
	if token == "" {
		fmt.Println("STUDYAI_TOKEN is not set; sign in and export your access token first")
		os.Exit(1)
	}

	// the alt screen owns stdout; logs go to a file when asked for
	logger.SetOutput(io.Discard)
	if path := os.Getenv("STUDYAI_LOG_FILE"); path != "" {
		f, err := tea.LogToFile(path, "studyai")
		if err == nil {
			defer f.Close() //nolint:errcheck,gosec // best-effort cleanup
			logger.SetOutput(f)
		}
	}

	c := client.NewFromEnv()
	app := tui.NewApp(c, &client.Session{Token: token})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("error running studyai: %v\n", err)
		os.Exit(1)
	}
}
