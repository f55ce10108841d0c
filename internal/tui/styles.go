package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorDarkGray  = lipgloss.Color("#444444")
	colorPurple    = lipgloss.Color("#8524a6")
	colorGreen     = lipgloss.Color("#00FF00")
	colorYellow    = lipgloss.Color("#FFFF00")
	colorRed       = lipgloss.Color("#FF0000")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Align(lipgloss.Center).
			MarginTop(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Align(lipgloss.Center)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			PaddingLeft(2)

	menuItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorWhite).
				Bold(true).
				PaddingLeft(2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	commandDescStyle = lipgloss.NewStyle().
				Foreground(colorGray).
				PaddingLeft(1)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDarkGray).
			Italic(true).
			MarginTop(1)

	usageStyle = lipgloss.NewStyle().
			Foreground(colorLightGray)

	usageWarnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	usageLowStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	premiumStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)
)

const logo = `
  ███████╗████████╗██╗   ██╗██████╗ ██╗   ██╗
  ██╔════╝╚══██╔══╝██║   ██║██╔══██╗╚██╗ ██╔╝
  ███████╗   ██║   ██║   ██║██║  ██║ ╚████╔╝
  ╚════██║   ██║   ██║   ██║██║  ██║  ╚██╔╝
  ███████║   ██║   ╚██████╔╝██████╔╝   ██║
  ╚══════╝   ╚═╝    ╚═════╝ ╚═════╝    ╚═╝
`
