package tui

import (
	"fmt"

	"codeberg.org/studyai/server/internal/accounts"
	"github.com/charmbracelet/lipgloss"
)

const (
	usageLowThreshold     = 3
	usageWarningThreshold = 7
	usageUpgradeHintBelow = 5
)

// usage counter shown on every screen; empty until the snapshot has loaded
func usageLine(account *accounts.Snapshot) string {
	if account == nil {
		return ""
	}

	if account.IsPremium {
		return premiumStyle.Render("★ unlimited access")
	}

	style := usageStyle
	switch {
	case account.Remaining <= usageLowThreshold:
		style = usageLowStyle
	case account.Remaining <= usageWarningThreshold:
		style = usageWarnStyle
	}

	line := style.Render(fmt.Sprintf("%d/%d uses left today", account.Remaining, account.DailyLimit))

	if account.Remaining <= usageUpgradeHintBelow {
		line = lipgloss.JoinHorizontal(lipgloss.Left, line, infoStyle.Render("  upgrade to premium for unlimited access"))
	}

	return line
}
