package tui

import (
	"fmt"
	"strings"

	"roaster/pkg/i18n"
	"roaster/pkg/models"
	"roaster/pkg/utils"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	sections := []string{m.viewHeader(), m.viewWallet()}

	if m.editing {
		sections = append(sections, m.viewManualInput())
	}
	if m.state.Busy || m.pending != "" {
		label := m.pending
		if label == "" {
			label = i18n.Processing
		}
		sections = append(sections, fmt.Sprintf("%s %s", m.spinner.View(), m.t(label)))
	}
	if m.state.LastError != "" {
		sections = append(sections, errStyle.Render(m.t(m.state.LastError)))
	}
	if m.state.Snapshot != nil {
		sections = append(sections, m.viewSnapshot(*m.state.Snapshot))
	}
	if m.state.Roast != nil {
		sections = append(sections, roastStyle.Render(m.viewport.View()))
	}
	sections = append(sections, m.viewDonation())

	if m.statusMessage != "" {
		style := infoStyle
		if m.statusIsError {
			style = errStyle
		}
		sections = append(sections, style.Render(m.statusMessage))
	}
	sections = append(sections, m.viewFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) viewHeader() string {
	title := titleStyle.Render(fmt.Sprintf("%s %s", m.t(i18n.Title), Version))
	lang := subtleStyle.Render(fmt.Sprintf("[%s]", strings.ToUpper(m.state.Language)))
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, title, " ", lang),
		subtleStyle.Render(m.t(i18n.Subtitle)),
	)
}

func (m model) viewWallet() string {
	s := m.state.Session
	var line string
	switch {
	case s.Status == models.StatusConnected:
		line = infoStyle.Render(fmt.Sprintf("● %s", displayAddress(s)))
	case s.Status == models.StatusConnecting:
		line = subtleStyle.Render(m.t(i18n.Processing))
	case s.Origin == models.OriginManual:
		line = fmt.Sprintf("%s %s", m.t(i18n.AnalyzingWallet), displayAddress(s))
	default:
		line = subtleStyle.Render(m.t(i18n.NoWallet))
	}
	return boxStyle.Render(line)
}

func (m model) viewManualInput() string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render(m.t(i18n.ManualAddressTitle)),
		m.addressInput.View(),
		subtleStyle.Render(fmt.Sprintf("enter: %s • esc: cancel", m.t(i18n.AnalyzeAddress))),
	))
}

func (m model) viewSnapshot(snap models.PortfolioSnapshot) string {
	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s %18s %12s %7s", "Token", "Amount", "Value", "Share"))
	summary := subtleStyle.Render(fmt.Sprintf("Total %s • NFTs %d • Txs %s",
		utils.FormatUSD(snap.TotalValue),
		snap.NFTCount,
		utils.AddCommas(fmt.Sprintf("%d", snap.TransactionCount))))

	parts := []string{header, strings.Join(holdingRows(snap), "\n"), summary}
	if m.showChart {
		parts = append(parts, holdingsChart(snap, m.width-20, 6))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m model) viewDonation() string {
	amounts, currency, _ := m.orch.DonationMenu()
	opts := make([]string, 0, len(amounts))
	for i, a := range amounts {
		opts = append(opts, fmt.Sprintf("%d: %s %s", i+1, a, currency))
	}
	line := strings.Join(opts, "  ")
	if !m.state.Session.CanDonate() {
		line = subtleStyle.Render(line)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		subtleStyle.Render(fmt.Sprintf("%s ☕ %s", m.t(i18n.Donation), m.t(i18n.DonationText))),
		line,
	)
}

func (m model) viewFooter() string {
	return subtleStyle.Render("c: connect • a: paste address • r: roast • L: language • ?: help • q: quit")
}

func (m model) viewHelp() string {
	shortcuts := []string{
		"c: " + m.t(i18n.ConnectWallet),
		"d: " + m.t(i18n.Disconnect),
		"a or /: " + m.t(i18n.ManualAddressTitle),
		"r/enter: " + m.t(i18n.AnalyzeWallet),
		"1-3: " + m.t(i18n.BuyMeCoffee),
		"t: " + m.t(i18n.ShareTwitter),
		"g: " + m.t(i18n.ShareTelegram),
		"y: Copy roast",
		"v: Toggle holdings chart",
		"↑/k ↓/j: Scroll roast",
		"L: Toggle language",
		"q: Quit",
		"?: Toggle Help",
	}

	header := titleStyle.Render("Help")
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(shortcuts, "\n")))
	footer := subtleStyle.Render("Press '?' or 'esc' to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
	)
}
