package tui

import (
	"strings"
	"time"

	"roaster/pkg/i18n"
	"roaster/pkg/orchestrator"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

const statusTimeout = 3 * time.Second

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m model) connectCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "connect", err: m.orch.Connect(m.ctx)}
	}
}

func (m model) analyzeCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "analyze", err: m.orch.Analyze(m.ctx)}
	}
}

func (m model) analyzeAddressCmd(raw string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "analyze", err: m.orch.AnalyzeAddress(m.ctx, raw)}
	}
}

func (m model) donateCmd(amount decimal.Decimal) tea.Cmd {
	return func() tea.Msg {
		r, err := m.orch.Donate(m.ctx, amount)
		if err != nil {
			return opDoneMsg{op: "donate", err: err}
		}
		return opDoneMsg{op: "donate", receipt: &r}
	}
}

func (m *model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = isErr
	return clearStatusAfter(statusTimeout)
}

func (m *model) applyState(st orchestrator.State) {
	langChanged := st.Language != m.state.Language
	m.state = st
	if langChanged {
		m.addressInput.Placeholder = m.t(i18n.ManualPlaceholder)
	}
	if st.Roast != nil {
		m.viewport.SetContent(wrapRoast(st.Roast.Text, m.viewport.Width))
	} else {
		m.viewport.SetContent("")
	}
	if !st.Busy {
		m.pending = ""
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 8
		m.viewport.Height = msg.Height / 3
		if m.state.Roast != nil {
			m.viewport.SetContent(wrapRoast(m.state.Roast.Text, m.viewport.Width))
		}

	case orchestrator.Event:
		m.applyState(msg.State)
		cmds = append(cmds, listenForEvents(m.sub))

	case opDoneMsg:
		m.applyState(m.orch.State())
		if msg.receipt != nil {
			cmds = append(cmds, m.setStatus(donationMessage(m.state.Language, *msg.receipt), false))
		} else if key := errorKey(msg.err); key != "" {
			cmds = append(cmds, m.setStatus(m.t(key), true))
		}
		if msg.op == "analyze" && msg.err == nil {
			m.editing = false
			m.addressInput.Blur()
			m.addressInput.Reset()
			m.viewport.GotoTop()
		}

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		if msg.String() == "?" {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			if msg.String() == "q" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		cmd := m.handleKey(msg)
		return m, cmd

	case clearStatusMsg:
		m.statusMessage = ""
		m.statusIsError = false
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.addressInput.Blur()
		return m, nil
	case "enter":
		m.pending = i18n.AnalyzingWallet
		return m, m.analyzeAddressCmd(m.addressInput.Value())
	}

	var cmd tea.Cmd
	m.addressInput, cmd = m.addressInput.Update(msg)
	if m.statusIsError {
		m.statusMessage = ""
		m.statusIsError = false
	}
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return tea.Quit

	case "c":
		m.pending = i18n.Processing
		return m.connectCmd()

	case "d":
		m.orch.Disconnect()
		m.applyState(m.orch.State())

	case "a", "/":
		m.editing = true
		m.addressInput.Focus()
		return nil

	case "r", "enter":
		m.pending = i18n.Analyzing
		return m.analyzeCmd()

	case "L":
		m.orch.ToggleLanguage()
		m.applyState(m.orch.State())

	case "v":
		m.showChart = !m.showChart

	case "t", "g":
		if m.state.Roast == nil {
			return nil
		}
		target := "twitter"
		if key == "g" {
			target = "telegram"
		}
		if err := openBrowser(shareURL(target, m.state.Language, m.state.Roast.Text)); err != nil {
			return m.setStatus(m.t(i18n.Error), true)
		}

	case "y":
		if m.state.Roast == nil {
			return nil
		}
		if err := clipboard.WriteAll(strings.TrimSpace(m.state.Roast.Text)); err != nil {
			return m.setStatus(m.t(i18n.Error), true)
		}
		return m.setStatus(m.t(i18n.Copied), false)

	case "up", "k":
		m.viewport.LineUp(1)
	case "down", "j":
		m.viewport.LineDown(1)

	default:
		amounts, _, _ := m.orch.DonationMenu()
		if amount, ok := donationChoice(amounts, key); ok {
			if !m.state.Session.CanDonate() {
				return m.setStatus(m.t(i18n.NoWallet), true)
			}
			m.pending = i18n.Processing
			return m.donateCmd(amount)
		}
	}
	return nil
}
