package tui

import (
	"context"

	"roaster/pkg/i18n"
	"roaster/pkg/models"
	"roaster/pkg/orchestrator"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}

// opDoneMsg reports the end of an orchestrator call run off the render loop.
type opDoneMsg struct {
	op      string
	err     error
	receipt *models.DonationReceipt
}

// --- Model ---

type model struct {
	orch  *orchestrator.Orchestrator
	sub   orchestrator.Subscriber
	state orchestrator.State
	ctx   context.Context

	width         int
	height        int
	spinner       spinner.Model
	addressInput  textinput.Model
	editing       bool
	viewport      viewport.Model
	statusMessage string
	statusIsError bool
	pending       string // i18n key shown next to the spinner
	showHelp      bool
	showChart     bool
}

func initialModel(ctx context.Context, o *orchestrator.Orchestrator) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	st := o.State()

	ti := textinput.New()
	ti.Placeholder = i18n.T(st.Language, i18n.ManualPlaceholder)
	ti.CharLimit = 64
	ti.Width = 50

	return model{
		orch:         o,
		sub:          o.Subscribe(),
		state:        st,
		ctx:          ctx,
		spinner:      s,
		addressInput: ti,
		viewport:     viewport.New(0, 0),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(listenForEvents(m.sub), m.spinner.Tick)
}

func (m model) t(key string) string {
	return i18n.T(m.state.Language, key)
}
