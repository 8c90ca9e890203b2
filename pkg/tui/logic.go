package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"roaster/pkg/address"
	"roaster/pkg/donation"
	"roaster/pkg/i18n"
	"roaster/pkg/models"
	"roaster/pkg/orchestrator"
	"roaster/pkg/share"
	"roaster/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/shopspring/decimal"
)

func listenForEvents(sub orchestrator.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

// displayAddress shortens the session address the way the header shows it:
// first8...last6 for a connected wallet, first12...last12 for a pasted one.
func displayAddress(s models.WalletSession) string {
	switch {
	case s.Address == "":
		return ""
	case s.Origin == models.OriginManual:
		return address.ShortForm(s.Address, 12, 12)
	default:
		return address.ShortForm(s.Address, 8, 6)
	}
}

// errorKey picks the message for an orchestrator error. Superseded results
// are dropped silently.
func errorKey(err error) string {
	var ve *address.ValidationError
	switch {
	case err == nil, errors.Is(err, orchestrator.ErrSuperseded):
		return ""
	case errors.As(err, &ve):
		if ve.Reason == address.ReasonEmpty {
			return i18n.AddressRequired
		}
		return i18n.InvalidAddress
	case errors.Is(err, orchestrator.ErrBusy):
		return i18n.Busy
	case errors.Is(err, orchestrator.ErrNoWallet), errors.Is(err, donation.ErrNotConnected):
		return i18n.NoWallet
	default:
		return i18n.Error
	}
}

func donationMessage(lang string, r models.DonationReceipt) string {
	if r.Simulated {
		return fmt.Sprintf(i18n.T(lang, i18n.DonationDemo), r.Request.Amount, r.Request.Currency, r.Request.Recipient)
	}
	return fmt.Sprintf(i18n.T(lang, i18n.DonationThanks), r.Request.Amount, r.Request.Currency)
}

// donationChoice maps the 1-based menu key to an amount.
func donationChoice(menu []decimal.Decimal, key string) (decimal.Decimal, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return decimal.Decimal{}, false
	}
	idx := int(key[0] - '1')
	if idx >= len(menu) {
		return decimal.Decimal{}, false
	}
	return menu[idx], true
}

func shareURL(target, lang, roast string) string {
	if target == "telegram" {
		return share.TelegramURL(lang, roast)
	}
	return share.TwitterURL(lang, roast)
}

func holdingRows(snap models.PortfolioSnapshot) []string {
	rows := make([]string, 0, len(snap.Tokens))
	for _, tok := range snap.Tokens {
		rows = append(rows, fmt.Sprintf("  %-10s %18s %12s %6.1f%%",
			utils.TruncateString(tok.Name, 10),
			utils.FormatFloat(tok.Amount, 4),
			utils.FormatUSD(tok.Value),
			utils.Percent(tok.Value, snap.TotalValue)))
	}
	return rows
}

// holdingsChart plots holding values from largest to smallest.
func holdingsChart(snap models.PortfolioSnapshot, width, height int) string {
	if len(snap.Tokens) < 2 {
		return "Not enough holdings to draw a chart."
	}
	values := make([]float64, 0, len(snap.Tokens))
	for _, tok := range snap.Tokens {
		values = append(values, tok.Value)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	if width < 10 {
		width = 10
	}
	if height < 3 {
		height = 3
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("Holdings by value (USD)"),
	)
}

func wrapRoast(text string, width int) string {
	if width <= 0 {
		return text
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		var line strings.Builder
		for _, w := range words {
			if line.Len() > 0 && line.Len()+1+len(w) > width {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(w)
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
