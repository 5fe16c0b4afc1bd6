package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/walletflow/internal/aggregate"
	"github.com/Veraticus/walletflow/internal/market"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/router"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.coord.Pending() {
		return m.renderLoading("Restoring your session...")
	}

	if m.route.IsPublic() {
		content := m.authForm.view(m.theme, m.keymap)
		if m.notice != "" {
			content = lipgloss.JoinVertical(lipgloss.Center, content, "", m.theme.StatusError.Render(m.notice))
		}
		return m.place(content)
	}

	return m.renderDashboard()
}

func (m Model) place(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderLoading(text string) string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("👛 Wallet"),
		m.spinner.View()+" "+m.theme.Muted.Render(text),
	)
	return m.place(content)
}

func (m Model) renderDashboard() string {
	var body string
	switch {
	case m.data.IsAddModalOpen || m.data.IsEditModalOpen:
		body = m.txForm.view(m.theme, m.keymap)
	case m.route == router.Statistics:
		body = m.renderStatistics()
	case m.route == router.Currency:
		body = m.renderCurrency()
	default:
		body = m.renderHome()
	}

	parts := []string{m.renderHeader(), m.renderTabs(), "", body, ""}
	if status := m.renderStatus(); status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	name := ""
	if m.session.User != nil {
		name = m.session.User.Name
	}
	summary := aggregate.Summarize(m.data.Transactions, m.data.Categories(), m.config.Now())

	left := m.theme.Bold.Render("👛 Wallet")
	right := m.theme.Muted.Render(name) + "  " + m.theme.Subtitle.Render("Balance ") + m.formatAmount(summary.BalanceAfter, false)
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(router.DashboardRoutes))
	for _, r := range router.DashboardRoutes {
		if r == m.route {
			tabs = append(tabs, m.theme.TabActive.Render(r.Title()))
		} else {
			tabs = append(tabs, m.theme.TabInactive.Render(r.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderStatus() string {
	switch {
	case m.deleting != "":
		return m.theme.StatusInfo.Render("Delete this transaction? y to confirm, any other key to cancel")
	case m.data.IsLoading:
		return m.spinner.View() + " " + m.theme.Muted.Render("Loading...")
	case m.notice != "":
		return m.theme.StatusError.Render(m.notice)
	case m.data.Error != "":
		return m.theme.StatusError.Render(m.data.Error)
	}
	return ""
}

func (m Model) renderHome() string {
	visible := m.visible()
	if len(visible) == 0 {
		if m.data.IsLoading {
			return m.theme.Muted.Render("Loading transactions...")
		}
		return m.theme.Muted.Render("No transactions yet. Press a to add one.")
	}

	order := "newest first"
	if m.sortAsc {
		order = "oldest first"
	}
	header := fmt.Sprintf("%-10s  %-4s  %-18s  %-30s  %12s", "DATE", "TYPE", "CATEGORY", "COMMENT", "SUM")
	lines := []string{
		m.theme.Muted.Render("Sorted " + order),
		m.theme.Bold.Render(header),
	}

	start, end := m.window(len(visible))
	for i := start; i < end; i++ {
		tx := visible[i]
		sign := "+"
		if tx.Type == model.TypeExpense {
			sign = "-"
		}
		category := tx.CategoryID
		if c, ok := model.FindCategory(m.data.Categories(), tx.CategoryID); ok {
			category = c.Name
		}
		row := fmt.Sprintf("%-10s  %-4s  %-18s  %-30s  ",
			tx.TransactionDate.In(m.config.Now().Location()).Format(model.DateLayout),
			sign,
			truncate(category, 18),
			truncate(tx.Comment, 30),
		)
		amount := fmt.Sprintf("%12s", tx.Amount.Abs().StringFixed(2))
		if i == m.cursor {
			lines = append(lines, m.theme.Selected.Render(row+amount))
			continue
		}
		lines = append(lines, row+m.amountStyle(tx.Amount).Render(amount))
	}
	return strings.Join(lines, "\n")
}

// window returns the slice of rows that fits the screen around the cursor.
func (m Model) window(total int) (int, int) {
	rows := max(3, m.height-12)
	if total <= rows {
		return 0, total
	}
	start := min(max(0, m.cursor-rows/2), total-rows)
	return start, start + rows
}

func (m Model) renderStatistics() string {
	from, to := aggregate.MonthlyRange(m.month.Year(), m.month.Month(), m.month.Location())
	summary := aggregate.SummarizeRange(m.data.Transactions, m.data.Categories(), from, to)
	slices := aggregate.ChartDataset(summary.Expenses())

	lines := []string{
		m.theme.Bold.Render(m.month.Format("January 2006")) + "  " +
			m.theme.Muted.Render(m.keymap.PrevMonth.Help().Key+"/"+m.keymap.NextMonth.Help().Key+" change month"),
		"",
	}

	if len(slices) == 0 {
		lines = append(lines, m.theme.Muted.Render("No expenses this month."))
	}
	for _, s := range slices {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■")
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).
			Render(strings.Repeat("█", int(s.Percentage.Div(decimal.NewFromInt(5)).IntPart())))
		lines = append(lines, fmt.Sprintf("%s %-18s %12s %6s%%  %s",
			swatch, truncate(s.Label, 18), s.Value.StringFixed(2), s.Percentage.StringFixed(1), bar))
	}

	lines = append(lines,
		"",
		fmt.Sprintf("%-20s %s", "Expenses:", m.formatAmount(summary.ExpenseTotal, false)),
		fmt.Sprintf("%-20s %s", "Income:", m.formatAmount(summary.IncomeTotal, true)),
		fmt.Sprintf("%-20s %s", "Balance for month:", m.formatAmount(summary.BalanceAfter, true)),
	)
	return strings.Join(lines, "\n")
}

func (m Model) renderCurrency() string {
	switch {
	case m.market == nil:
		return m.theme.Muted.Render("Market data is not configured.")
	case m.marketLoading:
		return m.spinner.View() + " " + m.theme.Muted.Render("Loading market data...")
	}
	return m.renderRates() + "\n\n" + m.renderPerformance()
}

func (m Model) renderRates() string {
	switch {
	case m.ratesErr != "":
		return m.theme.StatusError.Render(m.ratesErr)
	case len(m.rates) == 0:
		return m.theme.Muted.Render("No exchange rates.")
	}

	lines := []string{m.theme.Bold.Render(fmt.Sprintf("%-10s %10s %10s", "CURRENCY", "BUY", "SELL")), ""}
	for _, r := range m.rates {
		lines = append(lines, fmt.Sprintf("%-10s %10s %10s",
			r.Currency+"/"+market.BaseCurrency, r.Buy.StringFixed(2), r.Sell.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPerformance() string {
	switch {
	case m.marketErr != "":
		return m.theme.StatusError.Render(m.marketErr)
	case len(m.performance) == 0:
		return m.theme.Muted.Render("No market data.")
	}

	lines := []string{m.theme.Bold.Render(fmt.Sprintf("%-10s %10s  %s", "PAIR", "CHANGE", "LAST 24H")), ""}
	for _, p := range m.performance {
		last := p.Last()
		change := fmt.Sprintf("%9s%%", last.StringFixed(2))
		lines = append(lines, fmt.Sprintf("%-10s %s  %s",
			p.Symbol, m.amountStyle(last).Render(change), sparkline(p.Points)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) amountStyle(amount decimal.Decimal) lipgloss.Style {
	switch {
	case amount.IsPositive():
		return m.theme.Income
	case amount.IsNegative():
		return m.theme.Expense
	}
	return m.theme.Normal
}

func (m Model) formatAmount(amount decimal.Decimal, signed bool) string {
	text := amount.StringFixed(2)
	if signed && amount.IsPositive() {
		text = "+" + text
	}
	return m.amountStyle(amount).Render(text)
}

// sparkline draws points scaled between their minimum and maximum.
func sparkline(points []market.Point) string {
	if len(points) == 0 {
		return ""
	}
	lo, hi := points[0].Percent, points[0].Percent
	for _, p := range points[1:] {
		lo = decimal.Min(lo, p.Percent)
		hi = decimal.Max(hi, p.Percent)
	}

	span := hi.Sub(lo)
	top := decimal.NewFromInt(int64(len(sparkBlocks) - 1))
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if !span.IsZero() {
			idx = int(p.Percent.Sub(lo).Div(span).Mul(top).Round(0).IntPart())
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}
