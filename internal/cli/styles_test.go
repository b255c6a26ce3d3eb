package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/testutil"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(
		[]string{"Account", "Balance"},
		[][]string{
			{"Checking", "$1,200.00"},
			{"Emergency Savings", "$50.00"},
		},
	)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	col := strings.Index(lines[1], "$1,200.00")
	assert.Positive(t, col)
	assert.Equal(t, col, strings.Index(lines[2], "$50.00"))
	assert.Equal(t, col, strings.Index(lines[0], "Balance"))
}

func TestRenderTable_ShortRows(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"only"}})
	assert.Contains(t, out, "only")
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		percent string
		filled  int
	}{
		{"0", 0},
		{"50", 5},
		{"85", 8},
		{"100", 10},
		{"250", 10},
	}
	for _, tt := range tests {
		bar := RenderProgressBar(testutil.Money(tt.percent), 10)
		assert.Equal(t, 10, lipgloss.Width(bar), tt.percent)
		assert.Equal(t, tt.filled, strings.Count(bar, "█"), tt.percent)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Contains(t, FormatAmount(testutil.Money("-50"), "USD"), "-$50.00")
	assert.Contains(t, FormatAmount(testutil.Money("1234.5"), "USD"), "$1,234.50")
	assert.Equal(t, "$0.00", FormatAmount(testutil.Money("0"), "USD"))
}

func TestFormatAlert(t *testing.T) {
	a := model.Alert{
		Category:        "Food",
		Type:            model.AlertTypeOverspent,
		CurrentSpending: testutil.Money("240"),
		BudgetedAmount:  testutil.Money("200"),
		Currency:        "USD",
	}
	assert.Contains(t, FormatAlert(a), "Food Budget Exceeded")
	assert.Equal(t, "12.5%", FormatPercent(testutil.Money("12.46")))
}
