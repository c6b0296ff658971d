package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/dkovacevic/adscope/internal/domain"
	"github.com/dkovacevic/adscope/internal/store"
)

// RenderStatesTable writes the per-unit state summary as a table.
func RenderStatesTable(w io.Writer, states []domain.AdStateInfo) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"", "Ad Unit", "Load", "Show", "Revenue USD", "OK", "Fail", "Shown"})
	for _, st := range states {
		if err := table.Append([]string{
			LoadStateIndicator(st.LoadState),
			st.AdUnitID,
			string(st.LoadState),
			string(st.ShowState),
			formatUSD(st.RevenueUSD),
			strconv.Itoa(st.SuccessCount),
			strconv.Itoa(st.FailedCount),
			strconv.Itoa(st.ShowedCount),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// RenderRevenueTable writes per-network revenue with a total row.
func RenderRevenueTable(w io.Writer, rows []store.NetworkRevenue, totalUSD float64) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"Network", "Revenue USD"})
	for _, row := range rows {
		if err := table.Append([]string{row.Network, formatUSD(row.USD)}); err != nil {
			return err
		}
	}
	if err := table.Append([]string{"total", formatUSD(totalUSD)}); err != nil {
		return err
	}
	return table.Render()
}

// formatUSD keeps micro-payout precision without scientific notation.
func formatUSD(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
