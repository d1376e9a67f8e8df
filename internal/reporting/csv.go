package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders strategy results as CSV string.
func RenderCSV(rows []StrategyRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("strategy_id,fills,buys,sells,rejected,spent_sol,proceeds_sol,")
	sb.WriteString("realized_pnl,rounds_traded,winning_rounds,win_rate\n")

	// Rows
	for _, s := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%.6f,%.6f,%.6f,%d,%d,%.6f\n",
			s.StrategyID,
			s.Fills,
			s.Buys,
			s.Sells,
			s.Rejected,
			s.SpentSOL,
			s.ProceedsSOL,
			s.RealizedPnL,
			s.RoundsTraded,
			s.WinningRound,
			s.WinRate,
		))
	}

	return sb.String()
}
