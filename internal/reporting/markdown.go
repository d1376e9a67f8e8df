package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Session Report\n\n")
	sb.WriteString(fmt.Sprintf("Session: %s\n\n", r.SessionID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Session Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Capital (SOL) | %.4f |\n", r.Summary.CapitalSOL))
	sb.WriteString(fmt.Sprintf("| Started (ms) | %d |\n", r.Summary.StartedAt))
	sb.WriteString(fmt.Sprintf("| Ended (ms) | %d |\n", r.Summary.EndedAt))
	sb.WriteString(fmt.Sprintf("| Rounds | %d |\n", r.Summary.Rounds))
	sb.WriteString(fmt.Sprintf("| Fills | %d |\n", r.Summary.TotalFills))
	sb.WriteString(fmt.Sprintf("| Buys | %d |\n", r.Summary.TotalBuys))
	sb.WriteString(fmt.Sprintf("| Sells | %d |\n", r.Summary.TotalSells))
	sb.WriteString(fmt.Sprintf("| Volume (SOL) | %.6f |\n", r.Summary.VolumeSOL))
	sb.WriteString(fmt.Sprintf("| Player P&L (SOL) | %.6f |\n", r.Summary.PlayerPnL))
	sb.WriteString(fmt.Sprintf("| House Position (SOL) | %.6f |\n", r.Summary.HousePosition))
	sb.WriteString("\n")

	// Strategy Results
	sb.WriteString("## Strategy Results\n\n")
	if len(r.Strategies) > 0 {
		sb.WriteString("| Strategy | Fills | Buys | Sells | Rejected | Spent | Proceeds | Realized P&L | Rounds | WinRate |\n")
		sb.WriteString("|----------|-------|------|-------|----------|-------|----------|--------------|--------|--------|\n")
		for _, s := range r.Strategies {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %.6f | %.6f | %.6f | %d | %.4f |\n",
				s.StrategyID, s.Fills, s.Buys, s.Sells, s.Rejected,
				s.SpentSOL, s.ProceedsSOL, s.RealizedPnL, s.RoundsTraded, s.WinRate))
		}
	} else {
		sb.WriteString("No strategy results available.\n")
	}
	sb.WriteString("\n")

	// Round Results
	sb.WriteString("## Round Results\n\n")
	if len(r.Rounds) > 0 {
		sb.WriteString("| Round | Final | Peak | Final Tick | Fills | Realized P&L |\n")
		sb.WriteString("|-------|-------|------|-----------|-------|-------------|\n")
		for _, rr := range r.Rounds {
			sb.WriteString(fmt.Sprintf("| %s | %.6f | %.6f | %d | %d | %.6f |\n",
				rr.RoundID, rr.FinalPrice, rr.PeakPrice, rr.FinalTick, rr.FillCount, rr.RealizedPnL))
		}
	} else {
		sb.WriteString("No rounds recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
