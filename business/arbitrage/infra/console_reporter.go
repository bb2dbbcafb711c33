// Package infra provides the arbitrage context's outward-facing
// adapters: verdict reporting and spread history storage.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
)

// ConsoleReporter implements app.Reporter, printing one verdict line
// per candidate and a summary table at the end of each scan pass.
type ConsoleReporter struct {
	out io.Writer

	mu   sync.Mutex
	rows []verdictRow
}

type verdictRow struct {
	pair      string
	route     string
	verdict   *domain.Verdict
	timestamp time.Time
}

// NewConsoleReporter writes to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterWriter targets an arbitrary writer, for tests.
func NewConsoleReporterWriter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// Report buffers the verdict for the pass summary and prints accepted
// opportunities immediately.
func (r *ConsoleReporter) Report(_ context.Context, candidate *domain.Candidate, verdict *domain.Verdict) {
	route := fmt.Sprintf("%s>%s", candidate.BuyVenue, candidate.SellVenue)

	r.mu.Lock()
	r.rows = append(r.rows, verdictRow{
		pair:      candidate.Pair(),
		route:     route,
		verdict:   verdict,
		timestamp: time.Now(),
	})
	r.mu.Unlock()

	if verdict.Valid && verdict.Costs != nil {
		fmt.Fprintf(r.out, "[%s] VALID %s %s net=$%s ratio=%s spread=%s%%\n",
			time.Now().Format("15:04:05"),
			candidate.Pair(), route,
			verdict.Costs.NetProfitUSD.StringFixed(2),
			verdict.Costs.ProfitToGasRatio.StringFixed(2),
			verdict.SpreadPct.StringFixed(3),
		)
	}
}

// Flush prints the table of everything reported since the last flush
// and clears the buffer. The scanner calls it once per pass.
func (r *ConsoleReporter) Flush() {
	r.mu.Lock()
	rows := r.rows
	r.rows = nil
	r.mu.Unlock()

	if len(rows) == 0 {
		fmt.Fprintf(r.out, "[%s] no candidates this pass\n", time.Now().Format("15:04:05"))
		return
	}

	valid := 0
	for _, row := range rows {
		if row.verdict.Valid {
			valid++
		}
	}
	fmt.Fprintf(r.out, "\n[%s] %d candidates, %d valid\n",
		time.Now().Format("15:04:05"), len(rows), valid)

	table := tablewriter.NewWriter(r.out)
	table.Header("Pair", "Route", "Verdict", "Spread%", "Net$", "Ratio", "Detail")

	for _, row := range rows {
		v := row.verdict

		status := "REJECT"
		detail := v.Detail
		if v.Valid {
			status = "VALID"
			if len(v.Warnings) > 0 {
				detail = v.Warnings[0]
			}
		} else if detail == "" {
			detail = v.Reason
		}

		net, ratio := "-", "-"
		if v.Costs != nil {
			net = "$" + v.Costs.NetProfitUSD.StringFixed(2)
			ratio = v.Costs.ProfitToGasRatio.StringFixed(2)
		}

		table.Append(
			row.pair,
			row.route,
			status,
			v.SpreadPct.StringFixed(3),
			net,
			ratio,
			truncate(detail, 48),
		)
	}

	table.Render()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
