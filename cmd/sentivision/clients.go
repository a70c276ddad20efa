package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/config"
	"github.com/okian/sentivision/internal/domain/scoring"
)

func newClientsCommand(cc *commandContext) *cobra.Command {
	var tiers []string
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List clients with their direct-mention sentiment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.withService(cmd.Context(), func(_ *config.Config, svc *service.Service) error {
				d, err := svc.Dashboard(cmd.Context(), scoring.ParseTiers(tiers))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(d.Tiles) == 0 {
					fmt.Fprintln(out, "No clients.")
					return nil
				}
				fmt.Fprintln(out, renderDashboard(d, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&tiers, "tier", nil, "Media tiers to include (1-4, repeatable; default all)")
	return cmd
}

// clientNameWidth caps the client column so long names keep rows on one line.
const clientNameWidth = 32

var dashboardColumns = []column{ //nolint:gochecknoglobals // static layout
	{title: "ID", align: text.AlignRight},
	{title: "Client", align: text.AlignLeft, maxWidth: clientNameWidth},
	{title: "Sentiment", align: text.AlignLeft},
	{title: "Score", align: text.AlignRight},
	{title: "Direct", align: text.AlignRight},
	{title: "Scored", align: text.AlignRight},
	{title: "Articles", align: text.AlignRight},
}

func renderDashboard(d service.Dashboard, colorize bool) string {
	rows := make([]table.Row, 0, len(d.Tiles))
	for _, t := range d.Tiles {
		g := t.Direct.Gauge
		score := "-"
		if g.Rounded != nil {
			score = strconv.FormatFloat(*g.Rounded, 'f', 2, 64)
		}
		rows = append(rows, table.Row{
			t.Client.ID,
			t.Client.Name,
			paint(g.Label, g.Color, colorize),
			score,
			t.Direct.Result.Total,
			t.Direct.Result.Scored,
			t.Articles,
		})
	}
	var b strings.Builder
	b.WriteString(renderTable(dashboardColumns, rows))
	fmt.Fprintf(&b, "\n%d articles (%d scored), %d direct mentions (%d scored)",
		d.TotalArticles, d.TotalScored, d.TotalDirect, d.TotalDirectScored)
	return b.String()
}
