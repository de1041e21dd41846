package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kdreher/flowmap/pkg/graph"
)

// showCommand summarizes one process: its elements, entry and exit points,
// and degree counts.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <process-id>",
		Short: "Show the elements and structure of a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			p := newProgress(loggerFromContext(ctx))
			g, err := store.GraphData(ctx, args[0])
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("Loaded %d elements", g.NodeCount()))

			fmt.Println(StyleTitle.Render("Process " + args[0]))
			printNewline()

			rows := make([][]string, 0, g.NodeCount())
			for _, n := range g.Nodes() {
				rows = append(rows, []string{
					n.ID,
					n.Name,
					string(n.Type),
					strconv.Itoa(g.InDegree(n.ID)),
					strconv.Itoa(g.OutDegree(n.ID)),
				})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(styleTableBorder).
				Headers("ID", "Name", "Type", "In", "Out").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return styleTableHeader
					}
					return StyleValue
				})
			fmt.Println(t.Render())

			sources := make([]string, 0)
			for _, n := range g.Sources() {
				sources = append(sources, n.ID)
			}
			sinks := make([]string, 0)
			for _, n := range g.NodesOfType(graph.TypeEnd) {
				sinks = append(sinks, n.ID)
			}

			printKeyValue("Entry points", strings.Join(sources, ", "))
			printKeyValue("Exit points", strings.Join(sinks, ", "))
			printStats(g.NodeCount(), g.EdgeCount(), false)
			printNewline()
			printNextStep("Analyze", "flowmap analyze "+args[0])
			return nil
		},
	}
}
