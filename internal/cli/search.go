package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kdreher/flowmap/pkg/store/neo4j"
)

// searchCommand finds elements by name across all processes.
func (c *CLI) searchCommand() *cobra.Command {
	var gateways bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find elements by name across all processes",
		Long: `Find elements by name across all processes.

The query matches element names case-insensitively. With --gateways, the
query is ignored and every Gateway or Decision element is listed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			var matches []neo4j.TaskMatch
			switch {
			case gateways:
				matches, err = store.Gateways(ctx)
			case len(args) == 1 && args[0] != "":
				matches, err = store.FindTask(ctx, args[0])
			default:
				return fmt.Errorf("query required unless --gateways is set")
			}
			if err != nil {
				return err
			}

			if len(matches) == 0 {
				printInfo("No matches")
				return nil
			}

			rows := make([][]string, len(matches))
			for i, m := range matches {
				rows[i] = []string{m.ProcessName, m.Node.ID, m.Node.Name, string(m.Node.Type)}
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(styleTableBorder).
				Headers("Process", "ID", "Name", "Type").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return styleTableHeader
					}
					return StyleValue
				})
			fmt.Println(t.Render())
			printDetail("%d matches", len(matches))
			return nil
		},
	}

	cmd.Flags().BoolVar(&gateways, "gateways", false, "list all Gateway and Decision elements")
	return cmd
}
