package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// processesCommand lists every stored process.
func (c *CLI) processesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "processes",
		Short: "List stored workflow processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			infos, err := store.Processes(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No processes stored")
				printNextStep("Import one", "flowmap load process.json")
				return nil
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				rows[i] = []string{info.ID, info.Name, strconv.Itoa(info.Elements)}
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(styleTableBorder).
				Headers("ID", "Name", "Elements").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return styleTableHeader
					}
					return StyleValue
				})
			fmt.Println(t.Render())
			printDetail("%d processes", len(infos))
			return nil
		},
	}
}

// statsCommand prints database-wide statistics.
func (c *CLI) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database-wide statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			stats, err := store.Statistics(ctx)
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render("Database Statistics"))
			printNewline()
			printKeyValue("Processes", strconv.Itoa(stats.Processes))
			printKeyValue("Elements", strconv.Itoa(stats.Elements))
			printKeyValue("Transitions", strconv.Itoa(stats.Transitions))

			if len(stats.ByType) > 0 {
				printNewline()
				types := make([]string, 0, len(stats.ByType))
				for t := range stats.ByType {
					types = append(types, t)
				}
				sort.Strings(types)
				for _, t := range types {
					printKeyValue(t, strconv.Itoa(stats.ByType[t]))
				}
			}
			return nil
		},
	}
}
