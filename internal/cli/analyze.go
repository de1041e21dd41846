package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// analyzeCommand runs the full analysis over one process and prints paths,
// the critical path, bottlenecks, and parallel branches.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		maxPaths int
		noCache  bool
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <process-id>",
		Short: "Find execution paths, bottlenecks, and parallel branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			runner := c.newRunner(ctx, store, noCache)
			defer runner.Close()

			opts := c.pipelineOptions(args[0])
			opts.Refresh = refresh
			if maxPaths > 0 {
				opts.MaxPaths = maxPaths
			}

			spinner := newSpinnerWithContext(ctx, "Analyzing process...")
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError("Analysis failed")
				return err
			}
			spinner.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}

			an := result.Analysis

			fmt.Println(StyleTitle.Render("Execution Paths"))
			if len(an.Paths) == 0 {
				printDetail("no complete paths from an entry to an exit point")
			}
			for _, path := range an.Paths {
				fmt.Println("  " + StyleValue.Render(strings.Join(path, " "+iconArrow+" ")))
			}
			if an.Truncated {
				printWarning("path list truncated at %d", opts.MaxPaths)
			}
			printNewline()

			if len(an.CriticalPath) > 0 {
				fmt.Println(StyleTitle.Render("Critical Path"))
				fmt.Println("  " + StyleHighlight.Render(strings.Join(an.CriticalPath, " "+iconArrow+" ")))
				printDetail("%d elements", len(an.CriticalPath))
				printNewline()
			}

			fmt.Println(StyleTitle.Render("Bottlenecks"))
			if len(an.Bottlenecks) == 0 {
				printDetail("no convergence points with more than one incoming transition")
			} else {
				rows := make([][]string, len(an.Bottlenecks))
				for i, b := range an.Bottlenecks {
					rows[i] = []string{b.Node.ID, b.Node.Name, strconv.Itoa(b.InDegree)}
				}
				t := table.New().
					Border(lipgloss.RoundedBorder()).
					BorderStyle(styleTableBorder).
					Headers("ID", "Name", "In-Degree").
					Rows(rows...).
					StyleFunc(func(row, col int) lipgloss.Style {
						if row == -1 {
							return styleTableHeader
						}
						return StyleValue
					})
				fmt.Println(t.Render())
			}
			printNewline()

			fmt.Println(StyleTitle.Render("Parallel Branches"))
			if len(an.ParallelBranches) == 0 {
				printDetail("no fan-out points")
			}
			for _, group := range an.ParallelBranches {
				printDetail("%s", strings.Join(group, ", "))
			}

			printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.AnalysisHit)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPaths, "max-paths", 0, "cap on enumerated paths (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	return cmd
}
