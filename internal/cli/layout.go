package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// layoutCommand computes node positions for a process and writes them as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		width   float64
		height  float64
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout <process-id>",
		Short: "Compute node positions for a process",
		Long: `Compute node positions for a process.

Elements are placed on vertical levels by flow depth: entry points on the
first level, each transition moving its target at least one level further
right. Levels are centered vertically on the canvas. Results are cached
locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
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
			if width > 0 {
				opts.Width = width
			}
			if height > 0 {
				opts.Height = height
			}

			spinner := newSpinnerWithContext(ctx, "Computing layout...")
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError("Layout failed")
				return err
			}
			spinner.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}

			outputPath := output
			if outputPath == "" {
				outputPath = args[0] + ".layout.json"
			}

			data, err := json.MarshalIndent(result.Layout, "", "  ")
			if err != nil {
				return fmt.Errorf("serialize layout: %w", err)
			}
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return fmt.Errorf("write output %s: %w", outputPath, err)
			}

			printSuccess("Layout complete")
			printFile(outputPath)
			if len(result.Layout.Unplaced) > 0 {
				printWarning("%d elements unreachable from any entry point", len(result.Layout.Unplaced))
			}
			printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
			printNewline()
			printNextStep("Export a diagram", "flowmap export "+args[0]+" -f svg")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <process-id>.layout.json)")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&height, "height", 0, "canvas height (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	return cmd
}
