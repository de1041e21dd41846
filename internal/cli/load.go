package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdreher/flowmap/pkg/export"
	"github.com/kdreher/flowmap/pkg/graph"
)

// loadCommand imports a process from a JSON document.
func (c *CLI) loadCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "load <process.json>",
		Short: "Import a process from a JSON document",
		Long: `Import a process from a JSON document.

The document uses the same record form 'flowmap export -f json' writes:
nodes with id, name, and type, and edges with source, target, and an
optional label. The graph is validated before anything is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, err := export.ReadFile(args[0])
			if err != nil {
				return err
			}
			// Validation errors surface here, before the database is touched.
			if _, err := export.ToGraph(doc); err != nil {
				return fmt.Errorf("invalid process document: %w", err)
			}

			processName := name
			if processName == "" {
				processName = doc.ProcessName
			}
			if processName == "" {
				return fmt.Errorf("process name required (set --name or process_name in the document)")
			}

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			nodes := make([]graph.Node, len(doc.Nodes))
			for i, n := range doc.Nodes {
				nodes[i] = graph.Node{ID: n.ID, Name: n.Name, Type: graph.ParseNodeType(n.Type)}
			}
			edges := make([]graph.Edge, len(doc.Edges))
			for i, e := range doc.Edges {
				edges[i] = graph.Edge{Source: e.Source, Target: e.Target, Label: e.Label}
			}

			p := newProgress(loggerFromContext(ctx))
			id, err := store.CreateProcess(ctx, doc.ProcessID, processName, nodes, edges)
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("Stored %d elements", len(nodes)))

			printSuccess("Imported %s", processName)
			printKeyValue("Process ID", id)
			printNewline()
			printNextStep("Inspect it", "flowmap show "+id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "process name (default: process_name from the document)")
	return cmd
}

// deleteCommand removes a process and all its elements.
func (c *CLI) deleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <process-id>",
		Short: "Delete a process and all its elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			if err := store.DeleteProcess(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
