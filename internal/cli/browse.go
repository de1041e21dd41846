package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kdreher/flowmap/pkg/store/neo4j"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand opens an interactive picker over the stored processes and
// prints a summary of the selected one.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively pick and inspect a process",
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
				return nil
			}

			model := NewProcessListModel(infos)
			final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("run picker: %w", err)
			}

			picked, ok := final.(ProcessListModel)
			if !ok || picked.Selected == nil {
				return nil
			}
			return c.printSummary(ctx, store, *picked.Selected)
		},
	}
}

// printSummary prints a quick analysis of the picked process.
func (c *CLI) printSummary(ctx context.Context, store *neo4j.Store, info neo4j.ProcessInfo) error {
	runner := c.newRunner(ctx, store, false)
	defer runner.Close()

	result, err := runner.Execute(ctx, c.pipelineOptions(info.ID))
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(info.Name))
	printKeyValue("Process ID", info.ID)
	printKeyValue("Paths", strconv.Itoa(len(result.Analysis.Paths)))
	printKeyValue("Bottlenecks", strconv.Itoa(len(result.Analysis.Bottlenecks)))
	if len(result.Analysis.CriticalPath) > 0 {
		printKeyValue("Critical path", strings.Join(result.Analysis.CriticalPath, " "+iconArrow+" "))
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.AnalysisHit)
	printNewline()
	printNextStep("Full analysis", "flowmap analyze "+info.ID)
	return nil
}

// =============================================================================
// ProcessListModel - Interactive process selection
// =============================================================================

// ProcessListModel is the bubbletea model for interactive process selection.
type ProcessListModel struct {
	Processes []neo4j.ProcessInfo
	Cursor    int
	Selected  *neo4j.ProcessInfo
	Height    int
	Offset    int
}

// NewProcessListModel creates a new process list model.
func NewProcessListModel(infos []neo4j.ProcessInfo) ProcessListModel {
	return ProcessListModel{
		Processes: infos,
		Height:    15,
	}
}

func (m ProcessListModel) Init() tea.Cmd {
	return nil
}

func (m ProcessListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Processes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			selected := m.Processes[m.Cursor]
			m.Selected = &selected
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ProcessListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Process"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Processes) {
		end = len(m.Processes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		info := m.Processes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, info.Name, info.ID, strconv.Itoa(info.Elements)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("", "Name", "ID", "Elements").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return StyleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Processes))))

	return b.String()
}
