package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spf13/cobra"

	"github.com/deadlocklab/ragsim/pkg/graphio"
	"github.com/deadlocklab/ragsim/pkg/history"
	"github.com/deadlocklab/ragsim/pkg/rag"
	"github.com/deadlocklab/ragsim/pkg/rag/detect"
)

// editCommand creates the edit command: an interactive terminal editor for
// building graphs, running detection, and undoing/redoing mutations.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [graph.json]",
		Short: "Edit a graph interactively",
		Long: `Edit a graph interactively.

Starts a terminal editor on an empty graph, or on the given graph file.
Commands are typed at the prompt; type 'help' for the full list. Every
mutation is undoable, and 'save' writes the graph back to the file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := rag.New()
			path := ""
			if len(args) == 1 {
				path = args[0]
				loaded, err := graphio.ReadFile(path)
				switch {
				case err == nil:
					g = loaded
				case errors.Is(err, os.ErrNotExist):
					// Editing a new file: start empty, save creates it.
				default:
					return fmt.Errorf("load graph %s: %w", path, err)
				}
			}

			m := newEditorModel(g, path)
			final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("editor: %w", err)
			}
			if em, ok := final.(editorModel); ok && em.dirty {
				c.Logger.Warn("graph had unsaved changes")
			}
			return nil
		},
	}
}

// editorModel is the bubbletea model for the interactive graph editor.
type editorModel struct {
	graph  *rag.Graph
	hist   *history.History
	path   string
	input  string
	status string
	result *detect.Result
	dirty  bool
}

func newEditorModel(g *rag.Graph, path string) editorModel {
	return editorModel{
		graph:  g,
		hist:   history.New(0),
		path:   path,
		status: "type 'help' for commands",
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		line := strings.TrimSpace(m.input)
		m.input = ""
		if line == "" {
			return m, nil
		}
		if line == "quit" || line == "q" {
			return m, tea.Quit
		}
		m = m.execute(line)
		return m, nil
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	default:
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			m.input += key.String()
		}
		return m, nil
	}
}

// execute parses and runs one editor command line.
func (m editorModel) execute(line string) editorModel {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "?":
		m.status = "p [id] | r [id] [total] | alloc <res> <proc> [n] | req <proc> <res> [n] | " +
			"rm <id> | rmalloc <res> <proc> | rmreq <proc> <res> | detect | undo | redo | save [file] | quit"
		return m

	case "detect":
		res, err := detect.Detect(m.graph.Snapshot())
		if err != nil {
			return m.fail(err)
		}
		m.result = res
		if res.HasDeadlock() {
			m.status = fmt.Sprintf("deadlock: %s", strings.Join(res.Deadlocked, ", "))
		} else {
			m.status = "no deadlock: system is in a safe state"
		}
		return m

	case "undo":
		snap, ok := m.hist.Undo(m.graph.Snapshot())
		if !ok {
			m.status = "nothing to undo"
			return m
		}
		m.graph.Restore(snap)
		return m.mutated("undone")

	case "redo":
		snap, ok := m.hist.Redo(m.graph.Snapshot())
		if !ok {
			m.status = "nothing to redo"
			return m
		}
		m.graph.Restore(snap)
		return m.mutated("redone")

	case "save":
		path := m.path
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return m.fail(fmt.Errorf("no file name: use save <file>"))
		}
		if err := graphio.WriteFile(m.graph.Snapshot(), path); err != nil {
			return m.fail(err)
		}
		m.path = path
		m.dirty = false
		m.status = "saved " + path
		return m
	}

	// Everything below mutates the graph; checkpoint first so a successful
	// mutation is undoable.
	before := m.graph.Snapshot()
	msg, err := m.mutate(cmd, args)
	if err != nil {
		return m.fail(err)
	}
	m.hist.Push(before)
	return m.mutated(msg)
}

// mutate dispatches a mutating command against the graph.
func (m editorModel) mutate(cmd string, args []string) (string, error) {
	switch cmd {
	case "p", "process":
		id := m.graph.NextProcessID()
		if len(args) > 0 {
			id = args[0]
		}
		return "added process " + id, m.graph.AddProcess(id)

	case "r", "resource":
		id := m.graph.NextResourceID()
		total := 1
		if len(args) > 0 {
			id = args[0]
		}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return "", fmt.Errorf("bad instance total %q", args[1])
			}
			total = n
		}
		return fmt.Sprintf("added resource %s (%d instances)", id, total), m.graph.AddResource(id, total)

	case "alloc":
		res, proc, count, err := edgeArgs(args, "alloc <resource> <process> [count]")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("allocated %d of %s to %s", count, res, proc), m.graph.AddAllocation(res, proc, count)

	case "req":
		proc, res, count, err := edgeArgs(args, "req <process> <resource> [count]")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s requests %d of %s", proc, count, res), m.graph.AddRequest(proc, res, count)

	case "rm":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: rm <id>")
		}
		id := args[0]
		if m.graph.HasProcess(id) {
			return "removed process " + id, m.graph.RemoveProcess(id)
		}
		return "removed resource " + id, m.graph.RemoveResource(id)

	case "rmalloc":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: rmalloc <resource> <process>")
		}
		return fmt.Sprintf("removed allocation %s→%s", args[0], args[1]), m.graph.RemoveAllocation(args[0], args[1])

	case "rmreq":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: rmreq <process> <resource>")
		}
		return fmt.Sprintf("removed request %s→%s", args[0], args[1]), m.graph.RemoveRequest(args[0], args[1])

	default:
		return "", fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
}

// edgeArgs parses "<from> <to> [count]" argument lists.
func edgeArgs(args []string, usage string) (string, string, int, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", "", 0, fmt.Errorf("usage: %s", usage)
	}
	count := 1
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return "", "", 0, fmt.Errorf("bad count %q", args[2])
		}
		count = n
	}
	return args[0], args[1], count, nil
}

// mutated marks the model dirty and stale-detects after a graph change.
func (m editorModel) mutated(status string) editorModel {
	m.status = status
	m.dirty = true
	m.result = nil
	return m
}

func (m editorModel) fail(err error) editorModel {
	m.status = styleError.Render(err.Error())
	return m
}

func (m editorModel) View() string {
	var b strings.Builder

	title := "ragsim editor"
	if m.path != "" {
		title += " — " + m.path
	}
	if m.dirty {
		title += " *"
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("enter commands below  ⏎ run  esc quit"))
	b.WriteString("\n\n")

	snap := m.graph.Snapshot()
	deadlocked := make(map[string]bool)
	implicated := make(map[string]bool)
	if m.result != nil {
		for _, p := range m.result.Deadlocked {
			deadlocked[p] = true
		}
		for _, r := range m.result.Implicated {
			implicated[r] = true
		}
	}

	b.WriteString(styleHeading.Render("Processes"))
	b.WriteString("\n")
	if snap.ProcessCount() == 0 {
		b.WriteString(styleDim.Render("  (none)") + "\n")
	}
	for _, p := range snap.ProcessIDs() {
		line := "  " + p
		if deadlocked[p] {
			line = "  " + styleDeadlock.Render(p+" ✗ deadlocked")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styleHeading.Render("Resources"))
	b.WriteString("\n")
	if snap.ResourceCount() == 0 {
		b.WriteString(styleDim.Render("  (none)") + "\n")
	}
	for _, r := range snap.ResourceIDs() {
		total, _ := snap.TotalInstances(r)
		avail, _ := m.graph.Available(r)
		line := fmt.Sprintf("  %s  %d total, %d available", r, total, avail)
		if implicated[r] {
			line += "  " + styleWarn.Render("implicated")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styleHeading.Render("Edges"))
	b.WriteString("\n")
	for _, e := range snap.Allocations() {
		fmt.Fprintf(&b, "  %s → %s  (%d allocated)\n", e.Resource, e.Process, e.Count)
	}
	for _, e := range snap.Requests() {
		fmt.Fprintf(&b, "  %s → %s  %s\n", e.Process, e.Resource, styleWarn.Render(fmt.Sprintf("(%d requested)", e.Count)))
	}
	if snap.ProcessCount()+snap.ResourceCount() > 0 && len(snap.Allocations())+len(snap.Requests()) == 0 {
		b.WriteString(styleDim.Render("  (none)") + "\n")
	}

	if m.result != nil && !m.result.HasDeadlock() {
		b.WriteString("\n" + styleSafe.Render("✓ safe state") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n\n")
	b.WriteString(stylePrompt.Render("> ") + m.input + "▌")
	return b.String()
}
