package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deadlocklab/ragsim/pkg/api"
	"github.com/deadlocklab/ragsim/pkg/graphio"
	"github.com/deadlocklab/ragsim/pkg/rag/detect"
)

// checkCommand creates the check command for running deadlock detection
// on a graph file.
func (c *CLI) checkCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check <graph.json>",
		Short: "Run deadlock detection on a graph file",
		Long: `Run deadlock detection on a graph file.

The graph file uses the canonical record format: processes, resources with
instance totals, allocation edges, and request edges. Detection reduces the
graph by repeatedly retiring satisfiable processes; whatever remains is
deadlocked.

Exits with status 2 when a deadlock is found, so the command can be used
in scripts and test harnesses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print machine-readable JSON output")
	return cmd
}

func (c *CLI) runCheck(path string, asJSON bool) error {
	g, err := graphio.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", path, err)
	}

	snap := g.Snapshot()
	c.Logger.Debug("loaded graph", "processes", snap.ProcessCount(), "resources", snap.ResourceCount())

	res, err := detect.Detect(snap)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	if asJSON {
		suggestions := res.Suggestions()
		if suggestions == nil {
			suggestions = []detect.Suggestion{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.DetectResponse{
			Deadlock:    res.HasDeadlock(),
			Deadlocked:  res.Deadlocked,
			Implicated:  res.Implicated,
			Suggestions: suggestions,
			Guide:       res.Guide(),
		}); err != nil {
			return err
		}
	} else if res.HasDeadlock() {
		fmt.Printf("Deadlock detected: %s\n", strings.Join(res.Deadlocked, ", "))
		fmt.Printf("Implicated resources: %s\n\n", strings.Join(res.Implicated, ", "))
		fmt.Println(res.Guide())
	} else {
		fmt.Println("No deadlock detected. The system is in a safe state.")
	}

	if res.HasDeadlock() {
		os.Exit(2)
	}
	return nil
}
