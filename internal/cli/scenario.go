package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deadlocklab/ragsim/pkg/graphio"
	"github.com/deadlocklab/ragsim/pkg/store"
)

// scenarioCommand creates the scenario command group for managing the
// saved-graph library.
func (c *CLI) scenarioCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Manage the scenario library",
		Long: `Manage the scenario library.

Scenarios are saved graphs identified by ID, stored in the backend selected
by the config file (file by default).`,
	}
	cmd.AddCommand(c.scenarioListCommand())
	cmd.AddCommand(c.scenarioSaveCommand())
	cmd.AddCommand(c.scenarioExportCommand())
	cmd.AddCommand(c.scenarioDeleteCommand())
	return cmd
}

func (c *CLI) scenarioListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openConfiguredStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			scs, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(scs) == 0 {
				fmt.Println("no scenarios saved")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPROCESSES\tRESOURCES\tUPDATED")
			for _, sc := range scs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					sc.ID, sc.Name, len(sc.Record.Processes), len(sc.Record.Resources),
					sc.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func (c *CLI) scenarioSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <graph.json>",
		Short: "Save a graph file as a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graphio.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}

			st, err := c.openConfiguredStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			sc := store.Scenario{Name: name, Record: graphio.FromGraph(g)}
			if err := st.Put(cmd.Context(), &sc); err != nil {
				return err
			}
			c.Logger.Info("saved scenario", "id", sc.ID, "name", sc.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "scenario name (default: file name)")
	return cmd
}

func (c *CLI) scenarioExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <graph.json>",
		Short: "Export a scenario back to a graph file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openConfiguredStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			sc, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			g, err := graphio.ToGraph(sc.Record)
			if err != nil {
				return err
			}
			if err := graphio.WriteFile(g.Snapshot(), args[1]); err != nil {
				return err
			}
			c.Logger.Info("exported scenario", "id", sc.ID, "file", args[1])
			return nil
		},
	}
}

func (c *CLI) scenarioDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openConfiguredStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.Logger.Info("deleted scenario", "id", args[0])
			return nil
		},
	}
}

// openConfiguredStore loads the config and opens the selected store backend.
func (c *CLI) openConfiguredStore(cmd *cobra.Command) (store.Store, error) {
	cfg, err := loadConfig(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	return c.openStore(cmd.Context(), cfg.Store)
}
