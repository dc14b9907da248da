package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rmnotify/internal/app"
	"rmnotify/internal/config"
	"rmnotify/internal/model"
)

var ingestCmd = &cobra.Command{
	Use:     "ingest <file|->",
	Short:   "Classify and store one push payload",
	GroupID: "store",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		return withLocal(func(l *app.Local, _ *config.Config) error {
			if err := requireStorage(l); err != nil {
				return err
			}
			res, err := l.Notify.Handle(context.Background(), raw)
			if err != nil {
				return fmt.Errorf("malformed payload: %w", err)
			}
			if jsonOutput {
				return printJSON(res)
			}
			switch {
			case res.Kind != "":
				state := "not stored"
				if res.Stored {
					state = "stored"
				}
				fmt.Printf("%s (%s): %s\n", res.Kind, state, res.Record.Body)
			case res.ParamsUpdated > 0:
				fmt.Printf("updated %d cached param(s)\n", res.ParamsUpdated)
			default:
				fmt.Println("ignored: not a recognized event")
			}
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show stored notifications, newest first",
	GroupID: "store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLocal(func(l *app.Local, _ *config.Config) error {
			recs, ok := l.Notify.Delivered(context.Background())
			if jsonOutput {
				return printJSON(recs)
			}
			if !ok {
				fmt.Println("No notifications.")
				return nil
			}
			printRecords(os.Stdout, recs)
			return nil
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:     "cleanup",
	Short:   "Delete all stored notifications",
	GroupID: "store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLocal(func(l *app.Local, _ *config.Config) error {
			l.Notify.Cleanup(context.Background())
			fmt.Println("Notifications cleared.")
			return nil
		})
	},
}

var nodesCmd = &cobra.Command{
	Use:     "nodes",
	Short:   "Manage the cached node list",
	GroupID: "store",
}

var nodesImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the node cache with a JSON node array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		var nodes []model.Node
		if err := json.Unmarshal(raw, &nodes); err != nil {
			return fmt.Errorf("invalid node list: %w", err)
		}
		if len(nodes) == 0 {
			return model.ErrEmptyNodeList
		}
		return withLocal(func(l *app.Local, _ *config.Config) error {
			if err := requireStorage(l); err != nil {
				return err
			}
			l.Store.Nodes.Save(context.Background(), nodes)
			fmt.Printf("Imported %d node(s).\n", len(nodes))
			return nil
		})
	},
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show cached nodes and their devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLocal(func(l *app.Local, _ *config.Config) error {
			nodes, ok := l.Store.Nodes.Fetch(context.Background())
			if jsonOutput {
				return printJSON(nodes)
			}
			if !ok {
				fmt.Println("No cached nodes.")
				return nil
			}
			printNodes(os.Stdout, nodes)
			return nil
		})
	},
}

func init() {
	nodesCmd.AddCommand(nodesImportCmd)
	nodesCmd.AddCommand(nodesListCmd)
}

func readInput(arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(arg)
}

// printNodes lists one row per device. Types outside the known set are
// shown in parentheses.
func printNodes(out io.Writer, nodes []model.Node) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tDEVICE\tTYPE")
	for _, n := range nodes {
		for _, d := range n.Devices {
			typ := d.Type
			if _, err := model.ParseDeviceType(d.Type); err != nil {
				typ = "(" + d.Type + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, d.DisplayName(), typ)
		}
	}
	_ = w.Flush()
}

func printRecords(out io.Writer, recs []model.NotificationRecord) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTITLE\tBODY")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Time().Local().Format(time.DateTime), r.Title, r.Body)
	}
	_ = w.Flush()
}
