// Command rmnotify runs the RainMaker notification agent and inspects its
// local store.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	ephemeral  bool
	jsonOutput bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "rmnotify <command>",
	Short:         "RainMaker notification agent",
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config file (yaml or json)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep all data in memory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for one-shot commands")

	rootCmd.AddGroup(
		&cobra.Group{ID: "agent", Title: "Agent:"},
		&cobra.Group{ID: "store", Title: "Local store:"},
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "charts", Title: "Charts:"},
	)
	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(nodesCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	rootCmd.AddCommand(axisCmd)
}

func defaultConfigPath() string {
	if s := os.Getenv("RMNOTIFY_CONFIG"); s != "" {
		return s
	}
	return "./rmnotify.yaml"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
