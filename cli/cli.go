package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zvonler/chanspy/cli/board"
	"github.com/zvonler/chanspy/cli/site"
	"github.com/zvonler/chanspy/cli/thread"
)

var (
	dbPath    string
	sitesPath string
	logLevel  string
)

func NewCommand() *cobra.Command {
	chanspyCli := &cobra.Command{
		Use:          "chanspy",
		Short:        "Chanspy CLI",
		Long:         "Chanspy Command Line Interface",
		Example:      fmt.Sprintf("  %s <command> [flags...]", os.Args[0]),
		SilenceUsage: true,
	}

	chanspyCli.PersistentFlags().StringVar(&dbPath, "database", "chanspy.db", "Database filename")
	chanspyCli.PersistentFlags().StringVar(&sitesPath, "sites", "sites.yaml", "Site definitions file")
	chanspyCli.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	viper.BindPFlag("database", chanspyCli.PersistentFlags().Lookup("database"))
	viper.BindPFlag("sites", chanspyCli.PersistentFlags().Lookup("sites"))
	viper.BindPFlag("log-level", chanspyCli.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("CHANSPY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	chanspyCli.AddCommand(board.NewCommand())
	chanspyCli.AddCommand(site.NewCommand())
	chanspyCli.AddCommand(thread.NewCommand())

	return chanspyCli
}
