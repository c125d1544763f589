package board

import (
	"os"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	boardCommand := &cobra.Command{
		Use:   "board",
		Short: "Commands for working with boards",
		Example: "  # Refreshes the board lists of every enabled site\n" +
			"  " + os.Args[0] + " board sync --all",
	}

	boardCommand.AddCommand(initAddCommand())
	boardCommand.AddCommand(initListCommand())
	boardCommand.AddCommand(initSyncCommand())

	return boardCommand
}
