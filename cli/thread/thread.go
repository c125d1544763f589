package thread

import (
	"os"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	threadCommand := &cobra.Command{
		Use:   "thread",
		Short: "Commands for working with threads",
		Example: "  # Prints the descriptor of a thread page\n" +
			"  " + os.Args[0] + " thread resolve https://boards.4chan.org/g/thread/12345",
	}

	threadCommand.AddCommand(initOpenCommand())
	threadCommand.AddCommand(initResolveCommand())

	return threadCommand
}
