package thread

import (
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/zvonler/chanspy/configuration"
)

func initOpenCommand() *cobra.Command {
	openCommand := &cobra.Command{
		Use:   "open <thread_descriptor | thread_URL>",
		Short: "Opens a thread in a browser.",
		Args:  cobra.ExactArgs(1),
		RunE:  runOpenCommand,
	}
	return openCommand
}

func runOpenCommand(cmd *cobra.Command, args []string) error {
	env, err := configuration.OpenEnvironment(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer env.Close()

	s, td, err := lookupThread(env.Sites, env.Registry, args[0])
	if err != nil {
		return err
	}
	return browser.OpenURL(s.ThreadURL(td))
}
