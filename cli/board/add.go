package board

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zvonler/chanspy/configuration"
)

func initAddCommand() *cobra.Command {
	addCommand := &cobra.Command{
		Use:   "add <site> <code> <name...>",
		Short: "Adds a board to a site unless it is already known",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runAddCommand,
	}
	return addCommand
}

func runAddCommand(cmd *cobra.Command, args []string) error {
	env, err := configuration.OpenEnvironment(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer env.Close()

	s, err := env.Sites.ByName(args[0])
	if err != nil {
		return err
	}

	board, err := s.CreateBoard(cmd.Context(), strings.Join(args[2:], " "), args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s /%s/ %s\n", board.SiteName(), board.BoardCode(), board.BoardName())
	return nil
}
