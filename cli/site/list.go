package site

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zvonler/chanspy/configuration"
)

func initListCommand() *cobra.Command {
	listCommand := &cobra.Command{
		Use:   "list",
		Short: "Lists configured sites",
		Args:  cobra.NoArgs,
		RunE:  runListCommand,
	}
	return listCommand
}

func runListCommand(cmd *cobra.Command, args []string) error {
	cfgs, err := configuration.LoadConfiguredSites()
	if err != nil {
		return err
	}
	printSites(cmd.OutOrStdout(), cfgs)
	return nil
}

func printSites(w io.Writer, cfgs []configuration.SiteConfig) {
	nameWidth := 0
	for _, c := range cfgs {
		nameWidth = max(nameWidth, len(c.Name))
	}

	fmtString := fmt.Sprintf("%%-%ds %%-8s %%-8s %%-8s %%s\n", nameWidth)
	for _, c := range cfgs {
		enabled := "enabled"
		if !c.IsEnabled() {
			enabled = "disabled"
		}
		boardsType := c.BoardsType
		if boardsType == "" {
			boardsType = "dynamic"
		}
		fmt.Fprintf(w, fmtString, c.Name, c.Kind, enabled, boardsType, c.URL)
	}
}
