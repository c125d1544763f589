package board

import (
	"fmt"
	"io"
	"os"

	"github.com/bit101/go-ansi"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zvonler/chanspy/configuration"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
)

var matchPattern string

func initListCommand() *cobra.Command {
	listCommand := &cobra.Command{
		Use:   "list <site> [--match REGEX]",
		Short: "Lists the known boards of a site",
		Args:  cobra.ExactArgs(1),
		RunE:  runListCommand,
	}

	listCommand.Flags().StringVar(&matchPattern, "match", "", "Only boards whose code or name matches this regular expression")

	return listCommand
}

func runListCommand(cmd *cobra.Command, args []string) error {
	bdb, err := configuration.OpenExistingDatabase()
	if err != nil {
		return err
	}
	defer bdb.Close()

	reg := descriptor.NewRegistry()
	pattern := matchPattern
	if pattern == "" {
		pattern = "."
	}
	boards, err := bdb.SearchBoards(cmd.Context(), reg, args[0], pattern)
	if err != nil {
		return err
	}

	printBoards(cmd.OutOrStdout(), boards, term.IsTerminal(int(os.Stdout.Fd())))
	return nil
}

func printBoards(w io.Writer, boards []model.ChanBoard, color bool) {
	codeWidth := 0
	for _, b := range boards {
		codeWidth = max(codeWidth, len(b.BoardCode()))
	}
	codeFmt := fmt.Sprintf("/%%-%ds/", codeWidth)

	for _, b := range boards {
		marker := " "
		if b.Active {
			marker = "*"
		}
		if !color {
			fmt.Fprintf(w, "%s "+codeFmt+" %s\n", marker, b.BoardCode(), b.BoardName())
			continue
		}
		ansi.Fprintf(w, ansi.Green, "%s ", marker)
		ansi.Fprintf(w, ansi.Yellow, codeFmt, b.BoardCode())
		ansi.Fprintf(w, ansi.Default, " %s\n", b.BoardName())
	}
}
