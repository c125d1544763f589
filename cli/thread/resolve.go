package thread

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bit101/go-ansi"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zvonler/chanspy/configuration"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/site"
)

func initResolveCommand() *cobra.Command {
	resolveCommand := &cobra.Command{
		Use:   "resolve <thread_URL>",
		Short: "Prints the descriptor of a thread page",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolveCommand,
	}
	return resolveCommand
}

func runResolveCommand(cmd *cobra.Command, args []string) error {
	env, err := configuration.OpenEnvironment(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer env.Close()

	s, td, err := env.Sites.ResolveThread(args[0])
	if err != nil {
		return err
	}
	printThread(cmd.OutOrStdout(), td, s.ThreadURL(td), term.IsTerminal(int(os.Stdout.Fd())))
	return nil
}

// lookupThread accepts a serialized thread descriptor or a thread page URL.
func lookupThread(sites *site.Manager, reg *descriptor.Registry, arg string) (site.Site, *descriptor.ThreadDescriptor, error) {
	if strings.Contains(arg, "://") {
		return sites.ResolveThread(arg)
	}

	d, err := reg.ParseDescriptor(arg)
	if err != nil {
		return nil, nil, err
	}
	td, ok := d.(*descriptor.ThreadDescriptor)
	if !ok {
		return nil, nil, fmt.Errorf("%v is not a thread", d)
	}
	s, err := sites.ByName(td.SiteName())
	if err != nil {
		return nil, nil, err
	}
	return s, td, nil
}

func printThread(w io.Writer, td *descriptor.ThreadDescriptor, threadURL string, color bool) {
	if !color {
		fmt.Fprintf(w, "%s %s\n", td.Serialize(), threadURL)
		return
	}
	ansi.Fprintf(w, ansi.Yellow, "%s", td.Serialize())
	ansi.Fprintf(w, ansi.Default, " ")
	ansi.Fprintf(w, ansi.Cyan, "%s\n", threadURL)
}
