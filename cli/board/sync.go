package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bit101/go-ansi"
	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/zvonler/chanspy/configuration"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/result"
	"github.com/zvonler/chanspy/site"
)

// retryInterval is the first backoff delay between attempts.
var retryInterval = time.Second

var (
	syncAll     bool
	retries     int
	parallel    int
	metricsFile string
)

func initSyncCommand() *cobra.Command {
	syncCommand := &cobra.Command{
		Use:   "sync [--all] [site...]",
		Short: "Fetches board lists and merges them into the database",
		RunE:  runSyncCommand,
	}

	syncCommand.Flags().BoolVar(&syncAll, "all", false, "Sync every enabled site")
	syncCommand.Flags().IntVar(&retries, "retries", 2, "Retries per site after a failed fetch")
	syncCommand.Flags().IntVar(&parallel, "parallel", 4, "Sites synced at once")
	syncCommand.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")

	return syncCommand
}

type syncReport struct {
	site    string
	outcome result.Outcome[model.SiteBoards]
	err     error
}

func runSyncCommand(cmd *cobra.Command, args []string) error {
	if !syncAll && len(args) == 0 {
		return errors.New("name at least one site or pass --all")
	}

	ctx := cmd.Context()
	env, err := configuration.OpenEnvironment(ctx, true)
	if err != nil {
		return err
	}
	defer env.Close()

	var sites []site.Site
	if syncAll {
		sites = env.Sites.Enabled()
	} else {
		for _, name := range args {
			s, err := env.Sites.ByName(name)
			if err != nil {
				return err
			}
			sites = append(sites, s)
		}
	}

	reports := syncSites(ctx, sites, retries, parallel, env.Logger)

	isTty := term.IsTerminal(int(os.Stdout.Fd()))
	failed := 0
	for _, r := range reports {
		printReport(cmd.OutOrStdout(), r, isTty)
		if r.err != nil || !r.outcome.IsSuccess() {
			failed++
		}
	}

	if metricsFile != "" {
		if err := env.Metrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sites failed to sync", failed, len(reports))
	}
	return nil
}

// syncSites loads the boards of every site, at most parallel at a time, and
// returns one report per site in the order given.
func syncSites(ctx context.Context, sites []site.Site, retries, parallel int, logger *zap.Logger) []syncReport {
	reports := make([]syncReport, len(sites))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, s := range sites {
		g.Go(func() error {
			outcome, err := loadWithRetry(ctx, s, retries, logger)
			reports[i] = syncReport{site: s.Name(), outcome: outcome, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// loadWithRetry retries error outcomes with exponential backoff. Client
// errors other than 429, merge failures and cancellation are not retried.
func loadWithRetry(ctx context.Context, s site.Site, retries int, logger *zap.Logger) (result.Outcome[model.SiteBoards], error) {
	var last result.Outcome[model.SiteBoards]

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInterval

	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			outcome, err := s.LoadBoards(ctx)
			if err != nil {
				return struct{}{}, backoff.Permanent(err)
			}
			last = outcome

			if err := outcome.Err(); err != nil {
				if !retryable(outcome) {
					return struct{}{}, backoff.Permanent(err)
				}
				logger.Warn("Retrying board load", zap.String("site", s.Name()), zap.Error(err))
				return struct{}{}, err
			}
			return struct{}{}, nil
		},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(max(retries, 0)+1)),
	)

	var fetchErr *result.FetchError
	if err != nil && !errors.As(err, &fetchErr) {
		return result.Outcome[model.SiteBoards]{}, err
	}
	return last, nil
}

func retryable(o result.Outcome[model.SiteBoards]) bool {
	switch o.Kind() {
	case result.KindServerError:
		code := o.StatusCode()
		return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
	case result.KindTransportOrUnknownError:
		return true
	}
	return false
}

func printReport(w io.Writer, r syncReport, color bool) {
	var status, detail string
	switch {
	case r.err != nil:
		status, detail = "failed", r.err.Error()
	case r.outcome.IsSuccess():
		sb, _ := r.outcome.Value()
		status, detail = "ok", fmt.Sprintf("%d boards", len(sb.Boards))
	default:
		status, detail = r.outcome.Kind().String(), r.outcome.Err().Error()
	}

	if !color {
		fmt.Fprintf(w, "%s: %s (%s)\n", r.site, status, detail)
		return
	}
	statusColor := ansi.Red
	if status == "ok" {
		statusColor = ansi.Green
	}
	ansi.Fprintf(w, ansi.Yellow, "%s", r.site)
	ansi.Fprintf(w, ansi.Default, ": ")
	ansi.Fprintf(w, statusColor, "%s", status)
	ansi.Fprintf(w, ansi.Default, " (%s)\n", detail)
}
