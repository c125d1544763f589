package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/zvonler/chanspy/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chanspyCmd := cli.NewCommand()
	if err := chanspyCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}
