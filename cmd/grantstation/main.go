package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/jderrod/GrantStationTool/cmd/grantstation/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands.ExecuteContext(ctx)
}
