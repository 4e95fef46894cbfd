package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/zahias/pillars/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx, version)
	stop()
	if err != nil {
		color.Red("错误: %v", err)
		os.Exit(1)
	}
}
