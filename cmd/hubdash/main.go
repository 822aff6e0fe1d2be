package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/hubdash/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override hubdash config path (optional)")
	prefsPath := flag.String("prefs", "", "override UI preferences path (optional)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (optional, defaults to refresh_interval_ms)")
	check := flag.Bool("check", false, "test the Maker API connection and exit")
	debug := flag.Bool("debug", false, "log request traces to the log file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Check:      *check,
		Debug:      *debug,
		Stdout:     os.Stdout,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "hubdash: %v\n", err)
		return 1
	}
	return 0
}
