package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/urfave/cli/v3"
)

var log = logger.Get("Bootstrap")

// main() is the entry point to the program. The root context is cancelled
// on interrupt/SIGTERM, which stops any running server or in-flight
// tool invocation.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to a TOML/YAML config file (the environment overrides it)",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "path to an env file loaded before reading configuration",
			Value: ".env",
		},
	}

	app := &cli.Command{
		Name:  "reel",
		Usage: "search for media and retrieve it as audio or video",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP gateway",
				Flags:  configFlags,
				Action: serveAction,
			},
			{
				Name:      "search",
				Usage:     "search for media matching a query",
				ArgsUsage: "<query...>",
				Flags:     configFlags,
				Action:    searchAction,
			},
			{
				Name:  "fetch",
				Usage: "retrieve a single item and write it to disk",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "identifier of the item to fetch",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "profile",
						Usage: "audio or video",
						Value: "audio",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "title used to name the output file",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "directory the file is written to",
						Value: ".",
					},
				}, configFlags...),
				Action: fetchAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Emit(logger.FATAL, "%v\n", err)
		os.Exit(1)
	}
}
