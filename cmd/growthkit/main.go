package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/nexgen-studio/growthkit/config"
	"github.com/nexgen-studio/growthkit/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "growthkit: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "growthkit",
		Usage: "growth plan documents and the contact endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "growthkit.yaml",
				Sources: cli.EnvVars("GROWTHKIT_CONFIG"),
				Usage:   "YAML config file (ignored when missing)",
			},
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Sources: cli.EnvVars("GROWTHKIT_ENV_FILE"),
				Usage:   "dotenv file (ignored when missing)",
			},
		},
		Commands: []*cli.Command{
			generateCommand(),
			verifyCommand(),
			serveCommand(),
		},
	}
}

// setup loads the configuration and builds the logger. The returned func
// flushes the logger.
func setup(cmd *cli.Command) (*config.Config, observability.Logger, func(), error) {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return nil, nil, nil, err
	}
	logger, sync, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, sync, nil
}
