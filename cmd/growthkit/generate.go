package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/nexgen-studio/growthkit/batch"
	"github.com/nexgen-studio/growthkit/composer"
	"github.com/nexgen-studio/growthkit/config"
	"github.com/nexgen-studio/growthkit/layout"
	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/plan"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "render one growth plan document per record plus the manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Sources: cli.EnvVars("GROWTHKIT_OUTPUT_DIR"),
				Usage:   "output directory (defaults to output.dir)",
			},
			&cli.StringFlag{
				Name:  "records",
				Usage: "YAML or JavaScript (.js) record source; built-in records when empty",
			},
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "also upload every output to the configured S3 bucket",
			},
			&cli.BoolFlag{
				Name:  "page-breaks",
				Usage: "continue overflowing content on a new page",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, sync, err := setup(cmd)
			if err != nil {
				return err
			}
			defer sync()

			if out := cmd.String("out"); out != "" {
				cfg.Output.Dir = out
			}
			if cmd.Bool("page-breaks") {
				cfg.Output.PageBreaks = true
			}

			records, err := loadRecords(ctx, cmd.String("records"), logger)
			if err != nil {
				return err
			}
			c, err := newComposer(cfg.Output, logger)
			if err != nil {
				return err
			}
			sink, err := newSink(ctx, cfg, cmd.Bool("publish"))
			if err != nil {
				return err
			}

			runner := &batch.Runner{Composer: c, Sink: sink, Logger: logger}
			report, err := runner.Run(ctx, records)
			if err != nil {
				return err
			}
			if !report.OK() {
				return goerr.New("some records failed", goerr.V("failed", len(report.Failures)), goerr.V("written", len(report.Entries)))
			}
			return nil
		},
	}
}

func loadRecords(ctx context.Context, path string, logger observability.Logger) ([]plan.Record, error) {
	switch {
	case path == "":
		return plan.Builtin()
	case strings.EqualFold(filepath.Ext(path), ".js"), strings.EqualFold(filepath.Ext(path), ".mjs"):
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read record script", goerr.V("path", path))
		}
		return plan.LoadScript(ctx, string(src), logger)
	default:
		return plan.LoadFile(path)
	}
}

func newComposer(out config.OutputConfig, logger observability.Logger) (*composer.Composer, error) {
	opts := []composer.Option{
		composer.WithSiteURL(out.SiteURL),
		composer.WithBookingURL(out.BookingURL),
		composer.WithBrand(out.Brand),
		composer.WithPageBreaks(out.PageBreaks),
		composer.WithLogger(logger),
	}
	if out.MetricsFont {
		m, err := layout.NewFontMeasurer()
		if err != nil {
			return nil, err
		}
		opts = append(opts, composer.WithMeasurer(m))
	}
	return composer.New(opts...), nil
}

func newSink(ctx context.Context, cfg *config.Config, publish bool) (batch.Sink, error) {
	local := batch.DirSink{Dir: cfg.Output.Dir}
	if !publish {
		return local, nil
	}
	if cfg.Publish.Bucket == "" {
		return nil, goerr.New("--publish needs publish.bucket")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Publish.Region))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config")
	}
	return batch.MultiSink{local, batch.NewS3Sink(awsCfg, cfg.Publish.Bucket, cfg.Publish.Prefix)}, nil
}
