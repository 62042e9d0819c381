package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/h2tags/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "h2tags",
		Usage: "Halo 2 map tag inspector and patcher",
		Flags: loggingFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg = LoadConfig()
			applyLoggingConfig(cmd, cfg)
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return ctx, err
			}
			if debug {
				level = slog.LevelDebug
			}
			log, err := logger.Build(logFormat, level, os.Stderr)
			if err != nil {
				return ctx, err
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(),
			dumpCmd(),
			refsCmd(),
			layoutCmd(),
			extractCmd(),
			patchCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
