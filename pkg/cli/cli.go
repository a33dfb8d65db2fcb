package cli

import (
	"context"

	"github.com/makola-community/makola/pkg/cli/config"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Run parses args and executes the matching makola subcommand
func Run(ctx context.Context, args []string, version string) error {
	if err := newCommand(version).Run(ctx, args); err != nil {
		logging.Default().Error("makola exited with error", "error", err)
		return err
	}
	return nil
}

func newCommand(version string) *cli.Command {
	var (
		loggerCfg   config.Logger
		closeLogger func()
	)

	return &cli.Command{
		Name:    "makola",
		Usage:   "Makola Community issue reporting and discussion service",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closer, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closeLogger = closer

			logging.Default().Info("makola starting",
				"version", version,
				"command", c.Args().First(),
				"logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closeLogger != nil {
				closeLogger()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdMigrate(),
			cmdValidate(),
		},
	}
}
