package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/cli/config"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/service/slack"
	"github.com/makola-community/makola/pkg/usecase"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

var (
	errUnresolvedChannels = goerr.New("Slack channels could not be resolved")
	errInconsistentDB     = goerr.New("stored issues do not match the configuration")
)

func cmdValidate() *cli.Command {
	var (
		configPath string
		checkDB    bool
		slackCfg   config.Slack
		repoCfg    config.Repository
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the municipality configuration file (TOML)",
			Required:    true,
			Sources:     cli.EnvVars("MAKOLA_CONFIG"),
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "check-db",
			Usage:       "Also check stored issues against the configured categories and departments",
			Sources:     cli.EnvVars("MAKOLA_VALIDATE_CHECK_DB"),
			Destination: &checkDB,
		},
	}
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the municipality configuration and optionally check Slack channels and stored issues",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}

			appCfg, err := config.LoadAppConfiguration(configPath)
			if err != nil {
				color.New(color.FgRed, color.Bold).Fprintf(w, "✗ %s is invalid\n", configPath)
				return goerr.Wrap(err, "configuration validation failed")
			}

			var channelNames map[string]string
			svc, err := slackCfg.NewService()
			if err != nil {
				return err
			}
			if svc != nil {
				channelNames, err = resolveChannels(ctx, svc, appCfg)
				if err != nil {
					return err
				}
			} else {
				logging.Default().Info("No Slack bot token given, skipping channel check")
			}

			unresolved := printSummary(w, configPath, appCfg, channelNames)
			if unresolved > 0 {
				return goerr.Wrap(errUnresolvedChannels, "channel check failed", goerr.V("count", unresolved))
			}

			if !checkDB {
				return nil
			}
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(context.Background()); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()
			return validateDB(ctx, w, repo, appCfg)
		},
	}
}

// resolveChannels looks up the names of every configured department channel
func resolveChannels(ctx context.Context, svc slack.Service, appCfg *config.AppConfig) (map[string]string, error) {
	var ids []string
	for _, dept := range appCfg.Departments {
		if dept.SlackChannel != "" {
			ids = append(ids, dept.SlackChannel)
		}
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	names, err := svc.GetChannelNames(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve Slack channels")
	}
	return names, nil
}

// printSummary writes the validated configuration and returns how many
// department channels could not be resolved. A nil channelNames skips the
// channel check.
func printSummary(w io.Writer, path string, appCfg *config.AppConfig, channelNames map[string]string) int {
	ok := color.New(color.FgGreen, color.Bold)
	ng := color.New(color.FgRed, color.Bold)
	heading := color.New(color.Bold)
	dim := color.New(color.Faint)

	ok.Fprintf(w, "✓ %s is valid\n", path)

	heading.Fprintf(w, "\nCategories (%d)\n", len(appCfg.Categories))
	categories := append([]config.Category(nil), appCfg.Categories...)
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	for _, cat := range categories {
		fmt.Fprintf(w, "  %-24s %s\n", cat.ID, cat.Name)
	}
	if len(categories) == 0 {
		dim.Fprintln(w, "  (none: any category is accepted)")
	}

	heading.Fprintf(w, "\nDepartments (%d)\n", len(appCfg.Departments))
	unresolved := 0
	for _, dept := range appCfg.Departments {
		fmt.Fprintf(w, "  %-24s %s", dept.ID, dept.Name)
		switch {
		case dept.SlackChannel == "":
			dim.Fprint(w, "  no channel")
		case channelNames == nil:
			fmt.Fprintf(w, "  %s", dept.SlackChannel)
		case channelNames[dept.SlackChannel] != "":
			ok.Fprintf(w, "  #%s", channelNames[dept.SlackChannel])
		default:
			ng.Fprintf(w, "  %s (not found)", dept.SlackChannel)
			unresolved++
		}
		fmt.Fprintln(w)
	}
	if len(appCfg.Departments) == 0 {
		dim.Fprintln(w, "  (none: any department is accepted)")
	}

	return unresolved
}

// validateDB prints stored values the configuration does not accept and
// fails when there are any
func validateDB(ctx context.Context, w io.Writer, repo interfaces.Repository, appCfg *config.AppConfig) error {
	uc := usecase.New(repo, usecase.WithAppConfig(appCfg.ToMunicipalityConfig()))
	result, err := uc.ValidateDB(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to validate stored issues")
	}

	color.New(color.Bold).Fprintf(w, "\nStored issues (%d)\n", result.Checked)
	if !result.HasIssues() {
		color.New(color.FgGreen, color.Bold).Fprintln(w, "  ✓ consistent with the configuration")
		return nil
	}

	ng := color.New(color.FgRed, color.Bold)
	for _, v := range result.Issues {
		ng.Fprintf(w, "  ✗ %s", v.Message)
		fmt.Fprintf(w, " (%d issue(s), e.g. %v)\n", v.Count, v.Issues)
	}
	return goerr.Wrap(errInconsistentDB, "database check failed", goerr.V("count", len(result.Issues)))
}
