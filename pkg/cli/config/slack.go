package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model/config"
	"github.com/makola-community/makola/pkg/service/slack"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Slack holds the Slack notification flags
type Slack struct {
	botToken string
	baseURL  string
}

// Flags returns CLI flags for Slack
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for department notifications)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("MAKOLA_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Public URL of the web application, used for links in notifications",
			Category:    "Slack",
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("MAKOLA_BASE_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("base-url", x.baseURL),
	)
}

// IsConfigured reports whether a bot token is set
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// NewService creates the Slack API client, or nil when no token is set
func (x *Slack) NewService() (slack.Service, error) {
	if x.botToken == "" {
		return nil, nil
	}
	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack service")
	}
	return svc, nil
}

// Configure creates a notifier posting to department channels, or nil when
// Slack is not configured
func (x *Slack) Configure(appConfig *config.MunicipalityConfig) (*slack.Notifier, error) {
	svc, err := x.NewService()
	if err != nil {
		return nil, err
	}
	if svc == nil {
		logging.Default().Info("Slack notifications disabled")
		return nil, nil
	}

	var opts []slack.NotifierOption
	if x.baseURL != "" {
		opts = append(opts, slack.WithBaseURL(x.baseURL))
	}
	logging.Default().Info("Slack notifications enabled", "base_url", x.baseURL)
	return slack.NewNotifier(svc, appConfig, opts...), nil
}
