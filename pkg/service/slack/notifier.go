package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/config"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// Notifier posts issue updates to the Slack channel of the assigned department
type Notifier struct {
	svc       Service
	appConfig *config.MunicipalityConfig
	baseURL   string
}

var _ interfaces.Notifier = &Notifier{}

// NotifierOption is a functional option for Notifier
type NotifierOption func(*Notifier)

// WithBaseURL adds a link to the issue page in every message
func WithBaseURL(baseURL string) NotifierOption {
	return func(n *Notifier) {
		n.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func NewNotifier(svc Service, appConfig *config.MunicipalityConfig, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		svc:       svc,
		appConfig: appConfig,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) IssueAssigned(ctx context.Context, issue *model.Issue, by model.Requester) error {
	channelID := n.channelOf(issue.AssignedDepartment)
	if channelID == "" {
		logging.From(ctx).Debug("no Slack channel for department, skip notification",
			"issue_id", issue.ID, "department", issue.AssignedDepartment)
		return nil
	}

	blocks := buildAssignedBlocks(issue, by, n.issueURL(issue.ID))
	text := fmt.Sprintf("Issue assigned: %s", issue.Title)
	if _, err := n.svc.PostMessage(ctx, channelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to notify issue assignment",
			goerr.V(model.IssueIDKey, issue.ID), goerr.V("department", issue.AssignedDepartment))
	}
	return nil
}

func (n *Notifier) IssueStatusChanged(ctx context.Context, issue *model.Issue, from types.IssueStatus, by model.Requester) error {
	channelID := n.channelOf(issue.AssignedDepartment)
	if channelID == "" {
		logging.From(ctx).Debug("no Slack channel for department, skip notification",
			"issue_id", issue.ID, "department", issue.AssignedDepartment)
		return nil
	}

	blocks := buildStatusChangedBlocks(issue, from, by, n.issueURL(issue.ID))
	text := fmt.Sprintf("Issue %s: %s", statusLabel(issue.Status), issue.Title)
	if _, err := n.svc.PostMessage(ctx, channelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to notify status change",
			goerr.V(model.IssueIDKey, issue.ID), goerr.V("department", issue.AssignedDepartment))
	}
	return nil
}

func (n *Notifier) channelOf(id types.DepartmentID) string {
	if id == "" {
		return ""
	}
	dept := n.appConfig.Department(id)
	if dept == nil {
		return ""
	}
	return dept.SlackChannel
}

func (n *Notifier) issueURL(id types.IssueID) string {
	if n.baseURL == "" {
		return ""
	}
	return n.baseURL + "/issues/" + id.String()
}

func statusLabel(s types.IssueStatus) string {
	switch s {
	case types.IssueStatusOpen:
		return ":large_blue_circle: Open"
	case types.IssueStatusInProgress:
		return ":construction: In progress"
	case types.IssueStatusResolved:
		return ":white_check_mark: Resolved"
	case types.IssueStatusClosed:
		return ":no_entry_sign: Closed"
	default:
		return string(s)
	}
}

func actorLabel(r model.Requester) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID.String()
}

func issueSummary(issue *model.Issue) slack.Block {
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Category*\n"+issue.Category.String(), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Status*\n"+statusLabel(issue.Status), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Votes*\n%d", issue.VoteCount), false, false),
	}
	if issue.Location != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*Location*\n"+issue.Location, false, false))
	}
	return slack.NewSectionBlock(nil, fields, nil)
}

func contextBlock(by model.Requester, action, issueURL string) slack.Block {
	parts := []string{fmt.Sprintf("%s by %s", action, actorLabel(by))}
	if issueURL != "" {
		parts = append(parts, fmt.Sprintf(":link: <%s|Open issue>", issueURL))
	}
	return slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(parts, "  |  "), false, false),
	)
}

// buildAssignedBlocks constructs Block Kit blocks for an assignment notification
func buildAssignedBlocks(issue *model.Issue, by model.Requester, issueURL string) []slack.Block {
	return []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "Assigned: "+issue.Title, true, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("Officer `%s` is now responsible for this issue.", issue.AssignedOfficerID), false, false),
			nil, nil,
		),
		issueSummary(issue),
		contextBlock(by, "Assigned", issueURL),
	}
}

// buildStatusChangedBlocks constructs Block Kit blocks for a status change notification
func buildStatusChangedBlocks(issue *model.Issue, from types.IssueStatus, by model.Requester, issueURL string) []slack.Block {
	return []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "Status changed: "+issue.Title, true, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("%s → %s", statusLabel(from), statusLabel(issue.Status)), false, false),
			nil, nil,
		),
		issueSummary(issue),
		contextBlock(by, "Updated", issueURL),
	}
}
