package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/repository/firestore"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/makola-community/makola/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("MAKOLA_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("MAKOLA_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "firestore-collection-prefix",
				Usage:       "Prefix for Firestore collection names (must match serve)",
				Sources:     cli.EnvVars("MAKOLA_FIRESTORE_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(collectionPrefix)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer safe.Close(ctx, client)

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
				return nil
			}

			logger.Info("Applying migrations")
			if err := client.Migrate(ctx, indexConfig); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

// issueFilterFields are the equality filters of the issue list query. Each
// needs a composite index with created_at DESC.
var issueFilterFields = []string{
	"status",
	"category",
	"reporter_id",
	"assigned_officer_id",
	"assigned_department",
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig(prefix string) *fireconf.Config {
	var issueIndexes []fireconf.Index
	for _, field := range issueFilterFields {
		issueIndexes = append(issueIndexes, fireconf.Index{
			Fields: []fireconf.IndexField{
				{Path: field, Order: fireconf.OrderAscending},
				{Path: "created_at", Order: fireconf.OrderDescending},
			},
		})
	}
	// Department dashboard: open issues of one department
	issueIndexes = append(issueIndexes, fireconf.Index{
		Fields: []fireconf.IndexField{
			{Path: "status", Order: fireconf.OrderAscending},
			{Path: "assigned_department", Order: fireconf.OrderAscending},
			{Path: "created_at", Order: fireconf.OrderDescending},
		},
	})

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name:    firestore.CollectionName(prefix, firestore.IssuesCollection),
				Indexes: issueIndexes,
			},
			{
				Name: firestore.CollectionName(prefix, firestore.CommentsCollection),
				Indexes: []fireconf.Index{
					// ListByIssue: issue_id ASC, created_at ASC, seq ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "issue_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderAscending},
							{Path: "seq", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
