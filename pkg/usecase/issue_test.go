package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/config"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/repository/memory"
	"github.com/makola-community/makola/pkg/usecase"
	"github.com/makola-community/makola/pkg/utils/async"
)

var testConfig = &config.MunicipalityConfig{
	Categories: []config.Category{
		{ID: "roads", Name: "Roads"},
		{ID: "lighting", Name: "Street lighting"},
	},
	Departments: []config.Department{
		{ID: "roads", Name: "Roads Department", SlackChannel: "C-ROADS"},
	},
}

func TestIssueUseCase_CreateIssue(t *testing.T) {
	t.Run("resident reports an issue", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithAppConfig(testConfig))
		issue := reportIssue(t, uc)

		gt.Value(t, issue.Status).Equal(types.IssueStatusOpen)
		gt.Value(t, issue.ReporterID).Equal(resident.ID)
		gt.Number(t, issue.Version).Equal(1)

		stored, err := uc.Issue.GetIssue(context.Background(), issue.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Title).Equal(issue.Title)
	})

	t.Run("anonymous request is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Issue.CreateIssue(context.Background(), model.IssueDraft{
			Title: "t", Description: "d", Category: "roads",
		})
		gt.Error(t, err).Is(model.ErrUnauthorized)
	})

	t.Run("unknown category is rejected when configured", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithAppConfig(testConfig))
		_, err := uc.Issue.CreateIssue(as(resident), model.IssueDraft{
			Title: "t", Description: "d", Category: "parks",
		})
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})

	t.Run("rate limit applies per reporter", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithRateLimiter(newMockLimiter(2)))
		draft := model.IssueDraft{Title: "t", Description: "d", Category: "roads"}

		for range 2 {
			_, err := uc.Issue.CreateIssue(as(resident), draft)
			gt.NoError(t, err).Required()
		}

		_, err := uc.Issue.CreateIssue(as(resident), draft)
		gt.Error(t, err).Is(usecase.ErrRateLimited)
		retryAfter, ok := usecase.RetryAfter(err)
		gt.Bool(t, ok).True()
		gt.Value(t, retryAfter).Equal(time.Hour)

		_, err = uc.Issue.CreateIssue(as(resident2), draft)
		gt.NoError(t, err)
	})
}

func TestIssueUseCase_GetIssueDetail(t *testing.T) {
	uc := usecase.New(memory.New())
	issue := reportIssue(t, uc)

	root, err := uc.Comment.AddComment(as(resident2), issue.ID, "", "Same here")
	gt.NoError(t, err).Required()
	_, err = uc.Comment.AddComment(as(officer), issue.ID, root.ID, "Scheduled")
	gt.NoError(t, err).Required()
	_, err = uc.Issue.Upvote(as(resident2), issue.ID)
	gt.NoError(t, err).Required()

	t.Run("voter sees own vote", func(t *testing.T) {
		detail, err := uc.Issue.GetIssueDetail(as(resident2), issue.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, detail.Issue.ID).Equal(issue.ID)
		gt.Number(t, detail.Issue.VoteCount).Equal(1)
		gt.Bool(t, detail.UserHasVoted).True()
		gt.Array(t, detail.Threads).Length(1).Required()
		gt.Array(t, detail.Threads[0].Replies).Length(1)
	})

	t.Run("other user has not voted", func(t *testing.T) {
		detail, err := uc.Issue.GetIssueDetail(as(resident3), issue.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, detail.UserHasVoted).False()
	})

	t.Run("missing issue", func(t *testing.T) {
		_, err := uc.Issue.GetIssueDetail(as(resident), types.NewIssueID())
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

func TestIssueUseCase_ListIssues(t *testing.T) {
	uc := usecase.New(memory.New())
	first := reportIssue(t, uc)
	second := reportIssue(t, uc)

	_, err := uc.Issue.ChangeStatus(as(councilor), second.ID, 0, types.IssueStatusInProgress)
	gt.NoError(t, err).Required()

	all, err := uc.Issue.ListIssues(context.Background(), usecase.IssueFilter{})
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(2)

	open, err := uc.Issue.ListIssues(context.Background(), usecase.IssueFilter{Status: types.IssueStatusOpen})
	gt.NoError(t, err).Required()
	gt.Array(t, open).Length(1).Required()
	gt.Value(t, open[0].ID).Equal(first.ID)

	_, err = uc.Issue.ListIssues(context.Background(), usecase.IssueFilter{Status: "archived"})
	gt.Error(t, err).Is(model.ErrInvalidArgument)
}

func TestIssueUseCase_ChangeStatus(t *testing.T) {
	t.Run("assigned officer progresses the issue and departments are notified", func(t *testing.T) {
		notifier := &mockNotifier{}
		uc := usecase.New(memory.New(), usecase.WithNotifier(notifier), usecase.WithAppConfig(testConfig))
		issue := reportIssue(t, uc)

		assigned, err := uc.Issue.AssignOfficer(as(councilor), issue.ID, issue.Version, officer.ID, "roads")
		gt.NoError(t, err).Required()
		gt.Value(t, assigned.Status).Equal(types.IssueStatusOpen)

		started, err := uc.Issue.ChangeStatus(as(officer), issue.ID, assigned.Version, types.IssueStatusInProgress)
		gt.NoError(t, err).Required()
		gt.Value(t, started.Status).Equal(types.IssueStatusInProgress)
		gt.Number(t, started.Version).Equal(3)

		gt.Bool(t, async.Wait(time.Second)).True()
		calls := notifier.Calls()
		gt.Array(t, calls).Length(2).Required()

		kinds := map[string]notification{}
		for _, c := range calls {
			kinds[c.kind] = c
		}
		gt.Value(t, kinds["assigned"].issue.AssignedOfficerID).Equal(officer.ID)
		gt.Value(t, kinds["status"].from).Equal(types.IssueStatusOpen)
		gt.Value(t, kinds["status"].by.ID).Equal(officer.ID)
	})

	t.Run("unassigned officer is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		_, err := uc.Issue.ChangeStatus(as(officer), issue.ID, 0, types.IssueStatusInProgress)
		gt.Error(t, err).Is(model.ErrUnauthorized)

		stored, err := uc.Issue.GetIssue(context.Background(), issue.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.IssueStatusOpen)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		_, err := uc.Issue.ChangeStatus(as(councilor), issue.ID, issue.Version, types.IssueStatusInProgress)
		gt.NoError(t, err).Required()

		_, err = uc.Issue.ChangeStatus(as(councilor), issue.ID, issue.Version, types.IssueStatusClosed)
		gt.Error(t, err).Is(model.ErrConflict)
	})

	t.Run("closed issue stays closed", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		_, err := uc.Issue.ChangeStatus(as(councilor), issue.ID, 0, types.IssueStatusClosed)
		gt.NoError(t, err).Required()

		_, err = uc.Issue.ChangeStatus(as(councilor), issue.ID, 0, types.IssueStatusOpen)
		gt.Error(t, err).Is(model.ErrInvalidTransition)
	})
}

func TestIssueUseCase_AssignOfficer(t *testing.T) {
	uc := usecase.New(memory.New(), usecase.WithAppConfig(testConfig))
	issue := reportIssue(t, uc)

	_, err := uc.Issue.AssignOfficer(as(councilor), issue.ID, 0, officer.ID, "parks")
	gt.Error(t, err).Is(model.ErrInvalidArgument)

	_, err = uc.Issue.AssignOfficer(as(resident), issue.ID, 0, officer.ID, "roads")
	gt.Error(t, err).Is(model.ErrUnauthorized)

	_, err = uc.Issue.AssignOfficer(as(councilor), types.NewIssueID(), 0, officer.ID, "roads")
	gt.Error(t, err).Is(model.ErrNotFound)
}

func TestIssueUseCase_Upvote(t *testing.T) {
	t.Run("one vote per user", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		for _, voter := range []model.Requester{resident, resident2, resident3} {
			_, err := uc.Issue.Upvote(as(voter), issue.ID)
			gt.NoError(t, err).Required()
		}

		again, err := uc.Issue.Upvote(as(resident2), issue.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, again.VoteCount).Equal(3)

		stored, err := uc.Issue.GetIssue(context.Background(), issue.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, stored.VoteCount).Equal(3)
	})

	t.Run("concurrent voters are all counted", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		// Each voter retries on conflict, so keep the crowd small enough that
		// every voter finishes within the retry budget.
		voters := []model.Requester{resident, resident2}
		var wg sync.WaitGroup
		errs := make([]error, len(voters))
		for i, voter := range voters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = uc.Issue.Upvote(as(voter), issue.ID)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			gt.NoError(t, err)
		}
		stored, err := uc.Issue.GetIssue(context.Background(), issue.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, stored.VoteCount).Equal(2)
	})

	t.Run("anonymous upvote is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		_, err := uc.Issue.Upvote(context.Background(), issue.ID)
		gt.Error(t, err).Is(model.ErrUnauthorized)
	})
}

func TestIssueUseCase_DeleteIssue(t *testing.T) {
	t.Run("reporter deletes with comments and votes", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		issue := reportIssue(t, uc)

		_, err := uc.Comment.AddComment(as(resident2), issue.ID, "", "+1")
		gt.NoError(t, err).Required()
		_, err = uc.Issue.Upvote(as(resident2), issue.ID)
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.Issue.DeleteIssue(as(resident), issue.ID)).Required()

		_, err = uc.Issue.GetIssue(context.Background(), issue.ID)
		gt.Error(t, err).Is(model.ErrNotFound)

		comments, err := repo.Comment().ListByIssue(context.Background(), issue.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, comments).Length(0)

		voted, err := repo.Vote().Exists(context.Background(), issue.ID, resident2.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, voted).False()
	})

	t.Run("another resident cannot delete", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		err := uc.Issue.DeleteIssue(as(resident2), issue.ID)
		gt.Error(t, err).Is(model.ErrUnauthorized)
	})

	t.Run("failed issue delete keeps comments", func(t *testing.T) {
		repo := &failingRepo{Repository: memory.New(), issueDeleteErr: errStorage}
		uc := usecase.New(repo)
		issue := reportIssue(t, uc)
		_, err := uc.Comment.AddComment(as(resident2), issue.ID, "", "+1")
		gt.NoError(t, err).Required()

		gt.Error(t, uc.Issue.DeleteIssue(as(resident), issue.ID)).Is(errStorage)

		threads, err := uc.Comment.ListThreads(context.Background(), issue.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, threads).Length(1)
	})

	t.Run("failed cascade leaves no reachable comments", func(t *testing.T) {
		repo := &failingRepo{Repository: memory.New(), commentCascadeErr: errStorage}
		uc := usecase.New(repo)
		issue := reportIssue(t, uc)
		comment, err := uc.Comment.AddComment(as(resident2), issue.ID, "", "+1")
		gt.NoError(t, err).Required()

		gt.Error(t, uc.Issue.DeleteIssue(as(resident), issue.ID)).Is(errStorage)

		_, err = uc.Issue.GetIssue(context.Background(), issue.ID)
		gt.Error(t, err).Is(model.ErrNotFound)
		_, err = uc.Comment.ListThreads(context.Background(), issue.ID)
		gt.Error(t, err).Is(model.ErrNotFound)
		_, err = uc.Comment.EditComment(as(resident2), comment.ID, 0, "edited")
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

var errStorage = errors.New("storage unavailable")

type failingRepo struct {
	interfaces.Repository
	issueDeleteErr    error
	commentCascadeErr error
}

func (r *failingRepo) Issue() interfaces.IssueRepository {
	return &failingIssueRepo{IssueRepository: r.Repository.Issue(), deleteErr: r.issueDeleteErr}
}

func (r *failingRepo) Comment() interfaces.CommentRepository {
	return &failingCommentRepo{CommentRepository: r.Repository.Comment(), cascadeErr: r.commentCascadeErr}
}

type failingIssueRepo struct {
	interfaces.IssueRepository
	deleteErr error
}

func (r *failingIssueRepo) Delete(ctx context.Context, id types.IssueID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.IssueRepository.Delete(ctx, id)
}

type failingCommentRepo struct {
	interfaces.CommentRepository
	cascadeErr error
}

func (r *failingCommentRepo) DeleteByIssue(ctx context.Context, issueID types.IssueID) error {
	if r.cascadeErr != nil {
		return r.cascadeErr
	}
	return r.CommentRepository.DeleteByIssue(ctx, issueID)
}

func TestIssueUseCase_Photos(t *testing.T) {
	t.Run("upload URL requires storage", func(t *testing.T) {
		uc := usecase.New(memory.New())
		issue := reportIssue(t, uc)

		_, err := uc.Issue.CreatePhotoUploadURL(as(resident), issue.ID, "a.jpg", "image/jpeg")
		gt.Error(t, err).Is(usecase.ErrFeatureDisabled)
	})

	t.Run("reporter uploads and attaches a photo", func(t *testing.T) {
		storage := &mockStorage{}
		uc := usecase.New(memory.New(), usecase.WithPhotoStorage(storage))
		issue := reportIssue(t, uc)

		upload, err := uc.Issue.CreatePhotoUploadURL(as(resident), issue.ID, "IMG_0001.JPG", "image/jpeg")
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.HasPrefix(storage.objectName, "issues/"+issue.ID.String()+"/")).True()
		gt.Bool(t, strings.HasSuffix(storage.objectName, ".jpg")).True()

		updated, err := uc.Issue.AttachPhoto(as(resident), issue.ID, issue.Version, upload.PublicURL)
		gt.NoError(t, err).Required()
		gt.Array(t, updated.Photos).Length(1)
	})

	t.Run("non-image content type is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithPhotoStorage(&mockStorage{}))
		issue := reportIssue(t, uc)

		_, err := uc.Issue.CreatePhotoUploadURL(as(resident), issue.ID, "a.pdf", "application/pdf")
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})

	t.Run("officer cannot request an upload URL", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithPhotoStorage(&mockStorage{}))
		issue := reportIssue(t, uc)

		_, err := uc.Issue.CreatePhotoUploadURL(as(officer), issue.ID, "a.jpg", "image/jpeg")
		gt.Error(t, err).Is(model.ErrUnauthorized)
	})
}

func TestIssueUseCase_UpdateIssue(t *testing.T) {
	uc := usecase.New(memory.New(), usecase.WithAppConfig(testConfig))
	issue := reportIssue(t, uc)

	title := "Pothole fixed badly"
	category := types.CategoryID("lighting")
	updated, err := uc.Issue.UpdateIssue(as(resident), issue.ID, issue.Version, model.IssuePatch{
		Title:    &title,
		Category: &category,
	})
	gt.NoError(t, err).Required()
	gt.Value(t, updated.Title).Equal(title)
	gt.Value(t, updated.Category).Equal(category)

	unknown := types.CategoryID("parks")
	_, err = uc.Issue.UpdateIssue(as(resident), issue.ID, 0, model.IssuePatch{Category: &unknown})
	gt.Error(t, err).Is(model.ErrInvalidArgument)
}
