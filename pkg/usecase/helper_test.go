package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/auth"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/usecase"
)

var (
	resident  = model.Requester{ID: "resident-1", Role: types.RoleResident}
	resident2 = model.Requester{ID: "resident-2", Role: types.RoleResident}
	resident3 = model.Requester{ID: "resident-3", Role: types.RoleResident}
	officer   = model.Requester{ID: "officer-1", Role: types.RoleDepartmentOfficer, Department: "roads"}
	councilor = model.Requester{ID: "councilor-1", Role: types.RoleUrbanCouncilor}
)

func as(r model.Requester) context.Context {
	return auth.ContextWithRequester(context.Background(), r)
}

func reportIssue(t *testing.T, uc *usecase.UseCases) *model.Issue {
	t.Helper()
	issue, err := uc.Issue.CreateIssue(as(resident), model.IssueDraft{
		Title:       "Pothole on Main St",
		Description: "Deep pothole near the bus stop",
		Category:    "roads",
	})
	gt.NoError(t, err).Required()
	return issue
}

// tickingClock returns a clock that advances one second per call
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type notification struct {
	kind  string
	issue *model.Issue
	from  types.IssueStatus
	by    model.Requester
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notification
	err   error
}

var _ interfaces.Notifier = &mockNotifier{}

func (m *mockNotifier) IssueAssigned(ctx context.Context, issue *model.Issue, by model.Requester) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notification{kind: "assigned", issue: issue, by: by})
	return m.err
}

func (m *mockNotifier) IssueStatusChanged(ctx context.Context, issue *model.Issue, from types.IssueStatus, by model.Requester) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notification{kind: "status", issue: issue, from: from, by: by})
	return m.err
}

func (m *mockNotifier) Calls() []notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification(nil), m.calls...)
}

type mockLimiter struct {
	mu      sync.Mutex
	limit   int
	counts  map[string]int
	retryIn time.Duration
}

var _ interfaces.RateLimiter = &mockLimiter{}

func newMockLimiter(limit int) *mockLimiter {
	return &mockLimiter{limit: limit, counts: map[string]int{}, retryIn: time.Hour}
}

func (m *mockLimiter) Allow(ctx context.Context, action interfaces.RateLimitAction, userID types.UserID) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(action) + ":" + string(userID)
	m.counts[key]++
	if m.counts[key] > m.limit {
		return false, m.retryIn, nil
	}
	return true, 0, nil
}

type mockStorage struct {
	objectName  string
	contentType string
}

var _ interfaces.PhotoStorage = &mockStorage{}

func (m *mockStorage) CreateUploadURL(ctx context.Context, objectName, contentType string) (*model.PhotoUpload, error) {
	m.objectName = objectName
	m.contentType = contentType
	return &model.PhotoUpload{
		UploadURL:   "https://storage.example.com/upload/" + objectName,
		PublicURL:   "https://storage.example.com/" + objectName,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(15 * time.Minute),
	}, nil
}
