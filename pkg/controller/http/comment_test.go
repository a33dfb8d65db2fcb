package http_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
)

func (s *testServer) addComment(issueID types.IssueID, as model.Requester, parentID types.CommentID, content string) *model.Comment {
	s.t.Helper()
	w := s.do(request{
		method: http.MethodPost,
		path:   "/api/issues/" + issueID.String() + "/comments",
		as:     &as,
		body:   map[string]any{"content": content, "parent_id": parentID},
	})
	gt.Number(s.t, w.Code).Equal(http.StatusCreated)
	return decode[*model.Comment](s.t, w)
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	issue := s.createIssue(resident)
	commentsPath := "/api/issues/" + issue.ID.String() + "/comments"

	root := s.addComment(issue.ID, resident2, "", "Same problem on my street")
	reply := s.addComment(issue.ID, officer, root.ID, "Crew scheduled")
	gt.Value(t, reply.ParentID).Equal(root.ID)

	t.Run("reply to a reply", func(t *testing.T) {
		w := s.do(request{
			method: http.MethodPost,
			path:   commentsPath,
			as:     &resident,
			body:   map[string]any{"content": "nested", "parent_id": reply.ID},
		})
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("too long", func(t *testing.T) {
		w := s.do(request{
			method: http.MethodPost,
			path:   commentsPath,
			as:     &resident,
			body:   map[string]any{"content": strings.Repeat("a", model.MaxCommentLength+1)},
		})
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown issue", func(t *testing.T) {
		w := s.do(request{
			method: http.MethodPost,
			path:   "/api/issues/missing/comments",
			as:     &resident,
			body:   map[string]any{"content": "hello"},
		})
		gt.Number(t, w.Code).Equal(http.StatusNotFound)
	})

	t.Run("list threads", func(t *testing.T) {
		w := s.do(request{method: http.MethodGet, path: commentsPath})
		gt.Number(t, w.Code).Equal(http.StatusOK)

		type listBody struct {
			Comments []*model.CommentThread `json:"comments"`
		}
		threads := decode[listBody](t, w).Comments
		gt.Array(t, threads).Length(1).Required()
		gt.Value(t, threads[0].Root.ID).Equal(root.ID)
		gt.Array(t, threads[0].Replies).Length(1)
	})

	t.Run("edit by author", func(t *testing.T) {
		w := s.do(request{
			method:  http.MethodPatch,
			path:    "/api/comments/" + reply.ID.String(),
			as:      &officer,
			body:    map[string]any{"content": "Crew scheduled for Monday"},
			headers: map[string]string{"If-Match": `"1"`},
		})
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Header().Get("ETag")).Equal(`"2"`)
		gt.Value(t, decode[*model.Comment](t, w).Content).Equal("Crew scheduled for Monday")
	})

	t.Run("edit by councilor is forbidden", func(t *testing.T) {
		w := s.do(request{
			method: http.MethodPatch,
			path:   "/api/comments/" + reply.ID.String(),
			as:     &councilor,
			body:   map[string]any{"content": "moderated"},
		})
		gt.Number(t, w.Code).Equal(http.StatusForbidden)
	})

	t.Run("delete root cascades", func(t *testing.T) {
		w := s.do(request{method: http.MethodDelete, path: "/api/comments/" + root.ID.String(), as: &resident})
		gt.Number(t, w.Code).Equal(http.StatusForbidden)

		w = s.do(request{method: http.MethodDelete, path: "/api/comments/" + root.ID.String(), as: &councilor})
		gt.Number(t, w.Code).Equal(http.StatusOK)

		type deleteBody struct {
			Deleted []types.CommentID `json:"deleted"`
		}
		deleted := decode[deleteBody](t, w).Deleted
		gt.Array(t, deleted).Length(2)
		gt.Array(t, deleted).Has(root.ID)
		gt.Array(t, deleted).Has(reply.ID)

		w = s.do(request{method: http.MethodGet, path: commentsPath})
		gt.String(t, w.Body.String()).Contains(`"comments":[]`)
	})
}
