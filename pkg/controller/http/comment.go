package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/usecase"
)

type commentHandler struct {
	uc *usecase.CommentUseCase
}

type addCommentRequest struct {
	Content  string          `json:"content"`
	ParentID types.CommentID `json:"parent_id"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

type threadListResponse struct {
	Comments []*model.CommentThread `json:"comments"`
}

type deleteCommentResponse struct {
	Deleted []types.CommentID `json:"deleted"`
}

func commentIDParam(r *http.Request) types.CommentID {
	return types.CommentID(chi.URLParam(r, "commentID"))
}

func (h *commentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	comment, err := h.uc.AddComment(r.Context(), issueIDParam(r), req.ParentID, req.Content)
	if err != nil {
		handleError(w, r, err)
		return
	}
	setETag(w, comment.Version)
	writeJSON(r.Context(), w, http.StatusCreated, comment)
}

func (h *commentHandler) list(w http.ResponseWriter, r *http.Request) {
	threads, err := h.uc.ListThreads(r.Context(), issueIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, threadListResponse{Comments: threads})
}

func (h *commentHandler) edit(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req editCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	comment, err := h.uc.EditComment(r.Context(), commentIDParam(r), version, req.Content)
	if err != nil {
		handleError(w, r, err)
		return
	}
	setETag(w, comment.Version)
	writeJSON(r.Context(), w, http.StatusOK, comment)
}

func (h *commentHandler) delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.uc.DeleteComment(r.Context(), commentIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, deleteCommentResponse{Deleted: removed})
}
