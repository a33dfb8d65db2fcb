package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/types"
	"github.com/makola-community/makola/pkg/usecase"
)

type issueHandler struct {
	uc *usecase.IssueUseCase
}

type createIssueRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Category     types.CategoryID   `json:"category"`
	Priority     types.Priority     `json:"priority"`
	Location     string             `json:"location"`
	Coordinates  *model.Coordinates `json:"coordinates"`
	Photos       []string           `json:"photos"`
	DateObserved string             `json:"date_observed"`
	TimeObserved string             `json:"time_observed"`
}

type updateIssueRequest struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	Category     *types.CategoryID  `json:"category"`
	Priority     *types.Priority    `json:"priority"`
	Location     *string            `json:"location"`
	Coordinates  *model.Coordinates `json:"coordinates"`
	DateObserved *string            `json:"date_observed"`
	TimeObserved *string            `json:"time_observed"`
}

type changeStatusRequest struct {
	Status types.IssueStatus `json:"status"`
}

type assignRequest struct {
	OfficerID  types.UserID       `json:"officer_id"`
	Department types.DepartmentID `json:"department"`
}

type attachPhotoRequest struct {
	URL string `json:"url"`
}

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type issueListResponse struct {
	Issues []*model.Issue `json:"issues"`
}

func issueIDParam(r *http.Request) types.IssueID {
	return types.IssueID(chi.URLParam(r, "issueID"))
}

// writeIssue responds with the issue and its version as ETag
func writeIssue(w http.ResponseWriter, r *http.Request, status int, issue *model.Issue) {
	setETag(w, issue.Version)
	writeJSON(r.Context(), w, status, issue)
}

func (h *issueHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createIssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	issue, err := h.uc.CreateIssue(r.Context(), model.IssueDraft{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		Location:     req.Location,
		Coordinates:  req.Coordinates,
		Photos:       req.Photos,
		DateObserved: req.DateObserved,
		TimeObserved: req.TimeObserved,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/issues/"+issue.ID.String())
	writeIssue(w, r, http.StatusCreated, issue)
}

func (h *issueHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := usecase.IssueFilter{
		Status:     types.IssueStatus(q.Get("status")),
		Category:   types.CategoryID(q.Get("category")),
		Reporter:   types.UserID(q.Get("reporter")),
		Officer:    types.UserID(q.Get("officer")),
		Department: types.DepartmentID(q.Get("department")),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			handleError(w, r, goerr.Wrap(model.ErrInvalidArgument, "limit must be a number", goerr.V("limit", v)))
			return
		}
		filter.Limit = limit
	}

	issues, err := h.uc.ListIssues(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if issues == nil {
		issues = []*model.Issue{}
	}
	writeJSON(r.Context(), w, http.StatusOK, issueListResponse{Issues: issues})
}

func (h *issueHandler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.uc.GetIssueDetail(r.Context(), issueIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	setETag(w, detail.Issue.Version)
	writeJSON(r.Context(), w, http.StatusOK, detail)
}

func (h *issueHandler) update(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req updateIssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	issue, err := h.uc.UpdateIssue(r.Context(), issueIDParam(r), version, model.IssuePatch{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		Location:     req.Location,
		Coordinates:  req.Coordinates,
		DateObserved: req.DateObserved,
		TimeObserved: req.TimeObserved,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeIssue(w, r, http.StatusOK, issue)
}

func (h *issueHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req changeStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	issue, err := h.uc.ChangeStatus(r.Context(), issueIDParam(r), version, req.Status)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeIssue(w, r, http.StatusOK, issue)
}

func (h *issueHandler) assign(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	issue, err := h.uc.AssignOfficer(r.Context(), issueIDParam(r), version, req.OfficerID, req.Department)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeIssue(w, r, http.StatusOK, issue)
}

func (h *issueHandler) upvote(w http.ResponseWriter, r *http.Request) {
	issue, err := h.uc.Upvote(r.Context(), issueIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeIssue(w, r, http.StatusOK, issue)
}

func (h *issueHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteIssue(r.Context(), issueIDParam(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *issueHandler) attachPhoto(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatchVersion(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req attachPhotoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	issue, err := h.uc.AttachPhoto(r.Context(), issueIDParam(r), version, req.URL)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeIssue(w, r, http.StatusOK, issue)
}

func (h *issueHandler) createUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	upload, err := h.uc.CreatePhotoUploadURL(r.Context(), issueIDParam(r), req.Filename, req.ContentType)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, upload)
}
