package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/utils/logging"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// errBodyTooLarge marks a request body above maxBodyBytes
var errBodyTooLarge = goerr.New("request body too large")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close() //nolint:errcheck // request body

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return goerr.Wrap(errBodyTooLarge, "request body exceeds limit", goerr.V("limit", maxErr.Limit))
		}
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(model.ErrInvalidArgument, "request body is required")
		}
		return goerr.Wrap(model.ErrInvalidArgument, "invalid JSON body", goerr.V("reason", err.Error()))
	}
	return nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.From(ctx).Error("failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// setETag sets the strong entity tag for a versioned resource
func setETag(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}

// ifMatchVersion parses the If-Match header into the version the client
// expects. A missing header or "*" yields zero, which skips the check.
func ifMatchVersion(r *http.Request) (int64, error) {
	value := strings.TrimSpace(r.Header.Get("If-Match"))
	if value == "" || value == "*" {
		return 0, nil
	}

	value = strings.TrimPrefix(value, "W/")
	if unquoted, err := strconv.Unquote(value); err == nil {
		value = unquoted
	}

	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil || version <= 0 {
		return 0, goerr.Wrap(model.ErrInvalidArgument, "If-Match must carry a version",
			goerr.V("if_match", r.Header.Get("If-Match")))
	}
	return version, nil
}
