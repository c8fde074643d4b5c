package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/itchan-dev/threads/shared/errors"
)

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, errors.BadRequest(fmt.Sprintf("invalid %s: must be an integer", paramName))
	}
	return val, nil
}

// pageParams reads page and page_size from the query. Missing values fall
// back to the first page and the configured page size.
func (h *Handler) pageParams(r *http.Request) (page, pageSize int, err error) {
	page, pageSize = 1, h.cfg.Public.ThreadsPerPage
	query := r.URL.Query()
	if v := query.Get("page"); v != "" {
		if page, err = parseIntParam(v, "page"); err != nil {
			return 0, 0, err
		}
	}
	if v := query.Get("page_size"); v != "" {
		if pageSize, err = parseIntParam(v, "page_size"); err != nil {
			return 0, 0, err
		}
	}
	return page, pageSize, nil
}
