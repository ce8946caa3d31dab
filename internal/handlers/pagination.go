package handlers

import (
	"errors"
	"strconv"
)

const maxPageSize = 100

var errInvalidPagination = errors.New("page and limit must be positive integers")

func parsePaginationParams(pageStr, limitStr string) (int, int, error) {
	page := 1
	limit := 20

	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			return 0, 0, errInvalidPagination
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			return 0, 0, errInvalidPagination
		}
		limit = l
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return page, limit, nil
}
