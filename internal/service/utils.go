package service

import (
	"strings"
	"time"
)

const (
	defaultPageSize int32 = 20
	maxPageSize     int32 = 100
)

func normalizePage(limit, offset int32) (int32, int32) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func now() time.Time {
	return time.Now().UTC()
}

// optionalTrimmed trims a partial-update field, keeping nil as "unchanged".
func optionalTrimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
