package domain

import (
	"net/url"
	"strconv"
)

// Page is the envelope every list endpoint returns:
// {data: T[], total, limit, offset}.
type Page[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PageQuery carries the limit/offset pair of a list request.
type PageQuery struct {
	Limit  int
	Offset int
}

// Values encodes the query into URL parameters. Zero limit means "server
// default" and is omitted.
func (q PageQuery) Values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 || q.Limit > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}
