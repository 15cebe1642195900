// internal/app/system/paging/paging.go

// Package paging provides offset pagination shared by the list endpoints.
package paging

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size used when the caller does not send one.
const DefaultLimit = 20

// MaxLimit caps caller-supplied page sizes.
const MaxLimit = 100

// Params describes one page request. Zero values are normalized: Page and
// Limit are clamped to at least 1, a nil Filter matches everything.
type Params struct {
	Page    int
	Limit   int
	Filter  bson.M
	SortBy  string
	SortDir int // 1 ascending, -1 descending
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Page is one page of decoded documents plus its Meta.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

func (p *Params) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Filter == nil {
		p.Filter = bson.M{}
	}
	if p.SortDir != 1 && p.SortDir != -1 {
		p.SortDir = 1
	}
}

// Find runs a counted, skipped, limited query against c. A page past the end
// of the result set returns empty Data with correct Meta, not an error.
func Find[T any](ctx context.Context, c *mongo.Collection, p Params) (Page[T], error) {
	p.normalize()

	total, err := c.CountDocuments(ctx, p.Filter)
	if err != nil {
		return Page[T]{}, err
	}

	opts := options.Find().
		SetSkip(int64(p.Page-1) * int64(p.Limit)).
		SetLimit(int64(p.Limit))
	if p.SortBy != "" {
		// Secondary _id sort keeps pages stable when the sort key repeats.
		opts.SetSort(bson.D{{Key: p.SortBy, Value: p.SortDir}, {Key: "_id", Value: 1}})
	} else {
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}

	cur, err := c.Find(ctx, p.Filter, opts)
	if err != nil {
		return Page[T]{}, err
	}
	defer cur.Close(ctx)

	data := []T{}
	if err := cur.All(ctx, &data); err != nil {
		return Page[T]{}, err
	}

	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Page[T]{
		Data: data,
		Meta: Meta{
			Page:       p.Page,
			PerPage:    p.Limit,
			TotalItems: total,
			TotalPages: totalPages,
			HasNext:    p.Page < totalPages,
			HasPrev:    p.Page > 1 && total > 0,
		},
	}, nil
}

// ParseRequest reads page and limit from the request query, tolerating
// missing or junk values.
func ParseRequest(r *http.Request) Params {
	return Params{
		Page:  parseIntParam(r, "page", 1),
		Limit: parseIntParam(r, "limit", DefaultLimit),
	}
}

func parseIntParam(r *http.Request, name string, def int) int {
	s := query.Get(r, name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
