package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query builds one PostgREST request.
type Query struct {
	client *Client
	table  string
	params url.Values
	orders []string
	single bool
}

// Select sets the returned columns.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) filter(column, op string, value any) *Query {
	q.params.Add(column, fmt.Sprintf("%s.%v", op, value))
	return q
}

// Eq adds column = value.
func (q *Query) Eq(column string, value any) *Query { return q.filter(column, "eq", value) }

// Neq adds column <> value.
func (q *Query) Neq(column string, value any) *Query { return q.filter(column, "neq", value) }

// Gte adds column >= value.
func (q *Query) Gte(column string, value any) *Query { return q.filter(column, "gte", value) }

// Lte adds column <= value.
func (q *Query) Lte(column string, value any) *Query { return q.filter(column, "lte", value) }

// ILike adds a case-insensitive pattern match. Use * as the wildcard.
func (q *Query) ILike(column, pattern string) *Query { return q.filter(column, "ilike", pattern) }

// In adds column IN (values...).
func (q *Query) In(column string, values ...string) *Query {
	return q.filter(column, "in", "("+strings.Join(values, ",")+")")
}

// InInts adds column IN (values...) for integer columns.
func (q *Query) InInts(column string, values ...int) *Query {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.Itoa(v)
	}
	return q.In(column, s...)
}

// Or adds a disjunction of raw PostgREST conditions, e.g. "name.ilike.*a*".
func (q *Query) Or(conditions ...string) *Query {
	q.params.Add("or", "("+strings.Join(conditions, ",")+")")
	return q
}

// Order adds an ORDER BY term.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit sets LIMIT.
func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.params.Set("limit", strconv.Itoa(n))
	}
	return q
}

// Offset sets OFFSET.
func (q *Query) Offset(n int) *Query {
	if n > 0 {
		q.params.Set("offset", strconv.Itoa(n))
	}
	return q
}

// Single expects exactly one row; zero rows is a not-found error.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) url() string {
	if len(q.orders) > 0 {
		q.params.Set("order", strings.Join(q.orders, ","))
	}
	u := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, q.table)
	if len(q.params) > 0 {
		u += "?" + q.params.Encode()
	}
	return u
}

// Get runs a SELECT.
func (q *Query) Get(ctx context.Context) (*Response, error) {
	header := http.Header{}
	if q.single {
		header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return q.client.do(ctx, q.table, http.MethodGet, q.url(), nil, header)
}

// Insert inserts body (a JSON object or array) and returns the new rows.
func (q *Query) Insert(ctx context.Context, body []byte) (*Response, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Prefer", "return=representation")
	return q.client.do(ctx, q.table, http.MethodPost, q.url(), body, header)
}

// Upsert inserts body, merging with rows that collide on onConflict.
func (q *Query) Upsert(ctx context.Context, body []byte, onConflict string) (*Response, error) {
	if onConflict != "" {
		q.params.Set("on_conflict", onConflict)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Prefer", "resolution=merge-duplicates,return=representation")
	return q.client.do(ctx, q.table, http.MethodPost, q.url(), body, header)
}

// Update patches every row matching the filters with body.
func (q *Query) Update(ctx context.Context, body []byte) (*Response, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Prefer", "return=representation")
	return q.client.do(ctx, q.table, http.MethodPatch, q.url(), body, header)
}

// Delete removes every row matching the filters.
func (q *Query) Delete(ctx context.Context) (*Response, error) {
	return q.client.do(ctx, q.table, http.MethodDelete, q.url(), nil, nil)
}
