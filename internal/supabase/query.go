package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const singleObjectMediaType = "application/vnd.pgrst.object+json"

var errUnfiltered = errors.New("supabase: refusing to modify a table without filters")

// Query builds one PostgREST request. It is not safe for reuse after a
// terminal method has run.
type Query struct {
	client  *Client
	table   string
	filters url.Values
	order   []string
	single  bool
}

func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, filters: url.Values{}}
}

func (q *Query) Eq(column, value string) *Query {
	q.filters.Add(column, "eq."+value)
	return q
}

type OrderOpts struct {
	Ascending  bool
	NullsFirst bool
}

func (q *Query) Order(column string, opts OrderOpts) *Query {
	dir := "desc"
	if opts.Ascending {
		dir = "asc"
	}
	nulls := "nullslast"
	if opts.NullsFirst {
		nulls = "nullsfirst"
	}
	q.order = append(q.order, column+"."+dir+"."+nulls)
	return q
}

// Single makes the request return exactly one row as an object.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) path() string {
	return restPrefix + url.PathEscape(q.table)
}

func (q *Query) params(columns string) url.Values {
	params := url.Values{}
	for k, vs := range q.filters {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	if columns != "" {
		params.Set("select", columns)
	}
	if len(q.order) > 0 {
		params.Set("order", strings.Join(q.order, ","))
	}
	return params
}

func (q *Query) accept() string {
	if q.single {
		return singleObjectMediaType
	}
	return ""
}

func (q *Query) Select(ctx context.Context, columns string, dst any) error {
	if columns == "" {
		columns = "*"
	}
	return q.client.do(ctx, request{
		method: http.MethodGet,
		path:   q.path(),
		query:  q.params(columns),
		accept: q.accept(),
	}, dst)
}

// Insert adds row and decodes the stored representation into dst.
func (q *Query) Insert(ctx context.Context, row any, dst any) error {
	return q.client.do(ctx, request{
		method: http.MethodPost,
		path:   q.path(),
		query:  q.params("*"),
		body:   []any{row},
		prefer: "return=representation",
		accept: q.accept(),
	}, dst)
}

func (q *Query) Update(ctx context.Context, patch any, dst any) error {
	if len(q.filters) == 0 {
		return errUnfiltered
	}
	return q.client.do(ctx, request{
		method: http.MethodPatch,
		path:   q.path(),
		query:  q.params("*"),
		body:   patch,
		prefer: "return=representation",
		accept: q.accept(),
	}, dst)
}

func (q *Query) Delete(ctx context.Context) error {
	if len(q.filters) == 0 {
		return errUnfiltered
	}
	return q.client.do(ctx, request{
		method: http.MethodDelete,
		path:   q.path(),
		query:  q.params(""),
		prefer: "return=minimal",
	}, nil)
}
