package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"library-admin/library"
)

// Resource is the CRUD + search surface shared by authors, books,
// publishers and users.
type Resource[T library.Record] struct {
	c    *Client
	base string // e.g. /api/authors
}

func newResource[T library.Record](c *Client, base string) Resource[T] {
	return Resource[T]{c: c, base: base}
}

// Authors is /api/authors; search by name.
func (c *Client) Authors() Resource[library.Author] {
	return newResource[library.Author](c, "/api/authors")
}

// Books is /api/books; search by title, author, publisher or category.
func (c *Client) Books() Resource[library.Book] {
	return newResource[library.Book](c, "/api/books")
}

// Publishers is /api/publishers; search by name.
func (c *Client) Publishers() Resource[library.Publisher] {
	return newResource[library.Publisher](c, "/api/publishers")
}

// Users is /api/users; search by term. Admin only on the backend.
func (c *Client) Users() Resource[library.User] {
	return newResource[library.User](c, "/api/users")
}

// List returns the whole collection.
func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := r.c.do(ctx, request{method: http.MethodGet, route: r.base, path: r.base}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search queries base/search with params.
func (r Resource[T]) Search(ctx context.Context, params url.Values) ([]T, error) {
	var out []T
	route := r.base + "/search"
	err := r.c.do(ctx, request{method: http.MethodGet, route: route, path: route, query: params}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one record.
func (r Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.c.do(ctx, request{method: http.MethodGet, route: r.base + "/{id}", path: r.item(id)}, &out)
	return out, err
}

// Create posts payload and returns the stored record.
func (r Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var out T
	err := r.c.do(ctx, request{method: http.MethodPost, route: r.base, path: r.base, body: payload}, &out)
	return out, err
}

// Update replaces record id with payload.
func (r Resource[T]) Update(ctx context.Context, id int64, payload any) (T, error) {
	var out T
	err := r.c.do(ctx, request{method: http.MethodPut, route: r.base + "/{id}", path: r.item(id), body: payload}, &out)
	return out, err
}

// Delete removes record id.
func (r Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, request{method: http.MethodDelete, route: r.base + "/{id}", path: r.item(id)}, nil)
}

func (r Resource[T]) item(id int64) string {
	return fmt.Sprintf("%s/%d", r.base, id)
}
