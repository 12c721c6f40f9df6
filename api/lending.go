package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"library-admin/library"
)

// AllBooksStatus is the admin view of every book's lend state.
func (c *Client) AllBooksStatus(ctx context.Context) ([]library.LendingEntry, error) {
	var out []library.LendingEntry
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/lending/all-books-status",
		path:   "/api/lending/all-books-status",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UserBooks returns what userID may borrow and what they hold.
func (c *Client) UserBooks(ctx context.Context, userID int64) (*library.UserBooks, error) {
	var out library.UserBooks
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/lending/books/user",
		path:   "/api/lending/books/user",
		query:  url.Values{"userId": {strconv.FormatInt(userID, 10)}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Lend creates a lend record.
func (c *Client) Lend(ctx context.Context, userID, bookID int64) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/lending/lend",
		path:   "/api/lending/lend",
		body:   library.LendRequest{UserID: userID, BookID: bookID},
	}, nil)
}

// Return closes a lend record.
func (c *Client) Return(ctx context.Context, lendingID int64) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/lending/return",
		path:   "/api/lending/return",
		query:  url.Values{"lendingId": {strconv.FormatInt(lendingID, 10)}},
	}, nil)
}
