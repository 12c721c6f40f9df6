package api

import (
	"context"
	"net/http"

	"library-admin/library"
)

// DashboardStats returns the aggregate counts and lend histogram.
func (c *Client) DashboardStats(ctx context.Context) (*library.DashboardStats, error) {
	var out library.DashboardStats
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/dashboard/stats",
		path:   "/api/dashboard/stats",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
