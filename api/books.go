package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// UploadThumbnail sends img as the multipart "file" part of
// PUT /api/books/{id}/thumbnail. Admin only on the backend.
func (c *Client) UploadThumbnail(ctx context.Context, bookID int64, filename string, img io.Reader) error {
	path := fmt.Sprintf("/api/books/%d/thumbnail", bookID)
	fail := func(err error) error {
		return &Error{Outcome: OutcomeFailed, Method: http.MethodPut, Path: path, Err: err}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(part, img); err != nil {
		return fail(fmt.Errorf("read image: %w", err))
	}
	if err := mw.Close(); err != nil {
		return fail(err)
	}

	return c.do(ctx, request{
		method:      http.MethodPut,
		route:       "/api/books/{id}/thumbnail",
		path:        path,
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	}, nil)
}
