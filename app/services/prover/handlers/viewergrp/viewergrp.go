// Package viewergrp serves the page that follows oracle submissions live.
package viewergrp

import (
	"context"
	_ "embed"
	"net/http"
)

//go:embed index.html
var index []byte

// Index writes the viewer page. The page opens the v1 events socket on the
// same host it was served from.
func Index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(index)
	return err
}
