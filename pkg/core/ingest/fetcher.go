// Package ingest fetches security fundamentals from a quote site and keeps
// the store fresh.
package ingest

import (
	"context"
	"errors"

	"reverse_dcf/pkg/models"
)

// ErrParse is returned when a page does not carry the fields we need.
var ErrParse = errors.New("unparseable quote page")

// Fetcher loads the current fundamentals of one ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (*models.Security, error)
}
