package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"
	"github.com/rs/zerolog"
)

// perPage is the page size requested from every listing endpoint.
const perPage = 100

// Page is one fetched slice of a paginated listing. Done marks the end of the
// listing: an empty page, or a successful response whose body is not a list.
type Page[T any] struct {
	Items []T
	Done  bool
}

// StatusError reports a listing page that came back with a non-success status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// listFunc requests a single page of a listing.
type listFunc[T any] func(ctx context.Context, opts github.ListOptions) ([]T, *github.Response, error)

// fetchPage requests one page and classifies the outcome.
func fetchPage[T any](ctx context.Context, endpoint string, list listFunc[T], page int) (Page[T], error) {
	items, resp, err := list(ctx, github.ListOptions{Page: page, PerPage: perPage})
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if resp != nil && isSuccess(resp.StatusCode) && errors.As(err, &typeErr) {
			return Page[T]{Done: true}, nil
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return Page[T]{}, &StatusError{Endpoint: endpoint, StatusCode: status, Err: err}
	}
	if len(items) == 0 {
		return Page[T]{Done: true}, nil
	}
	return Page[T]{Items: items}, nil
}

// walkPages requests pages 1, 2, ... until the listing is exhausted and keeps
// the items accepted by keep. A failed page ends the walk with what was
// gathered so far.
func walkPages[T any](ctx context.Context, logger zerolog.Logger, endpoint string, list listFunc[T], keep func(T) bool) []T {
	var out []T
	for page := 1; ; page++ {
		p, err := fetchPage(ctx, endpoint, list, page)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug().Str("endpoint", endpoint).Int("page", page).Msg("Listing cancelled")
				return out
			}
			var statusErr *StatusError
			ev := logger.Warn().Str("endpoint", endpoint).Int("page", page)
			if errors.As(err, &statusErr) && statusErr.StatusCode != 0 {
				ev = ev.Int("status", statusErr.StatusCode)
			}
			ev.Err(err).Msg("Error fetching page, keeping partial results")
			return out
		}
		if p.Done {
			logger.Debug().Str("endpoint", endpoint).Int("pages", page-1).Int("kept", len(out)).Msg("Listing exhausted")
			return out
		}
		for _, item := range p.Items {
			if keep == nil || keep(item) {
				out = append(out, item)
			}
		}
	}
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
