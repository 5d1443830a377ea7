package pagination

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/catalog-client/pkg/graphql"
)

// ErrInvalidRange is returned for a negative offset or non-positive limit,
// wrapped in a parse-class graphql.Error like any request that cannot be encoded.
var ErrInvalidRange = errors.New("offset must be >= 0 and limit > 0")

// PageFetcher fetches a single page of items. Implementations issue exactly
// one request per call and never retry.
type PageFetcher interface {
	Fetch(ctx context.Context, offset, limit int) (Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, offset, limit int) (Page, error)

// Fetch calls f.
func (f PageFetcherFunc) Fetch(ctx context.Context, offset, limit int) (Page, error) {
	return f(ctx, offset, limit)
}

// Requester is the transport boundary: one GraphQL request returning the
// response "data" object. *graphql.Client implements it.
type Requester interface {
	Do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// GraphQLFetcher fetches pages of one collection with a query that takes
// $limit and $offset variables and returns { <collection>: [Item] }.
type GraphQLFetcher struct {
	requester  Requester
	query      string
	collection string
	logger     zerolog.Logger
}

// NewGraphQLFetcher creates a fetcher for collection using query.
func NewGraphQLFetcher(requester Requester, query, collection string) (*GraphQLFetcher, error) {
	if requester == nil {
		return nil, fmt.Errorf("requester is required")
	}
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	return &GraphQLFetcher{
		requester:  requester,
		query:      query,
		collection: collection,
		logger:     log.With().Str("component", "page-fetcher").Str("collection", collection).Logger(),
	}, nil
}

// Collection returns the name of the fetched collection.
func (f *GraphQLFetcher) Collection() string {
	return f.collection
}

// Fetch requests items [offset, offset+limit). Failures keep their
// graphql.ErrorClass so callers can classify them with graphql.ClassOf.
func (f *GraphQLFetcher) Fetch(ctx context.Context, offset, limit int) (Page, error) {
	if offset < 0 || limit <= 0 {
		return Page{}, graphql.ParseError(fmt.Sprintf("build page request (offset=%d, limit=%d)", offset, limit), ErrInvalidRange)
	}

	data, err := f.requester.Do(ctx, f.query, map[string]any{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		return Page{}, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Page{}, graphql.ParseError("decode data object", err)
	}
	raw, ok := envelope[f.collection]
	if !ok {
		return Page{}, graphql.ParseError(fmt.Sprintf("response has no %q field", f.collection), nil)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return Page{}, graphql.ParseError(fmt.Sprintf("%q is not a list", f.collection), err)
	}

	if len(rows) > limit {
		f.logger.Warn().
			Int("limit", limit).
			Int("returned", len(rows)).
			Msg("Backend returned more rows than requested, truncating")
		rows = rows[:limit]
	}

	items := make([]Item, 0, len(rows))
	for i, row := range rows {
		id, err := decodeID(row)
		if err != nil {
			return Page{}, graphql.ParseError(fmt.Sprintf("item %d of %q", offset+i, f.collection), err)
		}
		items = append(items, Item{ID: id, Raw: row})
	}

	f.logger.Debug().
		Int("offset", offset).
		Int("limit", limit).
		Int("returned", len(items)).
		Msg("Fetched page")

	return Page{
		Items:           items,
		RequestedOffset: offset,
		RequestedLimit:  limit,
		ReturnedCount:   len(items),
	}, nil
}

// decodeID reads the "id" field of a row, accepting a JSON string or number.
func decodeID(row json.RawMessage) (string, error) {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(row, &probe); err != nil {
		return "", err
	}
	raw := bytes.TrimSpace(probe.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("missing id")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", errors.New("empty id")
		}
		return s, nil
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return "", fmt.Errorf("id must be a string or integer (got %s)", raw)
	}
	return strconv.FormatInt(n, 10), nil
}
