package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/catalog-client/pkg/graphql"
)

type stubRequester struct {
	data      string
	err       error
	query     string
	variables map[string]any
}

func (s *stubRequester) Do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	s.query = query
	s.variables = variables
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.data), nil
}

func TestNewGraphQLFetcher_Validation(t *testing.T) {
	req := &stubRequester{}

	_, err := NewGraphQLFetcher(nil, "query", "book_book")
	assert.EqualError(t, err, "requester is required")

	_, err = NewGraphQLFetcher(req, "", "book_book")
	assert.EqualError(t, err, "query is required")

	_, err = NewGraphQLFetcher(req, "query", "")
	assert.EqualError(t, err, "collection is required")

	f, err := NewGraphQLFetcher(req, "query", "book_book")
	require.NoError(t, err)
	assert.Equal(t, "book_book", f.Collection())
}

func TestGraphQLFetcher_Fetch(t *testing.T) {
	req := &stubRequester{data: `{"book_book": [{"id": "a", "name": "Dune"}, {"id": 42, "name": "Emma"}]}`}
	f, err := NewGraphQLFetcher(req, "query Books { book_book { id } }", "book_book")
	require.NoError(t, err)

	page, err := f.Fetch(context.Background(), 4, 2)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"limit": 2, "offset": 4}, req.variables)
	assert.Equal(t, 4, page.RequestedOffset)
	assert.Equal(t, 2, page.RequestedLimit)
	assert.Equal(t, 2, page.ReturnedCount)
	assert.Equal(t, []string{"a", "42"}, ids(page.Items))

	var book struct {
		Name string `json:"name"`
	}
	require.NoError(t, page.Items[1].Decode(&book))
	assert.Equal(t, "Emma", book.Name)
}

func TestGraphQLFetcher_TruncatesOversizedPage(t *testing.T) {
	req := &stubRequester{data: `{"book_book": [{"id": "a"}, {"id": "b"}, {"id": "c"}]}`}
	f, err := NewGraphQLFetcher(req, "query", "book_book")
	require.NoError(t, err)

	page, err := f.Fetch(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.ReturnedCount)
	assert.Equal(t, []string{"a", "b"}, ids(page.Items))
}

func TestGraphQLFetcher_Errors(t *testing.T) {
	transportErr := &graphql.Error{Class: graphql.ErrorClassTransport, Message: "send request"}

	tests := []struct {
		name      string
		req       *stubRequester
		offset    int
		limit     int
		wantClass graphql.ErrorClass
		wantIs    error
	}{
		{
			name:      "negative offset",
			req:       &stubRequester{data: `{}`},
			offset:    -1,
			limit:     2,
			wantIs:    ErrInvalidRange,
			wantClass: graphql.ErrorClassParse,
		},
		{
			name:      "zero limit",
			req:       &stubRequester{data: `{}`},
			offset:    0,
			limit:     0,
			wantIs:    ErrInvalidRange,
			wantClass: graphql.ErrorClassParse,
		},
		{
			name:      "transport failure passes through",
			req:       &stubRequester{err: transportErr},
			limit:     2,
			wantClass: graphql.ErrorClassTransport,
		},
		{
			name:      "missing collection field",
			req:       &stubRequester{data: `{"author_author": []}`},
			limit:     2,
			wantClass: graphql.ErrorClassParse,
		},
		{
			name:      "collection is not a list",
			req:       &stubRequester{data: `{"book_book": {"id": "a"}}`},
			limit:     2,
			wantClass: graphql.ErrorClassParse,
		},
		{
			name:      "item without id",
			req:       &stubRequester{data: `{"book_book": [{"name": "x"}]}`},
			limit:     2,
			wantClass: graphql.ErrorClassParse,
		},
		{
			name:      "item with non-integer id",
			req:       &stubRequester{data: `{"book_book": [{"id": 1.5}]}`},
			limit:     2,
			wantClass: graphql.ErrorClassParse,
		},
		{
			name:      "data is not an object",
			req:       &stubRequester{data: `[]`},
			limit:     2,
			wantClass: graphql.ErrorClassParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewGraphQLFetcher(tt.req, "query", "book_book")
			require.NoError(t, err)

			_, err = f.Fetch(context.Background(), tt.offset, tt.limit)
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs), "expected %v, got %v", tt.wantIs, err)
			}
			if tt.wantClass != "" {
				assert.Equal(t, tt.wantClass, graphql.ClassOf(err))
			}
		})
	}
}

func TestDecodeID(t *testing.T) {
	tests := []struct {
		row     string
		want    string
		wantErr bool
	}{
		{`{"id": "b-1"}`, "b-1", false},
		{`{"id": 17}`, "17", false},
		{`{"id": ""}`, "", true},
		{`{"id": null}`, "", true},
		{`{"id": true}`, "", true},
		{`{}`, "", true},
	}

	for _, tt := range tests {
		got, err := decodeID(json.RawMessage(tt.row))
		if (err != nil) != tt.wantErr {
			t.Errorf("decodeID(%s) error = %v, wantErr %v", tt.row, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("decodeID(%s) = %q, want %q", tt.row, got, tt.want)
		}
	}
}
