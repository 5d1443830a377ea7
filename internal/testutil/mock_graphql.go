// Package testutil provides testing utilities for the catalog client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse overrides the backend's normal behavior for every request
// until ClearResponse is called.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockCatalog is an in-memory GraphQL backend serving book_book and
// author_author collections plus the insert_book_book_one mutation.
type MockCatalog struct {
	server *httptest.Server

	mu        sync.RWMutex
	books     []map[string]any
	authors   []map[string]any
	override  *MockResponse
	delay     time.Duration
	nextID    int
	requests  int
	lastVars  map[string]any
	lastQuery string
	lastHdr   http.Header
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// NewMockCatalog starts a mock GraphQL server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{nextID: 1}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the GraphQL endpoint URL.
func (m *MockCatalog) URL() string {
	return m.server.URL + "/v1/graphql"
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// SeedBooks appends books with the given ids, named "Book <id>".
func (m *MockCatalog) SeedBooks(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.books = append(m.books, book(id, "Book "+id, "1"))
	}
}

// SeedAuthors appends authors with the given ids.
func (m *MockCatalog) SeedAuthors(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.authors = append(m.authors, map[string]any{"id": id, "name": "Author " + id})
	}
}

// PrependBook inserts a book at the head of the collection, as a newest-first
// backend would after a create.
func (m *MockCatalog) PrependBook(id, name, authorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books = append([]map[string]any{book(id, name, authorID)}, m.books...)
}

// BookCount returns the number of stored books.
func (m *MockCatalog) BookCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.books)
}

// SetResponse makes every request return resp until ClearResponse.
func (m *MockCatalog) SetResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = &resp
}

// ClearResponse restores normal behavior.
func (m *MockCatalog) ClearResponse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = nil
}

// SetDelay delays every response.
func (m *MockCatalog) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// GetRequestCount returns the number of requests served.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests
}

// LastVariables returns the variables of the most recent request.
func (m *MockCatalog) LastVariables() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastVars
}

// LastQuery returns the query document of the most recent request.
func (m *MockCatalog) LastQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastHeader returns the headers of the most recent request.
func (m *MockCatalog) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHdr
}

// Reset clears tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = 0
	m.lastVars = nil
	m.lastQuery = ""
	m.lastHdr = nil
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests++
	m.lastVars = req.Variables
	m.lastQuery = req.Query
	m.lastHdr = r.Header.Clone()
	override := m.override
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if override != nil {
		for k, v := range override.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(override.StatusCode)
		w.Write([]byte(override.Body))
		return
	}

	var data map[string]any
	switch {
	case strings.Contains(req.Query, "insert_book_book_one"):
		inserted, err := m.insertBook(req.Variables)
		if err != nil {
			writeJSON(w, map[string]any{"errors": []map[string]any{{"message": err.Error()}}})
			return
		}
		data = map[string]any{"insert_book_book_one": inserted}
	case strings.Contains(req.Query, "author_author"):
		data = map[string]any{"author_author": m.page(m.authorsSnapshot(), req.Variables)}
	case strings.Contains(req.Query, "book_book"):
		data = map[string]any{"book_book": m.page(m.booksSnapshot(), req.Variables)}
	default:
		writeJSON(w, map[string]any{"errors": []map[string]any{{"message": "unknown field"}}})
		return
	}

	writeJSON(w, map[string]any{"data": data})
}

func (m *MockCatalog) booksSnapshot() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]any(nil), m.books...)
}

func (m *MockCatalog) authorsSnapshot() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]any(nil), m.authors...)
}

func (m *MockCatalog) page(rows []map[string]any, vars map[string]any) []map[string]any {
	offset := intVar(vars, "offset", 0)
	limit := intVar(vars, "limit", len(rows))
	if offset >= len(rows) {
		return []map[string]any{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func (m *MockCatalog) insertBook(vars map[string]any) (map[string]any, error) {
	obj, ok := vars["object"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing object variable")
	}
	name, _ := obj["name"].(string)
	authorID := fmt.Sprint(obj["authorId"])

	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("new-%d", m.nextID)
	m.nextID++
	row := book(id, name, authorID)
	m.books = append([]map[string]any{row}, m.books...)
	return row, nil
}

func book(id, name, authorID string) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     name,
		"authorId": authorID,
		"author":   map[string]any{"name": "Author " + authorID},
	}
}

// intVar reads a JSON number variable, which decodes as float64.
func intVar(vars map[string]any, key string, def int) int {
	switch v := vars[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewGraphQLErrorResponse creates a 200 response carrying a GraphQL errors payload.
func NewGraphQLErrorResponse(message string) MockResponse {
	body, _ := json.Marshal(map[string]any{"errors": []map[string]any{{"message": message}}})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewMalformedResponse creates a 200 response whose body is not valid JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": [`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
