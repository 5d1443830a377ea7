package pagination

import (
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/catalog-client/pkg/graphql"
)

// Item is one record of the list. Only ID is interpreted; the remaining
// fields are kept as the raw JSON object returned by the backend.
type Item struct {
	ID  string
	Raw json.RawMessage
}

// Decode unmarshals the raw record into v.
func (i Item) Decode(v any) error {
	if len(i.Raw) == 0 {
		return fmt.Errorf("item %s has no payload", i.ID)
	}
	return json.Unmarshal(i.Raw, v)
}

// Page is the result of one fetch.
type Page struct {
	Items           []Item
	RequestedOffset int
	RequestedLimit  int
	ReturnedCount   int
}

// Exhausted reports whether the page signals that no further pages exist.
func (p Page) Exhausted() bool {
	return p.ReturnedCount < p.RequestedLimit
}

// Phase is the current load phase of a list.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseLoadingInitial Phase = "loadingInitial"
	PhaseLoadingMore    Phase = "loadingMore"
	PhaseRefreshing     Phase = "refreshing"
	PhaseError          Phase = "error"
)

// Loading reports whether a fetch is outstanding in this phase.
func (p Phase) Loading() bool {
	return p == PhaseLoadingInitial || p == PhaseLoadingMore || p == PhaseRefreshing
}

// Command names a controller operation.
type Command string

const (
	CommandLoadInitial Command = "loadInitial"
	CommandLoadMore    Command = "loadMore"
	CommandRefresh     Command = "refresh"
)

// phase returns the loading phase entered by the command.
func (c Command) phase() Phase {
	switch c {
	case CommandLoadInitial:
		return PhaseLoadingInitial
	case CommandLoadMore:
		return PhaseLoadingMore
	default:
		return PhaseRefreshing
	}
}

// ErrorInfo describes the failure behind PhaseError.
type ErrorInfo struct {
	// Class is the transport, server or parse classification.
	Class graphql.ErrorClass

	// Message is a human-readable description.
	Message string

	// Op is the command whose fetch failed. Consumers typically show a
	// full-screen error for a failed loadInitial and a banner otherwise.
	Op Command

	// Err is the underlying error.
	Err error
}

// ListState is an immutable snapshot of a list.
type ListState struct {
	Items   []Item
	Phase   Phase
	HasMore bool
	Error   *ErrorInfo
}

// IDs returns the item ids in order.
func (s ListState) IDs() []string {
	ids := make([]string, len(s.Items))
	for i, item := range s.Items {
		ids[i] = item.ID
	}
	return ids
}
