// Package pagination drives the lifecycle of one incrementally loaded list.
//
// A Controller owns the accumulated items of a single logical list and exposes
// three commands: LoadInitial on mount, LoadMore as the consumer scrolls near
// the end, and Refresh on pull-to-refresh. Every command issues at most one
// page request through a PageFetcher; results are merged by Merge and
// published as immutable ListState snapshots to subscribers.
//
// Example usage:
//
//	fetcher, _ := pagination.NewGraphQLFetcher(gqlClient, booksQuery, "book_book")
//	ctrl, _ := pagination.New(fetcher, pagination.DefaultConfig())
//	defer ctrl.Close()
//
//	states, unsubscribe := ctrl.Subscribe()
//	defer unsubscribe()
//
//	ctrl.LoadInitial()
//	for state := range states {
//		render(state)
//	}
//
// The controller guarantees:
//   - At most one page request in flight per controller
//   - LoadMore while any load is running is ignored, never queued
//   - Refresh supersedes whatever is running; late responses are dropped
//   - Failures never discard items that were already loaded
//   - No state change after Close
package pagination
