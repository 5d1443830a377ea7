package pagination

// MergeMode selects how a fetched page combines with the accumulated list.
type MergeMode int

const (
	// MergeReplace discards the existing list (loadInitial, refresh).
	MergeReplace MergeMode = iota

	// MergeAppend adds unseen items after the existing list (loadMore).
	MergeAppend
)

// String returns the mode name.
func (m MergeMode) String() string {
	switch m {
	case MergeReplace:
		return "replace"
	case MergeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Merge combines existing with page according to mode and returns a new slice;
// neither input is modified.
//
// Ids stay unique in the result: in append mode an incoming item whose id is
// already present is dropped, so re-fetching an overlapping page neither
// duplicates nor reorders existing entries. A page that repeats an id keeps
// only its first occurrence.
func Merge(existing []Item, page Page, mode MergeMode) []Item {
	var base []Item
	if mode == MergeAppend {
		base = existing
	}

	out := make([]Item, 0, len(base)+len(page.Items))
	seen := make(map[string]struct{}, len(base)+len(page.Items))
	for _, item := range base {
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	for _, item := range page.Items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
