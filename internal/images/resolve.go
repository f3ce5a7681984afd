package images

import "fmt"

// Mode selects how a request's image sources combine with the stored set.
type Mode int

const (
	// ModeAppend keeps the stored images and adds the request's sources.
	ModeAppend Mode = iota
	// ModeReplaceAll discards the stored images in favor of the request's
	// sources.
	ModeReplaceAll
)

// Removal asks for one image to be dropped from the stored set. Exact
// removals match by byte-equal string; otherwise the reference is matched
// through Matcher.Same.
type Removal struct {
	Ref   string
	Exact bool
}

// Result carries the candidate image list and the stored entries this request
// displaced, in match order. Displaced entries feed orphan cleanup after the
// record write.
type Result struct {
	Candidate []string
	Removed   []string
}

// Resolve computes the next image list from the stored list, newly uploaded
// URLs, an optional client-supplied URL list and removal directives.
// clientSet distinguishes an absent client list from an explicitly empty one.
//
// Order of operations is fixed: mode seeds the working list, uploads append
// in acceptance order, then the client list applies. In ReplaceAll mode with
// no uploads the client list replaces the working set wholesale; with uploads
// present, uploads take precedence and client URLs append after. Removal
// directives match against the stored list as it existed before this call and
// every directive must match, otherwise the whole resolve fails with
// ErrImageNotFound. Deduplication happens downstream.
func (m Matcher) Resolve(current, uploaded, clientSupplied []string, clientSet bool, mode Mode, removals []Removal) (Result, error) {
	working := make([]string, 0, len(current)+len(uploaded)+len(clientSupplied))
	if mode == ModeAppend {
		working = append(working, current...)
	}
	working = append(working, uploaded...)
	if clientSet {
		if mode == ModeReplaceAll && len(uploaded) == 0 {
			working = append(working[:0], clientSupplied...)
		} else {
			working = append(working, clientSupplied...)
		}
	}

	removed := make([]string, 0, len(removals))
	drop := make(map[string]struct{}, len(removals))
	for _, r := range removals {
		match, ok := r.find(current, m)
		if !ok {
			return Result{}, fmt.Errorf("%q: %w", r.Ref, ErrImageNotFound)
		}
		if _, dup := drop[match]; !dup {
			removed = append(removed, match)
			drop[match] = struct{}{}
		}
	}
	if len(drop) > 0 {
		kept := working[:0]
		for _, ref := range working {
			if _, gone := drop[ref]; gone {
				continue
			}
			kept = append(kept, ref)
		}
		working = kept
	}

	if mode == ModeReplaceAll {
		inCandidate := make(map[string]struct{}, len(working))
		for _, ref := range working {
			inCandidate[ref] = struct{}{}
		}
		for _, cur := range current {
			if _, keep := inCandidate[cur]; keep {
				continue
			}
			if _, seen := drop[cur]; seen {
				continue
			}
			drop[cur] = struct{}{}
			removed = append(removed, cur)
		}
	}

	return Result{Candidate: working, Removed: removed}, nil
}

func (r Removal) find(current []string, m Matcher) (string, bool) {
	for _, cur := range current {
		if r.Exact {
			if cur == r.Ref {
				return cur, true
			}
			continue
		}
		if m.Same(cur, r.Ref) {
			return cur, true
		}
	}
	return "", false
}
