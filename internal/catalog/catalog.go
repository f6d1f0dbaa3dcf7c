// Package catalog implements an in-memory album/track/artist association
// store. Three layouts are available behind the same Store contract; they
// differ only in how much work happens at ingestion time versus query time:
//
//   - KindCombined keeps an album-wide artist list and a per-(album, track)
//     list side by side, updated on every Add.
//   - KindNested keeps a two-level album -> track -> artists map and derives
//     album-wide results on every query.
//   - KindFlattened keeps one bucket slice per album (aggregate first, then
//     per-track buckets) and defers aggregate deduplication to Finalize.
//
// Stores are single-writer. Once construction (and Finalize) has completed,
// concurrent lookups are safe because nothing mutates the store anymore.
package catalog

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/albumdb/pkg/errors"
)

// Kind selects a store layout.
type Kind int

const (
	KindCombined Kind = iota
	KindNested
	KindFlattened
)

var kindNames = map[Kind]string{
	KindCombined:  "combined",
	KindNested:    "nested",
	KindFlattened: "flattened",
}

// Kinds returns every layout in a stable order.
func Kinds() []Kind {
	return []Kind{KindCombined, KindNested, KindFlattened}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a layout name (case-insensitive) to its Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, apperrors.Newf(apperrors.ErrUnknownStrategy, http.StatusBadRequest, "unknown store strategy %q", s)
}

// Store is the contract shared by every layout.
//
// Lookup must only be called on a store whose Ready reports true. For
// KindFlattened that means Finalize has run after the last Add; calling
// Lookup earlier returns the raw, non-deduplicated aggregate. The store does
// not repair this on read.
type Store interface {
	// Add records that artist appears on the given track of album. It never
	// fails; repeated triples are kept.
	Add(album string, track int, artist string)
	// Finalize completes any aggregate work deferred by Add. Safe to call
	// more than once.
	Finalize()
	// Lookup returns the distinct artists across every track of album, or
	// nil when the album is unknown. Order is not significant, and the
	// returned slice may be shared with the store.
	Lookup(album string) []string
	// LookupTrack returns the artists added for (album, track) in insertion
	// order, duplicates included, or nil when the pair is unknown. The
	// returned slice is shared with the store and must not be modified.
	LookupTrack(album string, track int) []string
	// Ready reports whether album-level lookups are currently valid.
	Ready() bool
	Kind() Kind
	Stats() Stats
}

// Stats summarises the contents of a store.
type Stats struct {
	Kind    string `json:"strategy"`
	Albums  int    `json:"albums"`
	Tracks  int    `json:"tracks"`
	Records int    `json:"records"`
	Ready   bool   `json:"ready"`
}

// New returns an empty store of the given layout. Unknown kinds fall back to
// KindCombined.
func New(kind Kind) Store {
	switch kind {
	case KindNested:
		return newNested()
	case KindFlattened:
		return newFlattened()
	default:
		return newCombined()
	}
}

// appendUnique appends each value of src not yet in seen to dst.
func appendUnique(dst []string, seen map[string]struct{}, src []string) []string {
	for _, v := range src {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

// dedupeInPlace removes repeated values from s, keeping first occurrences,
// and reuses s's backing array.
func dedupeInPlace(s []string) []string {
	if len(s) < 2 {
		return s
	}
	seen := make(map[string]struct{}, len(s))
	out := s[:0]
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	clear(s[len(out):])
	return out
}
