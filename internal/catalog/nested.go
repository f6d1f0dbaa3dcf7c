package catalog

import (
	"maps"
	"slices"
)

// nested stores album -> track -> artists and computes album-wide results on
// every query.
type nested struct {
	albums  map[string]map[int][]string
	records int
}

func newNested() *nested {
	return &nested{albums: make(map[string]map[int][]string)}
}

func (n *nested) Add(album string, track int, artist string) {
	tracks, ok := n.albums[album]
	if !ok {
		tracks = make(map[int][]string)
		n.albums[album] = tracks
	}
	tracks[track] = append(tracks[track], artist)
	n.records++
}

func (n *nested) Finalize() {}

// Lookup walks tracks in ascending order so repeated queries return the same
// ordering.
func (n *nested) Lookup(album string) []string {
	tracks, ok := n.albums[album]
	if !ok {
		return nil
	}
	total := 0
	for _, artists := range tracks {
		total += len(artists)
	}
	seen := make(map[string]struct{}, total)
	out := make([]string, 0, total)
	for _, track := range slices.Sorted(maps.Keys(tracks)) {
		out = appendUnique(out, seen, tracks[track])
	}
	return out
}

func (n *nested) LookupTrack(album string, track int) []string {
	tracks, ok := n.albums[album]
	if !ok {
		return nil
	}
	return slices.Clip(tracks[track])
}

func (n *nested) Ready() bool { return true }

func (n *nested) Kind() Kind { return KindNested }

func (n *nested) Stats() Stats {
	st := Stats{
		Kind:    KindNested.String(),
		Albums:  len(n.albums),
		Records: n.records,
		Ready:   true,
	}
	for _, tracks := range n.albums {
		st.Tracks += len(tracks)
	}
	return st
}
