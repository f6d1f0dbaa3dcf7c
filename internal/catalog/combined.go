package catalog

import "slices"

type trackKey struct {
	album string
	track int
}

// combined maintains the album-wide list and the per-track list
// independently. Both are appended to on every Add.
type combined struct {
	albumArtists map[string][]string
	trackArtists map[trackKey][]string
	records      int
}

func newCombined() *combined {
	return &combined{
		albumArtists: make(map[string][]string),
		trackArtists: make(map[trackKey][]string),
	}
}

func (c *combined) Add(album string, track int, artist string) {
	c.albumArtists[album] = append(c.albumArtists[album], artist)
	key := trackKey{album: album, track: track}
	c.trackArtists[key] = append(c.trackArtists[key], artist)
	c.records++
}

func (c *combined) Finalize() {}

// Lookup deduplicates the album list on read; the list itself keeps
// duplicates so Add stays a pair of appends.
func (c *combined) Lookup(album string) []string {
	artists, ok := c.albumArtists[album]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(artists))
	return appendUnique(make([]string, 0, len(artists)), seen, artists)
}

func (c *combined) LookupTrack(album string, track int) []string {
	return slices.Clip(c.trackArtists[trackKey{album: album, track: track}])
}

func (c *combined) Ready() bool { return true }

func (c *combined) Kind() Kind { return KindCombined }

func (c *combined) Stats() Stats {
	return Stats{
		Kind:    KindCombined.String(),
		Albums:  len(c.albumArtists),
		Tracks:  len(c.trackArtists),
		Records: c.records,
		Ready:   true,
	}
}
