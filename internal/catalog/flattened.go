package catalog

import "slices"

// maxDenseTrack bounds the per-album bucket slice. Tracks outside
// [0, maxDenseTrack) go to a sparse map so a stray track number cannot
// allocate a huge slice.
const maxDenseTrack = 1024

// aggregateBucket is the slot holding every artist of the album. Track t is
// stored at slot t+1 so track 0 never aliases the aggregate.
const aggregateBucket = 0

type albumBuckets struct {
	slots  [][]string
	sparse map[int][]string
}

func (b *albumBuckets) add(track int, artist string) {
	if track < 0 || track >= maxDenseTrack {
		if b.sparse == nil {
			b.sparse = make(map[int][]string)
		}
		b.sparse[track] = append(b.sparse[track], artist)
		return
	}
	slot := track + 1
	if slot >= len(b.slots) {
		b.slots = append(b.slots, make([][]string, slot+1-len(b.slots))...)
	}
	b.slots[slot] = append(b.slots[slot], artist)
}

func (b *albumBuckets) track(track int) []string {
	if track < 0 || track >= maxDenseTrack {
		return b.sparse[track]
	}
	if slot := track + 1; slot < len(b.slots) {
		return b.slots[slot]
	}
	return nil
}

func (b *albumBuckets) trackCount() int {
	n := len(b.sparse)
	for _, artists := range b.slots[aggregateBucket+1:] {
		if len(artists) > 0 {
			n++
		}
	}
	return n
}

// flattened keeps both the aggregate and the per-track buckets under one
// album entry, so Add costs a single top-level map lookup. The aggregate
// accumulates duplicates until Finalize.
type flattened struct {
	albums    map[string]*albumBuckets
	records   int
	finalized bool
}

func newFlattened() *flattened {
	return &flattened{albums: make(map[string]*albumBuckets)}
}

func (f *flattened) Add(album string, track int, artist string) {
	b, ok := f.albums[album]
	if !ok {
		b = &albumBuckets{slots: make([][]string, 1, 8)}
		f.albums[album] = b
	}
	b.slots[aggregateBucket] = append(b.slots[aggregateBucket], artist)
	b.add(track, artist)
	f.records++
	f.finalized = false
}

// Finalize deduplicates every album's aggregate bucket in place.
func (f *flattened) Finalize() {
	if f.finalized {
		return
	}
	for _, b := range f.albums {
		b.slots[aggregateBucket] = dedupeInPlace(b.slots[aggregateBucket])
	}
	f.finalized = true
}

// Lookup returns the aggregate bucket as stored. Before Finalize it may
// contain duplicates; see Store.
func (f *flattened) Lookup(album string) []string {
	b, ok := f.albums[album]
	if !ok {
		return nil
	}
	return slices.Clip(b.slots[aggregateBucket])
}

func (f *flattened) LookupTrack(album string, track int) []string {
	b, ok := f.albums[album]
	if !ok {
		return nil
	}
	return slices.Clip(b.track(track))
}

func (f *flattened) Ready() bool { return f.finalized }

func (f *flattened) Kind() Kind { return KindFlattened }

func (f *flattened) Stats() Stats {
	st := Stats{
		Kind:    KindFlattened.String(),
		Albums:  len(f.albums),
		Records: f.records,
		Ready:   f.finalized,
	}
	for _, b := range f.albums {
		st.Tracks += b.trackCount()
	}
	return st
}
