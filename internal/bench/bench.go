// Package bench compares catalog store layouts on one record set: build
// time (including Finalize), album- and track-level lookup time, retained
// heap, and agreement of album-level results across layouts.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/dataset"
)

type Options struct {
	Records    []dataset.Record
	Kinds      []catalog.Kind
	Iterations int
	ProbeAlbum string
	ProbeTrack int
}

// Result holds one layout's measurements.
type Result struct {
	Kind        catalog.Kind
	Construct   time.Duration
	AlbumLookup time.Duration
	TrackLookup time.Duration
	HeapBytes   int64
	Verified    bool
	Mismatch    string
}

type Report struct {
	Records    int
	Iterations int
	ProbeAlbum string
	ProbeTrack int
	Results    []Result
}

// Failed reports whether any layout disagreed with the reference.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if !res.Verified {
			return true
		}
	}
	return false
}

// Run measures every kind in order. The first kind is the reference for
// verification. Layouts are measured one at a time so heap figures do not
// overlap.
func Run(ctx context.Context, opts Options) (*Report, error) {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = catalog.Kinds()
	}
	logger := slog.Default().With("component", "bench")
	report := &Report{
		Records:    len(opts.Records),
		Iterations: opts.Iterations,
		ProbeAlbum: opts.ProbeAlbum,
		ProbeTrack: opts.ProbeTrack,
	}

	var reference []string
	for i, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("benchmark interrupted: %w", err)
		}
		store, construct, heap := build(kind, opts.Records)
		res := Result{Kind: kind, Construct: construct, HeapBytes: heap}

		got := store.Lookup(opts.ProbeAlbum)
		if i == 0 {
			reference = got
			res.Verified, res.Mismatch = distinct(got)
		} else {
			res.Verified, res.Mismatch = sameSet(reference, got)
		}

		res.AlbumLookup = timeLoop(opts.Iterations, func() { _ = store.Lookup(opts.ProbeAlbum) })
		res.TrackLookup = timeLoop(opts.Iterations, func() { _ = store.LookupTrack(opts.ProbeAlbum, opts.ProbeTrack) })
		runtime.KeepAlive(store)

		logger.Info("strategy measured",
			"strategy", kind.String(),
			"construct", res.Construct,
			"album_lookups", res.AlbumLookup,
			"track_lookups", res.TrackLookup,
			"heap_bytes", res.HeapBytes,
			"verified", res.Verified,
		)
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// build constructs and finalizes a store, returning the wall time of the
// construction alone and the live heap it retains.
func build(kind catalog.Kind, records []dataset.Record) (catalog.Store, time.Duration, int64) {
	before := liveHeap()
	start := time.Now()
	store := catalog.New(kind)
	for _, r := range records {
		store.Add(r.Album, r.Track, r.Artist)
	}
	store.Finalize()
	elapsed := time.Since(start)
	after := liveHeap()
	runtime.KeepAlive(store)
	return store, elapsed, max(after-before, 0)
}

func liveHeap() int64 {
	runtime.GC()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapAlloc)
}

func timeLoop(n int, fn func()) time.Duration {
	start := time.Now()
	for i := 0; i < n; i++ {
		fn()
	}
	return time.Since(start)
}

// distinct reports whether an album-level result holds no repeated artist.
func distinct(got []string) (bool, string) {
	sorted := slices.Sorted(slices.Values(got))
	if unique := slices.Compact(slices.Clone(sorted)); len(unique) != len(sorted) {
		return false, fmt.Sprintf("duplicate artists in %v", sorted)
	}
	return true, ""
}

// sameSet reports whether got is duplicate-free and holds the same artists
// as want.
func sameSet(want, got []string) (bool, string) {
	if ok, msg := distinct(got); !ok {
		return false, msg
	}
	w := slices.Compact(slices.Sorted(slices.Values(want)))
	g := slices.Sorted(slices.Values(got))
	if slices.Equal(w, g) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", w, g)
}
