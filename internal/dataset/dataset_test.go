package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/albumdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr []string
	}{
		{"valid", Record{"Album 0", 0, "Artist 0"}, nil},
		{"negative track is fine", Record{"Album 0", -3, "Artist 0"}, nil},
		{"missing album", Record{" ", 1, "Artist 0"}, []string{"album"}},
		{"missing both", Record{"", 1, ""}, []string{"album", "artist"}},
		{"artist too long", Record{"Album 0", 1, strings.Repeat("x", maxArtistLength+1)}, []string{"artist"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.record)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)
			for _, field := range tt.wantErr {
				assert.Contains(t, verr.Fields, field)
			}
			assert.Len(t, verr.Fields, len(tt.wantErr))
		})
	}
}

func TestGenerate(t *testing.T) {
	records := Generate(Shape{Albums: 100, TracksPerAlbum: 10})
	require.Len(t, records, 1000)
	assert.Equal(t, Record{"Album 0", 0, "Artist 0"}, records[0])
	assert.Equal(t, Record{"Album 99", 9, "Artist 9"}, records[999])

	fanned := Generate(Shape{Albums: 1, TracksPerAlbum: 2, ArtistsPerTrack: 2})
	assert.Equal(t, []Record{
		{"Album 0", 0, "Artist 0"},
		{"Album 0", 0, "Artist 1"},
		{"Album 0", 1, "Artist 1"},
		{"Album 0", 1, "Artist 2"},
	}, fanned)

	assert.Empty(t, Generate(Shape{}))
}

func TestLoad(t *testing.T) {
	records := append(Generate(Shape{Albums: 3, TracksPerAlbum: 4}),
		Record{"", 1, "Artist 0"},
		Record{"Album 0", 1, "Artist 0"},
	)
	m := metrics.New(prometheus.NewRegistry())

	for _, kind := range catalog.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			store := catalog.New(kind)
			res, err := Load(context.Background(), NewSliceSource(records), store, m)
			require.NoError(t, err)

			assert.Equal(t, 13, res.Added)
			assert.Equal(t, 1, res.Rejected)
			assert.True(t, store.Ready())
			assert.ElementsMatch(t, []string{"Artist 0", "Artist 1", "Artist 2", "Artist 3"}, store.Lookup("Album 0"))
			assert.Equal(t, []string{"Artist 1", "Artist 0"}, store.LookupTrack("Album 0", 1))
		})
	}
	assert.Equal(t, 39.0, testutil.ToFloat64(m.RecordsIngestedTotal.WithLabelValues("generated", "added")))
}

func TestLoad_Fingerprint(t *testing.T) {
	load := func(records []Record) string {
		t.Helper()
		res, err := Load(context.Background(), NewSliceSource(records), catalog.New(catalog.KindCombined), nil)
		require.NoError(t, err)
		require.NotEmpty(t, res.Fingerprint)
		return res.Fingerprint
	}

	base := Generate(Shape{Albums: 2, TracksPerAlbum: 3})
	assert.Equal(t, load(base), load(Generate(Shape{Albums: 2, TracksPerAlbum: 3})))

	changed := append([]Record(nil), base...)
	changed[len(changed)-1].Artist = "Artist 99"
	assert.NotEqual(t, load(base), load(changed))

	// Rejected records do not contribute.
	assert.Equal(t, load(base), load(append(append([]Record(nil), base...), Record{"", 0, "x"})))

	// Field boundaries are part of the hash.
	assert.NotEqual(t, load([]Record{{"A", 12, "B"}}), load([]Record{{"A1", 2, "B"}}))
}

func TestLoad_AllRejected(t *testing.T) {
	store := catalog.New(catalog.KindNested)
	_, err := Load(context.Background(), NewSliceSource([]Record{{"", 0, ""}}), store, nil)
	assert.Error(t, err)
}

func TestLoad_SourceError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := catalog.New(catalog.KindFlattened)
	_, err := Load(ctx, NewSliceSource(Generate(Shape{Albums: 1, TracksPerAlbum: 1})), store, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.Ready())
}

type recordingPublisher struct {
	events []kafka.Event
	err    error
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.events = append(p.events, events...)
	return p.err
}

func TestPublishRecords(t *testing.T) {
	p := &recordingPublisher{}
	records := Generate(Shape{Albums: 2, TracksPerAlbum: 2})
	require.NoError(t, PublishRecords(context.Background(), p, records))

	require.Len(t, p.events, 4)
	assert.Equal(t, "Album 1", p.events[3].Key)
	assert.Equal(t, records[3], p.events[3].Value)

	assert.Error(t, PublishRecords(context.Background(), p, nil))

	p.err = errors.New("broker down")
	assert.ErrorContains(t, PublishRecords(context.Background(), p, records), "broker down")
}

func TestDecodeRecords(t *testing.T) {
	var got []Record
	handler := decodeRecords(testLogger(), func(r Record) error {
		got = append(got, r)
		return nil
	})

	require.NoError(t, handler(context.Background(), []byte("Album 1"), []byte(`{"album":"Album 1","track":2,"artist":"Artist 2"}`)))
	require.NoError(t, handler(context.Background(), []byte("Album 1"), []byte(`not json`)))
	assert.Equal(t, []Record{{"Album 1", 2, "Artist 2"}}, got)
}

func TestPostgresStatements(t *testing.T) {
	assert.Equal(t, `SELECT album, track, artist FROM "album_credits" ORDER BY id`, selectQuery("album_credits"))
	assert.Contains(t, schemaStatement(`odd"name`), `"odd""name"`)
	// Record.Track is a Go int, so the column must hold any int64.
	assert.Contains(t, schemaStatement("album_credits"), "track  BIGINT  NOT NULL")
}

func TestOpenSource(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset = config.DatasetConfig{Albums: 2, TracksPerAlbum: 3}

	src, closeFn, err := OpenSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "generated", src.Name())

	n := 0
	require.NoError(t, src.Each(context.Background(), func(Record) error { n++; return nil }))
	assert.Equal(t, 6, n)

	cfg.Catalog.Source = config.SourceKafka
	src, _, err = OpenSource(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "kafka", src.Name())

	cfg.Catalog.Source = "s3"
	_, closeFn, err = OpenSource(context.Background(), cfg)
	assert.ErrorIs(t, err, apperrors.ErrUnknownSource)
	assert.NotNil(t, closeFn)
}
