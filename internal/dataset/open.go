package dataset

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/albumdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/postgres"
)

// OpenSource builds the record source named by cfg.Catalog.Source. The
// returned close func releases any connection and is never nil.
func OpenSource(ctx context.Context, cfg *config.Config) (Source, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Catalog.Source {
	case config.SourceGenerated:
		return NewSliceSource(Generate(ShapeFrom(cfg.Dataset))), noop, nil
	case config.SourceKafka:
		return NewKafkaSource(kafka.NewDrainer(cfg.Kafka)), noop, nil
	case config.SourcePostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to postgres: %w", err)
		}
		return NewPostgresSource(client), client.Close, nil
	default:
		return nil, noop, apperrors.Newf(apperrors.ErrUnknownSource, http.StatusBadRequest, "unknown record source %q", cfg.Catalog.Source)
	}
}

// ShapeFrom converts the dataset config section.
func ShapeFrom(cfg config.DatasetConfig) Shape {
	return Shape{
		Albums:          cfg.Albums,
		TracksPerAlbum:  cfg.TracksPerAlbum,
		ArtistsPerTrack: cfg.ArtistsPerTrack,
	}
}
