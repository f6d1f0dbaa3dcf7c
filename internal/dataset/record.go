// Package dataset produces and validates the (album, track, artist) records
// that feed a catalog store, and moves them between the generator, Kafka and
// PostgreSQL.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/albumdb/pkg/errors"
)

const (
	maxAlbumLength  = 512
	maxArtistLength = 512
)

// Record is one credit: artist appears on track of album.
type Record struct {
	Album  string `json:"album"`
	Track  int    `json:"track"`
	Artist string `json:"artist"`
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidRecord
}

// Validate checks that a record names an album and an artist within length
// limits. Any integer track is acceptable.
func Validate(r Record) error {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Album) == "" {
		errs["album"] = "album is required"
	} else if len(r.Album) > maxAlbumLength {
		errs["album"] = fmt.Sprintf("album must be at most %d bytes", maxAlbumLength)
	}
	if strings.TrimSpace(r.Artist) == "" {
		errs["artist"] = "artist is required"
	} else if len(r.Artist) > maxArtistLength {
		errs["artist"] = fmt.Sprintf("artist must be at most %d bytes", maxArtistLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
