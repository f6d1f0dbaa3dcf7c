package dataset

import "fmt"

// Shape sizes a generated record set.
type Shape struct {
	Albums          int
	TracksPerAlbum  int
	ArtistsPerTrack int
}

// Generate returns a deterministic record set: albums "Album 0".."Album n-1",
// tracks 0..TracksPerAlbum-1, and for track j the artists "Artist j",
// "Artist j+1", ... up to ArtistsPerTrack of them. Every album therefore has
// the same artist roster, with neighbouring tracks sharing artists when
// ArtistsPerTrack > 1.
func Generate(shape Shape) []Record {
	perTrack := max(shape.ArtistsPerTrack, 1)
	if shape.Albums <= 0 || shape.TracksPerAlbum <= 0 {
		return nil
	}
	artists := make([]string, shape.TracksPerAlbum+perTrack)
	for i := range artists {
		artists[i] = fmt.Sprintf("Artist %d", i)
	}
	out := make([]Record, 0, shape.Albums*shape.TracksPerAlbum*perTrack)
	for i := 0; i < shape.Albums; i++ {
		album := fmt.Sprintf("Album %d", i)
		for j := 0; j < shape.TracksPerAlbum; j++ {
			for k := 0; k < perTrack; k++ {
				out = append(out, Record{Album: album, Track: j, Artist: artists[j+k]})
			}
		}
	}
	return out
}
