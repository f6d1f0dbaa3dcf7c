package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Render writes the report as a table followed by any verification
// failures.
func (r *Report) Render(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("strategy", "construct", "album lookups", "per album", "track lookups", "per track", "heap", "verified")
	for _, res := range r.Results {
		verified := okStyle.Render("OK")
		if !res.Verified {
			verified = failStyle.Render("FAILED")
		}
		t.Row(
			res.Kind.String(),
			res.Construct.Round(time.Microsecond).String(),
			res.AlbumLookup.Round(time.Microsecond).String(),
			perOp(res.AlbumLookup, r.Iterations),
			res.TrackLookup.Round(time.Microsecond).String(),
			perOp(res.TrackLookup, r.Iterations),
			"~"+humanize.Bytes(uint64(res.HeapBytes)),
			verified,
		)
	}

	header := fmt.Sprintf("Records: %s   Lookups: %s x %q (track %d)",
		humanize.Comma(int64(r.Records)),
		humanize.Comma(int64(r.Iterations)),
		r.ProbeAlbum,
		r.ProbeTrack,
	)
	if _, err := fmt.Fprintf(w, "%s\n%s\n%s\n", titleStyle.Render("albumdb benchmark"), header, t.Render()); err != nil {
		return err
	}
	for _, res := range r.Results {
		if res.Mismatch == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", failStyle.Render(res.Kind.String()), res.Mismatch); err != nil {
			return err
		}
	}
	return nil
}

func perOp(total time.Duration, n int) string {
	if n <= 0 {
		return "-"
	}
	return (total / time.Duration(n)).String()
}
