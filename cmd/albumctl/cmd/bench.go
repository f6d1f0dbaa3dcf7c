package cmd

import (
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/bench"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/dataset"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		strategies []string
		albums     int
		tracks     int
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare store layouts on a generated record set",
		Long: `Builds one store per layout from the same generated records and reports
construction time (including finalize), album- and track-level lookup time,
retained heap, and whether every layout returns the same album-level artists
as the first one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			shape := dataset.ShapeFrom(cfg.Dataset)
			if cmd.Flags().Changed("albums") {
				shape.Albums = albums
			}
			if cmd.Flags().Changed("tracks") {
				shape.TracksPerAlbum = tracks
			}
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Bench.LookupIterations
			}

			kinds := make([]catalog.Kind, 0, len(strategies))
			for _, s := range strategies {
				kind, err := catalog.ParseKind(s)
				if err != nil {
					return err
				}
				kinds = append(kinds, kind)
			}

			report, err := bench.Run(cmd.Context(), bench.Options{
				Records:    dataset.Generate(shape),
				Kinds:      kinds,
				Iterations: iterations,
				ProbeAlbum: cfg.Bench.ProbeAlbum,
				ProbeTrack: cfg.Bench.ProbeTrack,
			})
			if err != nil {
				return err
			}
			if err := report.Render(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			if report.Failed() {
				return errors.New("layouts disagree on album-level results")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&strategies, "strategy", "s", nil, "layouts to compare, first is the reference (default all)")
	cmd.Flags().IntVar(&albums, "albums", 0, "albums to generate (default from config)")
	cmd.Flags().IntVar(&tracks, "tracks", 0, "tracks per album (default from config)")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "lookups per measurement (default from config)")
	return cmd
}
