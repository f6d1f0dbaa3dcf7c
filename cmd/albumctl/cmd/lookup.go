package cmd

import (
	"encoding/json"
	"errors"

	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/dataset"
	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	var (
		album    string
		track    int
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Build a store from the configured source and print one lookup",
		RunE: func(cmd *cobra.Command, args []string) error {
			if album == "" {
				return errors.New("--album is required")
			}
			cfg := configFrom(cmd)
			if strategy == "" {
				strategy = cfg.Catalog.Strategy
			}
			kind, err := catalog.ParseKind(strategy)
			if err != nil {
				return err
			}

			src, closeSource, err := dataset.OpenSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer logClose("record source", closeSource)

			store := catalog.New(kind)
			if _, err := dataset.Load(cmd.Context(), src, store, nil); err != nil {
				return err
			}

			out := map[string]any{"album": album, "strategy": kind.String()}
			var artists []string
			if cmd.Flags().Changed("track") {
				out["track"] = track
				artists = store.LookupTrack(album, track)
			} else {
				artists = store.Lookup(album)
			}
			if artists == nil {
				artists = []string{}
			}
			out["artists"] = artists

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&album, "album", "a", "", "album to look up")
	cmd.Flags().IntVarP(&track, "track", "t", 0, "track number; omit for the whole album")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "store layout (default from config)")
	return cmd
}
