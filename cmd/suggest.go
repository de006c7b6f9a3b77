package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/shared"
	"github.com/desertthunder/qbz/internal/ui"
)

// Suggest requests a recommendation batch seeded from the given track ids
// and prints the suggested tracks.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	seedIDs, err := parseTrackIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(seedIDs) == 0 {
		return fmt.Errorf("%w: at least one seed track id", shared.ErrMissingArgument)
	}

	listened, err := parseTrackIDs(cmd.StringSlice("listened"))
	if err != nil {
		return err
	}

	client, err := r.provider(ctx)
	if err != nil {
		return err
	}

	seedTracks, err := client.Tracks(ctx, seedIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve seed tracks: %w", err)
	}

	seeds := make([]qobuz.SeedTrack, 0, len(seedTracks))
	for _, track := range seedTracks {
		seeds = append(seeds, seedOf(track))
	}

	suggestions, err := client.Suggestions(ctx, listened, seeds, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("suggestion request failed: %w", err)
	}

	tracks, err := client.Tracks(ctx, suggestions.TrackIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve suggested tracks: %w", err)
	}

	r.cacheTracks(tracks...)

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainln("%s", ui.Title("Suggested tracks"))
	if len(tracks) == 0 {
		r.writePlainln("%s", ui.Warn("No suggestions returned."))
		return nil
	}
	r.writePlainln("%s", ui.Help("algorithm: "+suggestions.Algorithm))
	r.writeTrackListing(tracks)
	return nil
}

func parseTrackIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: track id %q is not numeric", shared.ErrInvalidInput, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedOf(track qobuz.Track) qobuz.SeedTrack {
	id := track.ID
	seed := qobuz.SeedTrack{TrackID: &id}
	if track.Performer != nil {
		seed.ArtistID = &track.Performer.ID
	}
	if track.Album != nil {
		if track.Album.Genre != nil {
			seed.GenreID = &track.Album.Genre.ID
		}
		if track.Album.Label != nil {
			seed.LabelID = &track.Album.Label.ID
		}
	}
	return seed
}

func suggestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Fetch recommendations seeded from tracks",
		ArgsUsage: "<track-id>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringSliceFlag{
				Name:  "listened",
				Usage: "Track ids to report as already listened",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of suggestions to return",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Suggest,
	}
}
