package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/qbz/internal/shared"
	"github.com/desertthunder/qbz/internal/ui"
)

// TrackURL fetches a signed streaming URL for a track.
func (r *Runner) TrackURL(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	client, err := r.streamingProvider(ctx)
	if err != nil {
		return err
	}

	trackID := cmd.String("id")
	formatID := cmd.Int("format")
	if formatID == 0 {
		formatID = client.FormatID()
	}

	stream, err := client.TrackURLFormat(ctx, trackID, formatID)
	if err != nil {
		return fmt.Errorf("failed to fetch stream url: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stream, cmd.Bool("pretty"))
	}

	r.writePlainln("%s", ui.Title(fmt.Sprintf("Track %d", stream.TrackID)))
	r.writePlainln("URL: %s", stream.URL)
	r.writePlainln("Format: %d (%s)", stream.FormatID, stream.MimeType)
	r.writePlainln("Quality: %.1f kHz / %d bit", stream.SamplingRate, stream.BitDepth)
	r.writePlainln("Duration: %s", shared.FormatDuration(stream.Duration))
	return nil
}

// TrackMeta fetches track metadata and caches it locally.
func (r *Runner) TrackMeta(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	client, err := r.provider(ctx)
	if err != nil {
		return err
	}

	track, err := client.Track(ctx, cmd.String("id"))
	if err != nil {
		return fmt.Errorf("failed to fetch track: %w", err)
	}

	r.cacheTracks(*track)

	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}

	r.writePlainln("%s", ui.Title(track.Title))
	if track.Performer != nil {
		r.writePlainln("Artist: %s (id %d)", track.Performer.Name, track.Performer.ID)
	}
	if track.Album != nil {
		r.writePlainln("Album: %s", track.Album.Title)
	}
	r.writePlainln("Duration: %s", shared.FormatDuration(track.Duration))
	return nil
}

// trackCommand handles single-track operations
func trackCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "track",
		Usage: "Track operations",
		Commands: []*cli.Command{
			{
				Name:  "url",
				Usage: "Fetch a signed streaming URL",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Track ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "format",
						Usage: "Format ID (5=MP3, 6=CD, 7=Hi-Res 96k, 27=Hi-Res 192k)",
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
				Action: r.TrackURL,
			},
			{
				Name:  "meta",
				Usage: "Fetch and cache track metadata",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Track ID",
						Required: true,
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
				Action: r.TrackMeta,
			},
		},
	}
}
