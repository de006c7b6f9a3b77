package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/qbz/internal/formatter"
	"github.com/desertthunder/qbz/internal/ui"
)

// FavoritesList lists the account's favorite tracks and caches them.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	client, err := r.provider(ctx)
	if err != nil {
		return err
	}

	tracks, err := client.FavoriteTracks(ctx, cmd.Int("offset"), cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch favorites: %w", err)
	}

	r.cacheTracks(tracks...)

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainln("%s", ui.Title("Favorite tracks"))
	if len(tracks) == 0 {
		r.writePlainln("%s", ui.Help("No favorites yet."))
		return nil
	}
	r.writeTrackListing(tracks)
	return nil
}

// FavoritesExport writes the favorites listing to a file in the requested format.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	client, err := r.provider(ctx)
	if err != nil {
		return err
	}

	tracks, err := client.FavoriteTracks(ctx, cmd.Int("offset"), cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch favorites: %w", err)
	}

	r.cacheTracks(tracks...)

	listing := &formatter.Listing{Title: "Favorites", Tracks: tracks}
	format := cmd.String("format")
	output := cmd.String("output")

	if err := formatter.WriteExport(listing, format, output); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("%s", ui.OK("✓ Favorites exported"))
	r.writePlainln("File: %s", output)
	r.writePlainln("Tracks: %d", len(tracks))
	return nil
}

// favoritesCommand handles favorite track listings and exports
func favoritesCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
	offsetFlag := &cli.IntFlag{
		Name:  "offset",
		Usage: "Pagination offset",
	}
	limitFlag := &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of tracks to return",
		Value: 50,
	}

	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Favorite track operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorite tracks",
				Flags: []cli.Flag{
					configFlag, offsetFlag, limitFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.FavoritesList,
			},
			{
				Name:  "export",
				Usage: "Export favorite tracks to a file",
				Flags: []cli.Flag{
					configFlag, offsetFlag, limitFlag,
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown or text",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file path",
						Required: true,
					},
				},
				Action: r.FavoritesExport,
			},
		},
	}
}
