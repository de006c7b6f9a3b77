package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/qbz/internal/shared"
	"github.com/desertthunder/qbz/internal/ui"
)

// Search queries the catalog and caches the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	client, err := r.provider(ctx)
	if err != nil {
		return err
	}

	tracks, err := client.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	r.cacheTracks(tracks...)

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainln("%s", ui.Title(fmt.Sprintf("Results for %q", query)))
	if len(tracks) == 0 {
		r.writePlainln("%s", ui.Help("No tracks found."))
		return nil
	}
	r.writeTrackListing(tracks)
	return nil
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog for tracks",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results to return",
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
		Action: r.Search,
	}
}
