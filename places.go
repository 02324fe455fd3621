package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"lovelink/pkg/catalog"
	"lovelink/pkg/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type placesOptions struct {
	score         int
	season        string
	timeOfDay     string
	infinite      bool
	infiniteCount int
}

func newPlacesCommand() *cobra.Command {
	var opts placesOptions
	cmd := &cobra.Command{
		Use:   "places",
		Short: "List the date places open at a given score, season and time of day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			return listPlaces(cmd.OutOrStdout(), c, opts, time.Now().In(loc))
		},
	}
	cmd.Flags().IntVar(&opts.score, "score", 0, "intimacy score")
	cmd.Flags().StringVar(&opts.season, "season", "", "spring, summer, autumn, winter or all (default: current)")
	cmd.Flags().StringVar(&opts.timeOfDay, "time", "", "morning, afternoon, evening, night or anytime (default: current)")
	cmd.Flags().BoolVar(&opts.infinite, "infinite", false, "include infinite-mode places")
	cmd.Flags().IntVar(&opts.infiniteCount, "infinite-count", 0, "infinite dates taken so far")
	return cmd
}

func parseSeason(s string, now time.Time) (catalog.Season, error) {
	switch season := catalog.Season(strings.ToLower(strings.TrimSpace(s))); season {
	case "":
		return catalog.SeasonAt(now), nil
	case catalog.Spring, catalog.Summer, catalog.Autumn, catalog.Winter, catalog.AllSeasons:
		return season, nil
	default:
		return "", fmt.Errorf("unknown season %q", s)
	}
}

func parseTimeOfDay(s string, now time.Time) (catalog.TimeOfDay, error) {
	switch tod := catalog.TimeOfDay(strings.ToLower(strings.TrimSpace(s))); tod {
	case "":
		return catalog.TimeOfDayAt(now), nil
	case catalog.Morning, catalog.Afternoon, catalog.Evening, catalog.Night, catalog.Anytime:
		return tod, nil
	default:
		return "", fmt.Errorf("unknown time of day %q", s)
	}
}

func listPlaces(w io.Writer, c *catalog.Catalog, opts placesOptions, now time.Time) error {
	season, err := parseSeason(opts.season, now)
	if err != nil {
		return err
	}
	tod, err := parseTimeOfDay(opts.timeOfDay, now)
	if err != nil {
		return err
	}

	view := catalog.View{
		Score:                opts.score,
		InfiniteModeUnlocked: opts.infinite,
		InfiniteDateCount:    opts.infiniteCount,
	}
	places := c.Available(view, season, tod)

	fmt.Fprintf(w, "%d places at score %s (%s, %s)\n", len(places), humanize.Comma(int64(opts.score)), season, tod)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tNEEDS\tBONUS\tDURATION")
	for _, p := range places {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t+%d\t%dm\n", p.ID, p.DisplayName, p.Category, humanize.Comma(int64(p.RequiredIntimacy)), p.IntimacyBonus, p.DurationMinutes)
	}
	return tw.Flush()
}
