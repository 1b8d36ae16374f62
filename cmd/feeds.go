package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tidbyt.dev/combine"
	"tidbyt.dev/combine/report"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List feeds and what they run on the service date",
	RunE:  feeds,
}

func feeds(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.GTFSDir == "" && len(cfg.Feeds) == 0 {
		return fmt.Errorf("no feeds configured")
	}

	date, err := combine.ParseServiceDate(cfg.ServiceDate)
	if err != nil {
		return err
	}

	sources, err := feedSources(cfg, report.Nop)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEED\tAGENCIES\tROUTES\tTRIPS\tSERVICES\tTRIPS ON DATE")
	for _, src := range sources {
		feed, err := src.Load(cmd.Context())
		if err != nil {
			return err
		}

		active := combine.ActiveServices(feed.Calendars, feed.CalendarDates, date.Weekday(), combine.DateInt(date))
		running := 0
		for _, t := range feed.Trips {
			if active[t.ServiceID] {
				running++
			}
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
			src.Name(),
			len(feed.Agencies),
			len(feed.Routes),
			len(feed.Trips),
			len(active),
			running,
		)
	}

	return w.Flush()
}
