package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tidbyt.dev/combine/config"
)

var rootCmd = &cobra.Command{
	Use:          "gtfs-combine",
	Short:        "Combines GTFS feeds",
	Long:         "Combines several GTFS feeds into a single feed for one service date",
	SilenceUsage: true,
}

var (
	configPath    string
	gtfsDir       string
	outputDir     string
	serviceDate   int
	workers       int
	sqlitePath    string
	postgresConn  string
	feedURLs      []string
	sharedHeaders []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&gtfsDir, "gtfs-dir", "g", "", "Directory of feeds, one subdirectory or .zip per feed")
	rootCmd.PersistentFlags().IntVarP(&serviceDate, "service-date", "s", 0, "Service date as YYYYMMDD")
	rootCmd.PersistentFlags().StringSliceVarP(
		&feedURLs,
		"feed-url",
		"",
		[]string{},
		"Remote feed on form <name>=<url>",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&sharedHeaders,
		"header",
		"",
		[]string{},
		"HTTP header for remote feeds, on form <key>:<value>",
	)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(feedsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseHeaders(headers []string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("'%s' is not on form <key>:<value>", header)
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}

func parseFeedURLs(feeds []string) ([]config.RemoteFeed, error) {
	parsed := []config.RemoteFeed{}
	for _, feed := range feeds {
		parts := strings.SplitN(feed, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("'%s' is not on form <name>=<url>", feed)
		}
		parsed = append(parsed, config.RemoteFeed{
			Name: strings.TrimSpace(parts[0]),
			URL:  strings.TrimSpace(parts[1]),
		})
	}
	return parsed, nil
}
