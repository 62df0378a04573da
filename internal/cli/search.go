package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wingetmirror/pkg/match"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
	"github.com/glorpus-work/wingetmirror/pkg/search"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	var (
		matchType string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the local repository",
		Long: `Search the local repository the same way package clients do. The query is
matched against package identifier, name, publisher and tags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], match.Type(matchType), limit)
		},
	}

	cmd.Flags().StringVar(&matchType, "match", string(match.Substring), "match type (Exact, CaseInsensitive, StartsWith, Substring, Wildcard, Fuzzy, FuzzySubstring)")
	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultSearchLimit, "maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, matchType match.Type, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := repository.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	results := search.Search(store.Snapshot(), search.Request{
		Query:          &search.Criterion{Keyword: &query, MatchType: matchType},
		MaximumResults: limit,
	})

	out := cmd.OutOrStdout()
	if isJSON(cfg) {
		return printJSON(out, results)
	}
	if len(results) == 0 {
		_, _ = fmt.Fprintf(out, "No packages found matching '%s'\n", query)
		return nil
	}

	tw := newTable(out, "ID", "NAME", "PUBLISHER", "VERSIONS")
	for _, r := range results {
		versions := make([]string, 0, len(r.Versions))
		for _, v := range r.Versions {
			versions = append(versions, v.PackageVersion)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.PackageIdentifier, truncate(r.PackageName, MaxNameLength), r.Publisher, strings.Join(versions, ", "))
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(out, "\nFound %d package(s) matching '%s'\n", len(results), query)
	return nil
}
