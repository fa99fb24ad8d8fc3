package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ca-srg/minisearch/internal/render"
	"github.com/ca-srg/minisearch/internal/search"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	queryText    string
	queryOutput  string
	queryVerbose bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one search from the command line",
	Long: `
Run the configured search engine once and print the decoded result.
The same validation, engine limits and statistics apply as for the web server.

Examples:
  minisearch query -q "two sum"
  minisearch query -q "binary tree" --output json
  minisearch query -q "graph" --output yaml
`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "Text query to search for (required)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", outputText, "Output format: text|json|yaml")
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "Log engine invocations to stderr")

	queryCmd.MarkFlagRequired("query")
}

// ResetQueryState restores the query flags to their defaults.
func ResetQueryState() {
	queryText = ""
	queryOutput = outputText
	queryVerbose = false
}

// queryResult is the structured form printed by --output json|yaml.
type queryResult struct {
	Query           string       `json:"query" yaml:"query"`
	Kind            search.Kind  `json:"kind" yaml:"kind"`
	ResultText      string       `json:"resultText" yaml:"resultText"`
	ResultURL       string       `json:"resultURL,omitempty" yaml:"resultURL,omitempty"`
	MultipleResults bool         `json:"multipleResults" yaml:"multipleResults"`
	Entries         []queryEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

type queryEntry struct {
	Kind search.EntryKind `json:"kind" yaml:"kind"`
	Text string           `json:"text" yaml:"text"`
	URL  string           `json:"url,omitempty" yaml:"url,omitempty"`
}

func newQueryResult(query string, result *search.SearchResult) queryResult {
	out := queryResult{
		Query:           query,
		Kind:            result.Kind,
		ResultText:      result.Text,
		ResultURL:       result.URL,
		MultipleResults: result.Kind == search.KindMultipleResults,
	}
	for _, entry := range result.Entries {
		out.Entries = append(out.Entries, queryEntry{Kind: entry.Kind, Text: entry.Text, URL: entry.URL})
	}
	return out
}

func runQuery(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(strings.TrimSpace(queryOutput))
	switch format {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q (want text, json or yaml)", queryOutput)
	}

	// Keep stdout clean for the result; diagnostics only when asked for.
	var logOut io.Writer = io.Discard
	if queryVerbose {
		logOut = os.Stderr
	}

	ctx := context.Background()
	a, err := newApp(ctx, logOut)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	result, err := a.dispatcher.Search(ctx, queryText)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return printQueryResult(os.Stdout, format, search.NormalizeQuery(queryText), result)
}

func printQueryResult(w io.Writer, format, query string, result *search.SearchResult) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(newQueryResult(query, result))
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(newQueryResult(query, result)); err != nil {
			return err
		}
		return encoder.Close()
	default:
		_, err := fmt.Fprintln(w, render.PlainText(result))
		return err
	}
}
