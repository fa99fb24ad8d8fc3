package search

import (
	"regexp"
	"strings"
)

const (
	// Separator splits the engine output into body and flag.
	Separator = "|"
	// MultipleResultsFlag marks a body holding newline-separated entries.
	MultipleResultsFlag = "MULTIPLE_RESULTS"
	// NoMatchesPrefix starts the body when nothing matched.
	NoMatchesPrefix = "No matches found"

	solutionPrefix   = "Solution:"
	matchScorePrefix = "Match score:"
	linkStart        = "http"
)

var lineRefPattern = regexp.MustCompile(`^Line \d+:`)

// Kind tags the variant of a SearchResult
type Kind string

const (
	KindNoMatches       Kind = "no_matches"
	KindMultipleResults Kind = "multiple"
	KindSingleResult    Kind = "single"
)

// SearchResult is the decoded engine output.
//
// For KindNoMatches Text holds the engine's message; for KindSingleResult Text
// is the answer and URL an optional reference link; for KindMultipleResults
// Text is the raw body and Entries its classified lines.
type SearchResult struct {
	Kind    Kind
	Text    string
	URL     string
	Entries []ResultEntry
}

// EntryKind tags a line of a multiple-results body
type EntryKind string

const (
	EntryPlain      EntryKind = "plain"
	EntrySolution   EntryKind = "solution"
	EntryMatchScore EntryKind = "match_score"
	EntryLineRef    EntryKind = "line_ref"
)

// ResultEntry is one line of a multiple-results body.
// Label and URL are only set for EntrySolution: Label is the text before the
// first "http", URL the rest of the line.
type ResultEntry struct {
	Kind  EntryKind
	Text  string
	Label string
	URL   string
}

// Decode turns raw engine stdout into a SearchResult. It never fails on
// non-empty input; empty or whitespace-only output yields ErrEmptyEngineOutput.
func Decode(stdout string) (*SearchResult, error) {
	if strings.TrimSpace(stdout) == "" {
		return nil, ErrEmptyEngineOutput
	}

	// The engine emits a single line; a trailing line terminator is not part of the flag.
	raw := strings.TrimRight(stdout, "\r\n")
	body, flag, _ := strings.Cut(raw, Separator)

	switch {
	case strings.HasPrefix(body, NoMatchesPrefix):
		return &SearchResult{Kind: KindNoMatches, Text: body}, nil
	case flag == MultipleResultsFlag:
		return &SearchResult{Kind: KindMultipleResults, Text: body, Entries: ParseEntries(body)}, nil
	default:
		return &SearchResult{Kind: KindSingleResult, Text: body, URL: flag}, nil
	}
}

// ParseEntries splits a multiple-results body on "\n" and classifies every
// line, preserving order. Empty lines are kept as plain entries.
func ParseEntries(body string) []ResultEntry {
	lines := strings.Split(body, "\n")
	entries := make([]ResultEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, classifyLine(line))
	}
	return entries
}

func classifyLine(line string) ResultEntry {
	switch {
	case strings.HasPrefix(line, solutionPrefix):
		idx := strings.Index(line, linkStart)
		if idx < 0 {
			// Nothing to link; keep the line as text.
			return ResultEntry{Kind: EntryPlain, Text: line}
		}
		return ResultEntry{Kind: EntrySolution, Text: line, Label: line[:idx], URL: line[idx:]}
	case strings.HasPrefix(line, matchScorePrefix):
		return ResultEntry{Kind: EntryMatchScore, Text: line}
	case lineRefPattern.MatchString(line):
		return ResultEntry{Kind: EntryLineRef, Text: line}
	default:
		return ResultEntry{Kind: EntryPlain, Text: line}
	}
}
