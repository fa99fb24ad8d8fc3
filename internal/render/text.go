package render

import (
	"strings"

	"github.com/ca-srg/minisearch/internal/search"
)

// NoResultsMessage is shown when the engine found nothing.
const NoResultsMessage = "No matching problems found."

// PlainText renders a result for a terminal. Match scores and line references
// keep their text; solution links are printed as-is.
func PlainText(result *search.SearchResult) string {
	if result == nil {
		return NoResultsMessage
	}

	var sb strings.Builder
	switch result.Kind {
	case search.KindNoMatches:
		sb.WriteString(result.Text)
	case search.KindMultipleResults:
		entries := result.Entries
		if entries == nil {
			entries = search.ParseEntries(result.Text)
		}
		for i, entry := range entries {
			if i > 0 {
				sb.WriteByte('\n')
			}
			switch entry.Kind {
			case search.EntryMatchScore:
				sb.WriteString("* " + entry.Text)
			case search.EntryLineRef:
				sb.WriteString("  " + entry.Text)
			default:
				sb.WriteString(entry.Text)
			}
		}
	default:
		sb.WriteString(result.Text)
		if result.URL != "" {
			sb.WriteString("\n")
			sb.WriteString(result.URL)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
