package retrieval

import "strings"

// BuildTsQuery converts a raw user query into a tsquery expression.
// Terms of length 2 or less are discarded and the remaining terms
// are combined with OR to broaden recall. If discarding empties the
// term set the raw query is used verbatim.
func BuildTsQuery(query string) string {
	var terms []string
	for _, term := range strings.Fields(query) {
		if len(term) > 2 {
			terms = append(terms, term)
		}
	}

	if len(terms) == 0 {
		return query
	}
	return strings.Join(terms, " | ")
}
