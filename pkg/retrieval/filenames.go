package retrieval

import "regexp"

// fileTokenRe matches a bare name.extension token. The trailing \b keeps
// it from matching inside a longer word; an optional literal "file" after
// the token is tolerated ("explain 333.csv file").
var fileTokenRe = regexp.MustCompile(`(?i)([\w-]+\.[a-z0-9]+)(?:\s+file)?\b`)

// FindFileNames extracts the first dataset filename referenced in the
// query. Returns "" when the query names no known file.
func FindFileNames(query string, knownFiles []string) string {
	matches := fileTokenRe.FindAllStringSubmatch(query, -1)
	for _, m := range matches {
		for _, known := range knownFiles {
			if m[1] == known {
				return known
			}
		}
	}
	return ""
}
