// Package search finds folders by fuzzy matching their paths.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/bmsort/internal/model"
)

// FolderResult represents a fuzzy folder match.
type FolderResult struct {
	ID             string
	Name           string
	Path           string // "Bookmarks Bar/Dev/Go"
	MatchedIndexes []int  // into Path
	Score          int
}

type folderPaths []FolderResult

func (fp folderPaths) String(i int) string {
	return fp[i].Path
}

func (fp folderPaths) Len() int {
	return len(fp)
}

// Folders lists every folder with its slash-joined path in document order.
func Folders(store *model.Store) []FolderResult {
	tree := store.Tree()
	paths := make([]string, len(tree.Nodes))

	var out []FolderResult
	for _, i := range tree.PreOrder() {
		n := tree.Nodes[i]
		if !n.IsFolder {
			continue
		}
		paths[i] = n.Title
		if n.Parent >= 0 {
			paths[i] = paths[n.Parent] + "/" + n.Title
		}
		out = append(out, FolderResult{ID: n.ID, Name: n.Title, Path: paths[i]})
	}
	return out
}

// FuzzyFindFolders searches folder paths using fuzzy matching.
// A folder whose name or path equals the query (ignoring case) is returned
// alone. Otherwise results are sorted by match score (best first).
func FuzzyFindFolders(store *model.Store, query string) []FolderResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	folders := folderPaths(Folders(store))

	var exact []FolderResult
	for _, f := range folders {
		if strings.EqualFold(f.Name, query) || strings.EqualFold(f.Path, query) {
			exact = append(exact, f)
		}
	}
	if len(exact) == 1 {
		return exact
	}

	matches := fuzzy.FindFrom(query, folders)

	results := make([]FolderResult, len(matches))
	for i, m := range matches {
		r := folders[m.Index]
		r.MatchedIndexes = m.MatchedIndexes
		r.Score = m.Score
		results[i] = r
	}

	return results
}
