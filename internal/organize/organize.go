// Package organize holds the folder utilities that run independently of
// classification: flattening, deduplication and empty-folder pruning.
package organize

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nikbrunner/bmsort/internal/model"
)

// DuplicatesFolderName is the folder that receives duplicate bookmarks.
const DuplicatesFolderName = "Duplicate Bookmarks"

// Store is the subset of the bookmark store the utilities mutate.
type Store interface {
	Tree() *model.Tree
	CreateFolder(parentID, name string) (model.Folder, error)
	Move(id, parentID string) error
	Remove(id string) error
}

// FlattenResult reports what Flatten changed.
type FlattenResult struct {
	Moved   int `json:"moved"`
	Removed int `json:"removed"`
}

// DedupeResult reports what Deduplicate changed.
type DedupeResult struct {
	Duplicates int    `json:"duplicates"`
	Moved      int    `json:"moved"`
	FolderID   string `json:"folderId,omitempty"`
}

// Flatten moves every bookmark into target and removes every unprotected
// folder, deepest first.
func Flatten(store Store, target string) (FlattenResult, error) {
	var res FlattenResult
	tree := store.Tree()

	for _, i := range tree.PostOrder() {
		node := tree.Nodes[i]
		if !node.IsFolder {
			continue
		}

		for _, c := range node.Children {
			child := tree.Nodes[c]
			if child.IsFolder || node.ID == target {
				continue
			}
			if err := store.Move(child.ID, target); err != nil {
				return res, fmt.Errorf("flatten folders: %w", err)
			}
			res.Moved++
		}

		if node.Protected || node.ID == target {
			continue
		}
		if err := store.Remove(node.ID); err != nil {
			return res, fmt.Errorf("flatten folders: %w", err)
		}
		res.Removed++
	}

	return res, nil
}

// Deduplicate keeps the first bookmark of every normalized URL and moves the
// rest into a DuplicatesFolderName folder under parent. The folder is only
// created when a duplicate exists. Failed moves are logged and skipped.
func Deduplicate(store Store, parent string, log *zap.Logger) (DedupeResult, error) {
	var res DedupeResult
	seen := make(map[string]bool)
	var duplicates []model.Node

	for _, b := range store.Tree().Bookmarks() {
		key := NormalizeURL(b.URL)
		if seen[key] {
			duplicates = append(duplicates, b)
			continue
		}
		seen[key] = true
	}

	res.Duplicates = len(duplicates)
	if len(duplicates) == 0 {
		return res, nil
	}

	folder, err := store.CreateFolder(parent, DuplicatesFolderName)
	if err != nil {
		return res, fmt.Errorf("clean duplicates: %w", err)
	}
	res.FolderID = folder.ID

	for _, d := range duplicates {
		if err := store.Move(d.ID, folder.ID); err != nil {
			log.Warn("move duplicate bookmark failed",
				zap.String("id", d.ID), zap.String("url", d.URL), zap.Error(err))
			continue
		}
		res.Moved++
	}

	return res, nil
}

// PruneEmpty removes, bottom-up, every unprotected folder that is left with no
// children. Removal failures are logged and the folder is kept.
func PruneEmpty(store Store, log *zap.Logger) int {
	tree := store.Tree()
	remaining := make([]int, len(tree.Nodes))
	for i, n := range tree.Nodes {
		remaining[i] = len(n.Children)
	}

	removed := 0
	for _, i := range tree.PostOrder() {
		node := tree.Nodes[i]
		if !node.IsFolder || node.Protected || remaining[i] > 0 {
			continue
		}
		if err := store.Remove(node.ID); err != nil {
			log.Debug("prune empty folder failed", zap.String("id", node.ID), zap.Error(err))
			continue
		}
		removed++
		if node.Parent >= 0 {
			remaining[node.Parent]--
		}
	}
	return removed
}
