package organize_test

import (
	"testing"

	"go.uber.org/zap"
	"gotest.tools/v3/assert"

	"github.com/nikbrunner/bmsort/internal/model"
	"github.com/nikbrunner/bmsort/internal/organize"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://x.com/a/", "http://x.com/a"},
		{"http://x.com/a", "http://x.com/a"},
		{"HTTPS://Example.COM/Path/?Q=1#Frag", "https://example.com/path?q=1#frag"},
		{"https://example.com:443/", "https://example.com"},
		{"http://example.com:8080/x", "http://example.com:8080/x"},
		{"http://x.com//", "http://x.com"},
		{"not a url", "not a url"},
		{"MAILTO:Someone@Example.com", "mailto:someone@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := organize.NormalizeURL(tt.in)
			assert.Equal(t, got, tt.want)
			assert.Equal(t, organize.NormalizeURL(got), got, "normalize must be idempotent")
		})
	}
}

func TestFlatten(t *testing.T) {
	store := model.NewStore()
	dev, _ := store.CreateFolder(model.BarFolderID, "Dev")
	goFolder, _ := store.CreateFolder(dev.ID, "Go")
	store.CreateBookmark(goFolder.ID, "Go Docs", "https://go.dev")
	store.CreateBookmark(dev.ID, "GitHub", "https://github.com")
	store.CreateBookmark(model.BarFolderID, "Top", "https://top.example")
	other, _ := store.CreateFolder(model.OtherFolderID, "Misc")
	store.CreateBookmark(other.ID, "Misc", "https://misc.example")
	store.CreateBookmark(model.OtherFolderID, "Loose", "https://loose.example")

	res, err := organize.Flatten(store, model.BarFolderID)
	assert.NilError(t, err)
	assert.Equal(t, res.Moved, 4)
	assert.Equal(t, res.Removed, 3)

	folders, bookmarks := children(t, store, model.BarFolderID)
	assert.Equal(t, len(bookmarks), 5)
	assert.Equal(t, len(folders), 0)
	assert.Assert(t, isProtected(store, model.OtherFolderID), "protected roots survive")
	assert.Equal(t, len(store.Folders), 2)
}

func TestDeduplicate(t *testing.T) {
	store := model.NewStore()
	first, _ := store.CreateBookmark(model.BarFolderID, "Go", "https://go.dev/")
	store.CreateBookmark(model.OtherFolderID, "Go again", "https://GO.dev")
	store.CreateBookmark(model.OtherFolderID, "Other", "https://other.example")

	res, err := organize.Deduplicate(store, model.BarFolderID, zap.NewNop())
	assert.NilError(t, err)
	assert.Equal(t, res.Duplicates, 1)
	assert.Equal(t, res.Moved, 1)

	_, moved := children(t, store, res.FolderID)
	assert.Equal(t, len(moved), 1)
	assert.Equal(t, moved[0].Title, "Go again")

	kept, _ := store.GetBookmarkByID(first.ID)
	assert.Assert(t, kept.InFolder(ptr(model.BarFolderID)), "first occurrence stays in place")
}

func TestDeduplicate_NoDuplicatesCreatesNoFolder(t *testing.T) {
	store := model.NewStore()
	store.CreateBookmark(model.BarFolderID, "A", "https://a.example")
	store.CreateBookmark(model.BarFolderID, "B", "https://b.example")

	res, err := organize.Deduplicate(store, model.BarFolderID, zap.NewNop())
	assert.NilError(t, err)
	assert.Equal(t, res.Duplicates, 0)
	assert.Equal(t, res.FolderID, "")
	assert.Equal(t, len(store.Folders), 2)
}

func TestPruneEmpty(t *testing.T) {
	store := model.NewStore()
	a, _ := store.CreateFolder(model.BarFolderID, "A")
	b, _ := store.CreateFolder(a.ID, "B")
	store.CreateFolder(b.ID, "C")
	keep, _ := store.CreateFolder(model.BarFolderID, "Keep")
	store.CreateBookmark(keep.ID, "Go", "https://go.dev")

	removed := organize.PruneEmpty(store, zap.NewNop())
	assert.Equal(t, removed, 3)

	_, ok := store.GetFolderByID(a.ID)
	assert.Assert(t, !ok, "nested empty chain is removed bottom-up")
	_, ok = store.GetFolderByID(keep.ID)
	assert.Assert(t, ok, "non-empty folder is kept")
	assert.Assert(t, isProtected(store, model.OtherFolderID), "empty protected root is kept")
}

func ptr(s string) *string { return &s }

func children(t *testing.T, store *model.Store, id string) (folders, bookmarks []model.Node) {
	t.Helper()
	nodes, err := store.Children(id)
	assert.NilError(t, err)
	for _, n := range nodes {
		if n.IsFolder {
			folders = append(folders, n)
		} else {
			bookmarks = append(bookmarks, n)
		}
	}
	return folders, bookmarks
}

func isProtected(store *model.Store, id string) bool {
	f, ok := store.GetFolderByID(id)
	return ok && f.Protected
}
