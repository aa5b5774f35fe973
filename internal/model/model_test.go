package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nikbrunner/bmsort/internal/model"
)

// Helper functions for pointers
func stringPtr(s string) *string { return &s }

func TestBookmark_JSONSerialization(t *testing.T) {
	tests := []struct {
		name     string
		bookmark model.Bookmark
	}{
		{
			name: "bookmark in folder",
			bookmark: model.Bookmark{
				ID:        "b1",
				Title:     "TanStack Router",
				URL:       "https://tanstack.com/router",
				FolderID:  stringPtr("f1"),
				CreatedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "root level bookmark (no folder)",
			bookmark: model.Bookmark{
				ID:        "b2",
				Title:     "Hacker News",
				URL:       "https://news.ycombinator.com",
				CreatedAt: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.bookmark)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			var got model.Bookmark
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}

			if got.ID != tt.bookmark.ID {
				t.Errorf("ID mismatch: got %q, want %q", got.ID, tt.bookmark.ID)
			}
			if got.URL != tt.bookmark.URL {
				t.Errorf("URL mismatch: got %q, want %q", got.URL, tt.bookmark.URL)
			}
			if !got.InFolder(tt.bookmark.FolderID) {
				t.Errorf("FolderID mismatch: got %v, want %v", got.FolderID, tt.bookmark.FolderID)
			}
		})
	}
}

func TestNewStore_HasProtectedRoots(t *testing.T) {
	store := model.NewStore()

	for _, id := range []string{model.BarFolderID, model.OtherFolderID} {
		f, ok := store.GetFolderByID(id)
		if !ok {
			t.Fatalf("expected root folder %q", id)
		}
		if !f.Protected {
			t.Errorf("expected %q to be protected", id)
		}
		if f.ParentID != nil {
			t.Errorf("expected %q at root level", id)
		}
	}
}

func TestStore_EnsureRoots(t *testing.T) {
	store := &model.Store{
		Folders: []model.Folder{
			{ID: model.BarFolderID, Name: "Bar"},
			{ID: "f1", Name: "Dev", ParentID: stringPtr(model.BarFolderID)},
		},
	}

	store.EnsureRoots()

	if !isProtected(store, model.BarFolderID) {
		t.Error("expected existing bar folder to be re-flagged as protected")
	}
	if !isProtected(store, model.OtherFolderID) {
		t.Error("expected missing other folder to be added")
	}
	if isProtected(store, "f1") {
		t.Error("regular folder must not be protected")
	}
	if store.Bookmarks == nil {
		t.Error("expected bookmarks slice to be initialized")
	}
}

func TestStore_CreateAndChildren(t *testing.T) {
	store := model.NewStore()

	dev, err := store.CreateFolder(model.BarFolderID, "Development")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := store.CreateBookmark(dev.ID, "Go", "https://go.dev"); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}
	if _, err := store.CreateFolder(dev.ID, "Go"); err != nil {
		t.Fatalf("CreateFolder nested: %v", err)
	}

	children, err := store.Children(dev.ID)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	if !children[0].IsFolder {
		t.Error("expected folders to be listed first")
	}
	if children[1].URL != "https://go.dev" {
		t.Errorf("expected bookmark child, got %+v", children[1])
	}
}

func TestStore_CreateUnderMissingParent(t *testing.T) {
	store := model.NewStore()

	_, err := store.CreateFolder("nope", "X")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	b, _ := store.CreateBookmark(model.BarFolderID, "A", "https://a.com")
	_, err = store.CreateBookmark(b.ID, "B", "https://b.com")
	if !errors.Is(err, model.ErrNotFolder) {
		t.Errorf("expected ErrNotFolder, got %v", err)
	}
}

func TestStore_RemoveRules(t *testing.T) {
	store := model.NewStore()
	folder, _ := store.CreateFolder(model.BarFolderID, "Dev")
	b, _ := store.CreateBookmark(folder.ID, "Go", "https://go.dev")

	if err := store.Remove(model.BarFolderID); !errors.Is(err, model.ErrProtected) {
		t.Errorf("expected ErrProtected, got %v", err)
	}
	if err := store.Remove(folder.ID); !errors.Is(err, model.ErrNotEmpty) {
		t.Errorf("expected ErrNotEmpty, got %v", err)
	}
	if err := store.Remove(b.ID); err != nil {
		t.Fatalf("remove bookmark: %v", err)
	}
	if err := store.Remove(folder.ID); err != nil {
		t.Fatalf("remove empty folder: %v", err)
	}
	if err := store.Remove(folder.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestStore_Move(t *testing.T) {
	store := model.NewStore()
	a, _ := store.CreateFolder(model.BarFolderID, "A")
	b, _ := store.CreateFolder(a.ID, "B")
	bm, _ := store.CreateBookmark(b.ID, "Go", "https://go.dev")

	if err := store.Move(bm.ID, model.OtherFolderID); err != nil {
		t.Fatalf("move bookmark: %v", err)
	}
	got, _ := store.GetBookmarkByID(bm.ID)
	if !got.InFolder(stringPtr(model.OtherFolderID)) {
		t.Errorf("expected bookmark in other folder, got %v", got.FolderID)
	}

	if err := store.Move(a.ID, b.ID); !errors.Is(err, model.ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
	if err := store.Move(model.BarFolderID, model.OtherFolderID); !errors.Is(err, model.ErrProtected) {
		t.Errorf("expected ErrProtected, got %v", err)
	}
}

func TestTree_Traversals(t *testing.T) {
	store := model.NewStore()
	dev, _ := store.CreateFolder(model.BarFolderID, "Dev")
	goFolder, _ := store.CreateFolder(dev.ID, "Go")
	store.CreateBookmark(goFolder.ID, "Go Docs", "https://go.dev")
	store.CreateBookmark(dev.ID, "GitHub", "https://github.com")
	store.CreateBookmark(model.OtherFolderID, "News", "https://news.ycombinator.com")

	tree := store.Tree()

	var titles []string
	for _, n := range tree.Bookmarks() {
		titles = append(titles, n.Title)
	}
	want := []string{"Go Docs", "GitHub", "News"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("bookmark %d: got %q, want %q", i, titles[i], want[i])
		}
	}

	// Every node must appear after all of its children.
	seen := make(map[int]bool)
	post := tree.PostOrder()
	if len(post) != len(tree.Nodes) {
		t.Fatalf("post-order visited %d of %d nodes", len(post), len(tree.Nodes))
	}
	for _, i := range post {
		for _, c := range tree.Nodes[i].Children {
			if !seen[c] {
				t.Errorf("node %q visited before child %q", tree.Nodes[i].Title, tree.Nodes[c].Title)
			}
		}
		seen[i] = true
	}
}

func TestStore_Subtree(t *testing.T) {
	store := model.NewStore()
	dev, _ := store.CreateFolder(model.BarFolderID, "Dev")
	store.CreateBookmark(dev.ID, "Go", "https://go.dev")
	store.CreateBookmark(model.OtherFolderID, "News", "https://news.ycombinator.com")

	sub, err := store.Subtree(dev.ID)
	if err != nil {
		t.Fatalf("Subtree: %v", err)
	}
	if len(sub.Roots) != 1 || sub.Nodes[sub.Roots[0]].ID != dev.ID {
		t.Fatalf("expected subtree rooted at Dev, got %+v", sub.Roots)
	}
	bookmarks := sub.Bookmarks()
	if len(bookmarks) != 1 || bookmarks[0].Title != "Go" {
		t.Errorf("expected only Go bookmark, got %+v", bookmarks)
	}
}

func TestTree_DeepNestingDoesNotRecurse(t *testing.T) {
	store := model.NewStore()
	parent := model.BarFolderID
	for i := 0; i < 5000; i++ {
		f, err := store.CreateFolder(parent, "level")
		if err != nil {
			t.Fatalf("CreateFolder: %v", err)
		}
		parent = f.ID
	}
	store.CreateBookmark(parent, "Deep", "https://deep.example")

	tree := store.Tree()
	if got := len(tree.PostOrder()); got != len(tree.Nodes) {
		t.Errorf("expected %d nodes, got %d", len(tree.Nodes), got)
	}
	if b := tree.Bookmarks(); len(b) != 1 || b[0].Title != "Deep" {
		t.Errorf("expected the deep bookmark, got %+v", b)
	}
}

func isProtected(s *model.Store, id string) bool {
	f, ok := s.GetFolderByID(id)
	return ok && f.Protected
}
