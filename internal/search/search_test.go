package search

import (
	"testing"

	"github.com/nikbrunner/bmsort/internal/model"
)

func newTestStore(t *testing.T) *model.Store {
	t.Helper()
	store := model.NewStore()
	dev, err := store.CreateFolder(model.BarFolderID, "Development")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Golang", "React"} {
		if _, err := store.CreateFolder(dev.ID, name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.CreateFolder(model.OtherFolderID, "Recipes"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateFolder(model.OtherFolderID, "React Conf"); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestFolders_Paths(t *testing.T) {
	got := Folders(newTestStore(t))

	want := []string{
		"Bookmarks Bar",
		"Bookmarks Bar/Development",
		"Bookmarks Bar/Development/Golang",
		"Bookmarks Bar/Development/React",
		"Other Bookmarks",
		"Other Bookmarks/Recipes",
		"Other Bookmarks/React Conf",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d folders, got %d", len(want), len(got))
	}
	for i, path := range want {
		if got[i].Path != path {
			t.Errorf("position %d: expected %q, got %q", i, path, got[i].Path)
		}
	}
}

func TestFuzzyFindFolders_EmptyQuery(t *testing.T) {
	results := FuzzyFindFolders(newTestStore(t), "  ")

	if len(results) != 0 {
		t.Errorf("expected 0 results for empty query, got %d", len(results))
	}
}

func TestFuzzyFindFolders_ExactName(t *testing.T) {
	results := FuzzyFindFolders(newTestStore(t), "golang")

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "Bookmarks Bar/Development/Golang" {
		t.Errorf("expected Golang folder, got %s", results[0].Path)
	}
}

func TestFuzzyFindFolders_ExactPath(t *testing.T) {
	results := FuzzyFindFolders(newTestStore(t), "Other Bookmarks/React Conf")

	if len(results) != 1 || results[0].Name != "React Conf" {
		t.Fatalf("expected the React Conf folder, got %+v", results)
	}
}

func TestFuzzyFindFolders_Fuzzy(t *testing.T) {
	results := FuzzyFindFolders(newTestStore(t), "react")

	// "React" as a name matches exactly once, so it wins alone.
	if len(results) != 1 || results[0].Path != "Bookmarks Bar/Development/React" {
		t.Fatalf("expected exact React folder, got %+v", results)
	}

	results = FuzzyFindFolders(newTestStore(t), "rct")
	if len(results) < 2 {
		t.Fatalf("expected several fuzzy matches, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results should be sorted by score descending")
		}
	}
	if len(results[0].MatchedIndexes) != 3 {
		t.Errorf("expected 3 matched indexes, got %v", results[0].MatchedIndexes)
	}
}

func TestFuzzyFindFolders_NoMatch(t *testing.T) {
	results := FuzzyFindFolders(newTestStore(t), "xyz123")

	if len(results) != 0 {
		t.Errorf("expected 0 results for no match, got %d", len(results))
	}
}
