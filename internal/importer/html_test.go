package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nikbrunner/bmsort/internal/importer"
	"github.com/nikbrunner/bmsort/internal/model"
)

func inFolder(id *string, want string) bool {
	return id != nil && *id == want
}

func TestParseHTML_SingleBookmark(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Example Site</A>
</DL><p>`

	folders, bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(folders) != 0 {
		t.Errorf("expected 0 folders, got %d", len(folders))
	}
	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bookmarks))
	}

	b := bookmarks[0]
	if b.Title != "Example Site" {
		t.Errorf("expected title 'Example Site', got %q", b.Title)
	}
	if b.URL != "https://example.com" {
		t.Errorf("expected URL 'https://example.com', got %q", b.URL)
	}
	if !inFolder(b.FolderID, model.BarFolderID) {
		t.Errorf("expected top-level bookmark in Bookmarks Bar, got %v", b.FolderID)
	}
	if b.ID == "" {
		t.Error("expected non-empty ID")
	}
}

func TestParseHTML_NestedFolders(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 ADD_DATE="1234567890">Development</H3>
    <DL><p>
        <DT><H3 ADD_DATE="1234567890">React</H3>
        <DL><p>
            <DT><A HREF="https://react.dev" ADD_DATE="1234567890">React Docs</A>
        </DL><p>
        <DT><A HREF="https://github.com" ADD_DATE="1234567890">GitHub</A>
    </DL><p>
    <DT><A HREF="https://google.com" ADD_DATE="1234567890">Google</A>
</DL><p>`

	folders, bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %d", len(folders))
	}
	byName := map[string]model.Folder{}
	for _, f := range folders {
		byName[f.Name] = f
	}
	dev, react := byName["Development"], byName["React"]

	if !inFolder(dev.ParentID, model.BarFolderID) {
		t.Error("Development should be under the Bookmarks Bar")
	}
	if !inFolder(react.ParentID, dev.ID) {
		t.Error("React should be child of Development")
	}

	if len(bookmarks) != 3 {
		t.Fatalf("expected 3 bookmarks, got %d", len(bookmarks))
	}
	want := map[string]string{
		"React Docs": react.ID,
		"GitHub":     dev.ID,
		"Google":     model.BarFolderID,
	}
	for _, b := range bookmarks {
		if !inFolder(b.FolderID, want[b.Title]) {
			t.Errorf("%s: expected folder %s, got %v", b.Title, want[b.Title], b.FolderID)
		}
	}
}

func TestParseHTML_BrowserRootsMerge(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 PERSONAL_TOOLBAR_FOLDER="true">Lesezeichenleiste</H3>
    <DL><p>
        <DT><A HREF="https://go.dev">Go</A>
    </DL><p>
    <DT><H3>Other bookmarks</H3>
    <DL><p>
        <DT><H3>Recipes</H3>
        <DL><p>
            <DT><A HREF="https://example.com/soup">Soup</A>
        </DL><p>
    </DL><p>
</DL><p>`

	folders, bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(folders) != 1 || folders[0].Name != "Recipes" {
		t.Fatalf("expected only the Recipes folder, got %+v", folders)
	}
	if !inFolder(folders[0].ParentID, model.OtherFolderID) {
		t.Error("Recipes should be under Other Bookmarks")
	}
	if len(bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(bookmarks))
	}
	if !inFolder(bookmarks[0].FolderID, model.BarFolderID) {
		t.Error("Go should be in the Bookmarks Bar")
	}
	if !inFolder(bookmarks[1].FolderID, folders[0].ID) {
		t.Error("Soup should be in Recipes")
	}
}

func TestParseHTML_NestedRootNameIsPlainFolder(t *testing.T) {
	html := `<DL><p>
    <DT><H3>Work</H3>
    <DL><p>
        <DT><H3>Other Bookmarks</H3>
        <DL><p></DL><p>
    </DL><p>
</DL><p>`

	folders, _, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("expected nested container name to stay a folder, got %d folders", len(folders))
	}
}

func TestParseHTML_EmptyFile(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
</DL><p>`

	folders, bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(folders) != 0 {
		t.Errorf("expected 0 folders, got %d", len(folders))
	}
	if len(bookmarks) != 0 {
		t.Errorf("expected 0 bookmarks, got %d", len(bookmarks))
	}
}

func TestParseHTML_Timestamps(t *testing.T) {
	// 1234567890 = Fri Feb 13 2009 23:31:30 UTC
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Test</A>
</DL><p>`

	_, bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bookmarks))
	}

	expected := time.Unix(1234567890, 0)
	if !bookmarks[0].CreatedAt.Equal(expected) {
		t.Errorf("expected CreatedAt %v, got %v", expected, bookmarks[0].CreatedAt)
	}
}

func TestParseHTML_MissingHref(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A ADD_DATE="1234567890">No URL</A>
    <DT><A HREF="https://valid.com" ADD_DATE="1234567890">Valid</A>
</DL><p>`

	_, bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should skip bookmark without HREF, keep valid one
	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark (skip missing href), got %d", len(bookmarks))
	}

	if bookmarks[0].Title != "Valid" {
		t.Errorf("expected 'Valid' bookmark, got %q", bookmarks[0].Title)
	}
}

func TestImport_AddsToStore(t *testing.T) {
	html := `<DL><p>
    <DT><H3>News</H3>
    <DL><p>
        <DT><A HREF="https://news.ycombinator.com">HN</A>
    </DL><p>
</DL><p>`

	store := model.NewStore()
	res, err := importer.Import(store, strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Folders != 1 || res.Bookmarks != 1 {
		t.Errorf("expected 1 folder and 1 bookmark, got %+v", res)
	}

	children, err := store.Children(model.BarFolderID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 1 || children[0].Title != "News" {
		t.Errorf("expected News under the Bookmarks Bar, got %+v", children)
	}
}
