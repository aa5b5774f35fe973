// Package importer reads Netscape bookmark HTML, the format every browser
// exports.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nikbrunner/bmsort/internal/model"
)

// rootAliases maps browser names of the top-level containers to the
// protected root folders.
var rootAliases = map[string]string{
	"bookmarks bar":     model.BarFolderID,
	"bookmarks toolbar": model.BarFolderID,
	"favorites bar":     model.BarFolderID,
	"other bookmarks":   model.OtherFolderID,
}

// ParseHTMLBookmarks parses Netscape bookmark HTML and returns folders + bookmarks.
//
// Top-level folders that name a browser container (or carry
// PERSONAL_TOOLBAR_FOLDER) are merged into the matching protected root.
// Every other top-level item is placed under the Bookmarks Bar.
func ParseHTMLBookmarks(r io.Reader) ([]model.Folder, []model.Bookmark, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, err
	}

	var folders []model.Folder
	var bookmarks []model.Bookmark

	bar := model.BarFolderID
	folderStack := []string{bar}
	pending := "" // folder waiting to be pushed on next DL

	top := func() *string {
		id := folderStack[len(folderStack)-1]
		return &id
	}

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				name := getTextContent(n)
				if name == "" {
					return
				}

				if len(folderStack) == 1 {
					if rootID, ok := rootFolder(n, name); ok {
						pending = rootID
						return
					}
				}

				folder := model.NewFolder(model.NewFolderParams{
					Name:     name,
					ParentID: top(),
				})
				folders = append(folders, folder)
				pending = folder.ID
				return

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					return
				}

				title := getTextContent(n)
				if title == "" {
					title = href
				}

				createdAt := time.Now()
				if addDate := getAttr(n, "add_date"); addDate != "" {
					if ts, err := strconv.ParseInt(addDate, 10, 64); err == nil {
						createdAt = time.Unix(ts, 0)
					}
				}

				bookmarks = append(bookmarks, model.Bookmark{
					ID:        model.GenerateUUID(),
					Title:     title,
					URL:       href,
					FolderID:  top(),
					CreatedAt: createdAt,
				})
				return

			case "dl":
				pushed := false
				if pending != "" {
					folderStack = append(folderStack, pending)
					pending = ""
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return folders, bookmarks, nil
}

func rootFolder(n *html.Node, name string) (string, bool) {
	if strings.EqualFold(getAttr(n, "personal_toolbar_folder"), "true") {
		return model.BarFolderID, true
	}
	id, ok := rootAliases[strings.ToLower(name)]
	return id, ok
}

// Result counts what Import added.
type Result struct {
	Folders   int
	Bookmarks int
}

// Import parses r and appends everything to store.
func Import(store *model.Store, r io.Reader) (Result, error) {
	folders, bookmarks, err := ParseHTMLBookmarks(r)
	if err != nil {
		return Result{}, err
	}

	store.EnsureRoots()
	for _, f := range folders {
		store.AddFolder(f)
	}
	for _, b := range bookmarks {
		store.AddBookmark(b)
	}
	return Result{Folders: len(folders), Bookmarks: len(bookmarks)}, nil
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
