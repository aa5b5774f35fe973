package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/bmsort/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/bookmarks-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("bookmarks-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML exports the store to Netscape bookmark HTML format.
func ExportHTML(store *model.Store) string {
	return ExportTree(store.Tree())
}

// ExportTree writes a tree snapshot as Netscape bookmark HTML.
// The Bookmarks Bar root is marked as the browser toolbar folder.
func ExportTree(tree *model.Tree) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	// open holds the folders whose <DL> is still open, innermost last.
	var open []int
	closeTo := func(parent int) {
		for len(open) > 0 && open[len(open)-1] != parent {
			open = open[:len(open)-1]
			fmt.Fprintf(&b, "%s</DL><p>\n", indent(len(open)+1))
		}
	}

	for _, i := range tree.PreOrder() {
		n := tree.Nodes[i]
		closeTo(n.Parent)
		prefix := indent(len(open) + 1)

		if !n.IsFolder {
			fmt.Fprintf(&b,
				"%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
				prefix,
				html.EscapeString(n.URL),
				n.CreatedAt.Unix(),
				html.EscapeString(n.Title),
			)
			continue
		}

		attrs := ""
		if n.ID == model.BarFolderID {
			attrs = ` PERSONAL_TOOLBAR_FOLDER="true"`
		}
		fmt.Fprintf(&b, "%s<DT><H3%s>%s</H3>\n", prefix, attrs, html.EscapeString(n.Title))
		fmt.Fprintf(&b, "%s<DL><p>\n", prefix)
		open = append(open, i)
	}
	closeTo(-1)

	b.WriteString("</DL><p>\n")

	return b.String()
}

func indent(level int) string {
	return strings.Repeat("    ", level)
}
