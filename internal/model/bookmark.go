package model

import "time"

// Bookmark represents a saved URL with metadata.
type Bookmark struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	FolderID  *string   `json:"folderId"` // nil = root level
	CreatedAt time.Time `json:"createdAt"`
}

// NewBookmarkParams holds parameters for creating a new Bookmark.
type NewBookmarkParams struct {
	Title    string
	URL      string
	FolderID *string
}

// NewBookmark creates a Bookmark with generated UUID and timestamp.
func NewBookmark(params NewBookmarkParams) Bookmark {
	return Bookmark{
		ID:        GenerateUUID(),
		Title:     params.Title,
		URL:       params.URL,
		FolderID:  params.FolderID,
		CreatedAt: time.Now(),
	}
}

// InFolder reports whether the bookmark lives directly in the given folder.
func (b Bookmark) InFolder(folderID *string) bool {
	return ptrEqual(b.FolderID, folderID)
}
