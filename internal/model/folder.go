package model

const (
	// BarFolderID is the protected "Bookmarks Bar" container.
	BarFolderID = "bar"
	// OtherFolderID is the protected "Other Bookmarks" container.
	OtherFolderID = "other"
)

// Folder represents a container for bookmarks and other folders.
type Folder struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`            // nil = root level
	Protected bool    `json:"protected,omitempty"` // never removed, moved or renamed
}

// NewFolderParams holds parameters for creating a new Folder.
type NewFolderParams struct {
	Name     string
	ParentID *string
}

// NewFolder creates a Folder with generated UUID.
func NewFolder(params NewFolderParams) Folder {
	return Folder{
		ID:       GenerateUUID(),
		Name:     params.Name,
		ParentID: params.ParentID,
	}
}

// rootFolders returns the two protected top-level containers.
func rootFolders() []Folder {
	return []Folder{
		{ID: BarFolderID, Name: "Bookmarks Bar", Protected: true},
		{ID: OtherFolderID, Name: "Other Bookmarks", Protected: true},
	}
}
