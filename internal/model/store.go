package model

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNotFound  = errors.New("bookmark store: entry not found")
	ErrProtected = errors.New("bookmark store: entry is protected")
	ErrNotFolder = errors.New("bookmark store: parent is not a folder")
	ErrNotEmpty  = errors.New("bookmark store: folder is not empty")
	ErrCycle     = errors.New("bookmark store: cannot move folder into itself")
)

// Store holds all bookmarks and folders.
// All methods are safe for concurrent use.
type Store struct {
	Folders   []Folder   `json:"folders"`
	Bookmarks []Bookmark `json:"bookmarks"`

	mu sync.Mutex
}

// NewStore creates a Store holding only the protected root folders.
func NewStore() *Store {
	return &Store{
		Folders:   rootFolders(),
		Bookmarks: []Bookmark{},
	}
}

// EnsureRoots adds any missing protected root folder and re-flags existing ones.
// Stores loaded from disk go through this before use.
func (s *Store) EnsureRoots() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Folders == nil {
		s.Folders = []Folder{}
	}
	if s.Bookmarks == nil {
		s.Bookmarks = []Bookmark{}
	}

	for _, root := range rootFolders() {
		if i := s.folderIndex(root.ID); i >= 0 {
			s.Folders[i].Protected = true
			s.Folders[i].ParentID = nil
			continue
		}
		s.Folders = append(s.Folders, root)
	}
}

// GetFolderByID finds a folder by ID.
func (s *Store) GetFolderByID(id string) (Folder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.folderIndex(id); i >= 0 {
		return s.Folders[i], true
	}
	return Folder{}, false
}

// GetBookmarkByID finds a bookmark by ID.
func (s *Store) GetBookmarkByID(id string) (Bookmark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.bookmarkIndex(id); i >= 0 {
		return s.Bookmarks[i], true
	}
	return Bookmark{}, false
}

// CreateFolder adds a folder named name under parentID.
func (s *Store) CreateFolder(parentID, name string) (Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folderIndex(parentID) < 0 {
		return Folder{}, fmt.Errorf("create folder %q: %w", name, s.missingParent(parentID))
	}

	pid := parentID
	folder := NewFolder(NewFolderParams{Name: name, ParentID: &pid})
	s.Folders = append(s.Folders, folder)
	return folder, nil
}

// CreateBookmark adds a bookmark under parentID.
func (s *Store) CreateBookmark(parentID, title, url string) (Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folderIndex(parentID) < 0 {
		return Bookmark{}, fmt.Errorf("create bookmark %q: %w", title, s.missingParent(parentID))
	}

	pid := parentID
	bookmark := NewBookmark(NewBookmarkParams{Title: title, URL: url, FolderID: &pid})
	s.Bookmarks = append(s.Bookmarks, bookmark)
	return bookmark, nil
}

// AddBookmark appends an existing bookmark without validation.
// Used by importers that already issued ids.
func (s *Store) AddBookmark(b Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	s.Bookmarks = append(s.Bookmarks, b)
}

// AddFolder appends an existing folder without validation.
func (s *Store) AddFolder(f Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Folders = append(s.Folders, f)
}

// Move re-parents a bookmark or folder.
func (s *Store) Move(id, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folderIndex(parentID) < 0 {
		return fmt.Errorf("move %s: %w", id, s.missingParent(parentID))
	}

	if i := s.bookmarkIndex(id); i >= 0 {
		pid := parentID
		s.Bookmarks[i].FolderID = &pid
		return nil
	}

	i := s.folderIndex(id)
	if i < 0 {
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	if s.Folders[i].Protected {
		return fmt.Errorf("move %s: %w", id, ErrProtected)
	}
	// Walk up from the new parent; finding id means a cycle.
	for cur := &parentID; cur != nil; {
		if *cur == id {
			return fmt.Errorf("move %s: %w", id, ErrCycle)
		}
		j := s.folderIndex(*cur)
		if j < 0 {
			break
		}
		cur = s.Folders[j].ParentID
	}

	pid := parentID
	s.Folders[i].ParentID = &pid
	return nil
}

// Remove deletes a bookmark or an empty, unprotected folder.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.bookmarkIndex(id); i >= 0 {
		s.Bookmarks = append(s.Bookmarks[:i], s.Bookmarks[i+1:]...)
		return nil
	}

	i := s.folderIndex(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	if s.Folders[i].Protected {
		return fmt.Errorf("remove %s: %w", id, ErrProtected)
	}
	if s.childCount(id) > 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotEmpty)
	}

	s.Folders = append(s.Folders[:i], s.Folders[i+1:]...)
	return nil
}

// Children returns the direct children of a folder, folders first.
// Arena indices on the returned nodes are not populated.
func (s *Store) Children(folderID string) ([]Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folderIndex(folderID) < 0 {
		return nil, fmt.Errorf("children of %s: %w", folderID, s.missingParent(folderID))
	}

	var nodes []Node
	for _, f := range s.Folders {
		if ptrEqual(f.ParentID, &folderID) {
			nodes = append(nodes, folderNode(f))
		}
	}
	for _, b := range s.Bookmarks {
		if b.InFolder(&folderID) {
			nodes = append(nodes, bookmarkNode(b))
		}
	}
	return nodes, nil
}

// Copy returns a detached copy of the store's contents.
func (s *Store) Copy() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Store{
		Folders:   append([]Folder{}, s.Folders...),
		Bookmarks: append([]Bookmark{}, s.Bookmarks...),
	}
}

// Tree returns a snapshot of the whole store.
func (s *Store) Tree() *Tree {
	s.mu.Lock()
	defer s.mu.Unlock()

	return buildTree(s.Folders, s.Bookmarks, nil)
}

// Subtree returns a snapshot rooted at the given folder.
func (s *Store) Subtree(folderID string) (*Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folderIndex(folderID) < 0 {
		return nil, fmt.Errorf("subtree of %s: %w", folderID, s.missingParent(folderID))
	}
	id := folderID
	return buildTree(s.Folders, s.Bookmarks, &id), nil
}

func (s *Store) folderIndex(id string) int {
	for i := range s.Folders {
		if s.Folders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) bookmarkIndex(id string) int {
	for i := range s.Bookmarks {
		if s.Bookmarks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) childCount(folderID string) int {
	n := 0
	for _, f := range s.Folders {
		if ptrEqual(f.ParentID, &folderID) {
			n++
		}
	}
	for _, b := range s.Bookmarks {
		if b.InFolder(&folderID) {
			n++
		}
	}
	return n
}

func (s *Store) missingParent(id string) error {
	if s.bookmarkIndex(id) >= 0 {
		return ErrNotFolder
	}
	return ErrNotFound
}

// ptrEqual compares two string pointers for equality.
func ptrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
