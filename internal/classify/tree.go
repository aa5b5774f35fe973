package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nikbrunner/bmsort/internal/ai"
	"github.com/nikbrunner/bmsort/internal/model"
)

const (
	// OverflowCategory receives bookmarks whose new main category would
	// exceed MaxCategories. It is not counted against the limit.
	OverflowCategory = "Other"
	// UnclassifiedCategory receives bookmarks whose pipeline failed.
	UnclassifiedCategory = "Unclassified"
	// InaccessibleCategory receives bookmarks that failed the probe.
	InaccessibleCategory = "Inaccessible Bookmarks"
)

var (
	ErrEmptyCategory        = errors.New("classify: classifier returned no main category")
	ErrNoInaccessibleFolder = errors.New("classify: inaccessible folder was not created")
)

// FolderStore is what the tree needs to materialize folders and bookmarks.
type FolderStore interface {
	CreateFolder(parentID, name string) (model.Folder, error)
	CreateBookmark(parentID, title, url string) (model.Bookmark, error)
	Remove(id string) error
	Children(folderID string) ([]model.Node, error)
}

// SubCategoryNode is a second-level category.
type SubCategoryNode struct {
	FolderID  string           `json:"folderId"`
	Bookmarks []model.Bookmark `json:"bookmarks"`
}

// CategoryNode is a main category with its sub-categories.
type CategoryNode struct {
	FolderID      string                      `json:"folderId"`
	SubCategories map[string]*SubCategoryNode `json:"subCategories"`
	Bookmarks     []model.Bookmark            `json:"bookmarks"`
}

// Count returns the bookmarks filed in the node and its sub-categories.
func (n *CategoryNode) Count() int {
	total := len(n.Bookmarks)
	for _, sub := range n.SubCategories {
		total += len(sub.Bookmarks)
	}
	return total
}

// Bucket is a flat fallback destination.
type Bucket struct {
	FolderID  string           `json:"folderId"`
	Bookmarks []model.Bookmark `json:"bookmarks"`
}

// Tree accumulates classification results and materializes them as folders
// under a parent folder. Folders are created lazily, exactly once.
// All methods are safe for concurrent use.
type Tree struct {
	mu     sync.Mutex
	store  FolderStore
	parent string
	log    *zap.Logger

	categories   map[string]*CategoryNode
	order        []string
	overflow     *CategoryNode
	unclassified *Bucket
	inaccessible *Bucket
}

// NewTree creates an empty tree whose folders go under parent.
func NewTree(store FolderStore, parent string, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tree{
		store:      store,
		parent:     parent,
		log:        log,
		categories: make(map[string]*CategoryNode),
	}
}

// File creates b in the folder chosen for info and removes the original.
//
// Routing:
//   - a new main category beyond settings.MaxCategories goes to OverflowCategory
//   - a sub-category is used only if sub-categories are enabled
//   - a new sub-category beyond settings.MaxSubCategories files under the main category
func (t *Tree) File(b model.Bookmark, info ai.CategoryInfo, settings model.Settings) error {
	main := strings.TrimSpace(info.MainCategory)
	if main == "" {
		return ErrEmptyCategory
	}

	// Routing and creation share one critical section so a node created for
	// b can be undone before anyone else sees it.
	t.mu.Lock()
	err := t.fileLocked(b, main, strings.TrimSpace(info.SubCategory), settings)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	t.removeOriginal(b)
	return nil
}

func (t *Tree) fileLocked(b model.Bookmark, main, sub string, settings model.Settings) error {
	var undo []func()
	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	node, undoMain, err := t.mainNode(main, settings)
	if err != nil {
		return err
	}
	if undoMain != nil {
		undo = append(undo, undoMain)
	}

	folderID, list := node.FolderID, &node.Bookmarks
	if sub != "" && settings.SubCategoriesEnabled() {
		sn, undoSub, err := t.subNode(node, sub, settings)
		if err != nil {
			rollback()
			return err
		}
		if undoSub != nil {
			undo = append(undo, undoSub)
		}
		if sn != nil {
			folderID, list = sn.FolderID, &sn.Bookmarks
		}
	}

	if _, err := t.store.CreateBookmark(folderID, b.Title, b.URL); err != nil {
		rollback()
		return fmt.Errorf("create bookmark %q: %w", b.Title, err)
	}
	*list = append(*list, b)
	return nil
}

// subNode returns the sub-category node for sub, creating it if the limit
// allows. A nil node means the bookmark files under the main category.
func (t *Tree) subNode(node *CategoryNode, sub string, settings model.Settings) (*SubCategoryNode, func(), error) {
	if sn, ok := node.SubCategories[sub]; ok {
		return sn, nil, nil
	}
	if settings.MaxSubCategories > 0 && len(node.SubCategories) >= settings.MaxSubCategories {
		return nil, nil, nil
	}

	folder, err := t.store.CreateFolder(node.FolderID, sub)
	if err != nil {
		return nil, nil, fmt.Errorf("create sub-category %q: %w", sub, err)
	}
	sn := &SubCategoryNode{FolderID: folder.ID, Bookmarks: []model.Bookmark{}}
	node.SubCategories[sub] = sn
	return sn, func() {
		delete(node.SubCategories, sub)
		t.dropFolder(folder.ID)
	}, nil
}

// mainNode returns the node for name, creating it (and its folder) if the
// limit allows, otherwise the overflow node. The returned func undoes a
// creation and is nil when nothing was created.
func (t *Tree) mainNode(name string, settings model.Settings) (*CategoryNode, func(), error) {
	if reserved(name) {
		return t.overflowNode()
	}
	if node, ok := t.categories[name]; ok {
		return node, nil, nil
	}
	if settings.MaxCategories > 0 && len(t.categories) >= settings.MaxCategories {
		return t.overflowNode()
	}

	folder, err := t.store.CreateFolder(t.parent, name)
	if err != nil {
		return nil, nil, fmt.Errorf("create category %q: %w", name, err)
	}
	node := newCategoryNode(folder.ID)
	t.categories[name] = node
	t.order = append(t.order, name)
	return node, func() {
		delete(t.categories, name)
		t.order = t.order[:len(t.order)-1]
		t.dropFolder(folder.ID)
	}, nil
}

func (t *Tree) overflowNode() (*CategoryNode, func(), error) {
	if t.overflow != nil {
		return t.overflow, nil, nil
	}
	folder, err := t.store.CreateFolder(t.parent, OverflowCategory)
	if err != nil {
		return nil, nil, fmt.Errorf("create category %q: %w", OverflowCategory, err)
	}
	t.overflow = newCategoryNode(folder.ID)
	return t.overflow, func() {
		t.overflow = nil
		t.dropFolder(folder.ID)
	}, nil
}

func newCategoryNode(folderID string) *CategoryNode {
	return &CategoryNode{
		FolderID:      folderID,
		SubCategories: make(map[string]*SubCategoryNode),
		Bookmarks:     []model.Bookmark{},
	}
}

// dropFolder removes a folder created for a filing that did not happen.
func (t *Tree) dropFolder(id string) {
	if err := t.store.Remove(id); err != nil {
		t.log.Warn("remove unused category folder failed", zap.String("id", id), zap.Error(err))
	}
}

// reserved names always route to the overflow bucket so they never collide
// with the fallback buckets.
func reserved(name string) bool {
	return name == OverflowCategory || name == UnclassifiedCategory || name == InaccessibleCategory
}

// EnsureInaccessible creates the shared inaccessible folder if needed.
func (t *Tree) EnsureInaccessible() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inaccessible != nil {
		return nil
	}
	folder, err := t.store.CreateFolder(t.parent, InaccessibleCategory)
	if err != nil {
		return fmt.Errorf("create inaccessible folder: %w", err)
	}
	t.inaccessible = &Bucket{FolderID: folder.ID}
	return nil
}

// FileInaccessible moves b into the inaccessible folder.
// EnsureInaccessible must have succeeded first.
func (t *Tree) FileInaccessible(b model.Bookmark) error {
	t.mu.Lock()
	bucket := t.inaccessible
	t.mu.Unlock()
	if bucket == nil {
		return ErrNoInaccessibleFolder
	}
	return t.materialize(b, bucket.FolderID, &bucket.Bookmarks)
}

// FileUnclassified moves b into the unclassified folder. It never fails: when
// the store refuses, b is still recorded in the bucket and left in place.
func (t *Tree) FileUnclassified(b model.Bookmark) {
	t.mu.Lock()
	if t.unclassified == nil {
		t.unclassified = &Bucket{}
	}
	bucket := t.unclassified
	if bucket.FolderID == "" {
		folder, err := t.store.CreateFolder(t.parent, UnclassifiedCategory)
		if err != nil {
			t.log.Error("create unclassified folder failed", zap.Error(err))
		} else {
			bucket.FolderID = folder.ID
		}
	}
	folderID := bucket.FolderID
	t.mu.Unlock()

	if folderID != "" {
		err := t.materialize(b, folderID, &bucket.Bookmarks)
		if err == nil {
			return
		}
		t.log.Error("file unclassified bookmark failed",
			zap.String("id", b.ID), zap.String("url", b.URL), zap.Error(err))
	}

	t.mu.Lock()
	bucket.Bookmarks = append(bucket.Bookmarks, b)
	t.mu.Unlock()
}

// materialize copies b into folderID, records it, then removes the original.
func (t *Tree) materialize(b model.Bookmark, folderID string, list *[]model.Bookmark) error {
	if _, err := t.store.CreateBookmark(folderID, b.Title, b.URL); err != nil {
		return fmt.Errorf("create bookmark %q: %w", b.Title, err)
	}

	t.mu.Lock()
	*list = append(*list, b)
	t.mu.Unlock()

	t.removeOriginal(b)
	return nil
}

// removeOriginal deletes b after its copy was filed. A failed removal leaves
// a duplicate behind and is only logged.
func (t *Tree) removeOriginal(b model.Bookmark) {
	if err := t.store.Remove(b.ID); err != nil {
		t.log.Warn("remove original bookmark failed",
			zap.String("id", b.ID), zap.String("url", b.URL), zap.Error(err))
	}
}

// DropEmptyInaccessible removes the inaccessible folder if nothing was filed
// into it.
func (t *Tree) DropEmptyInaccessible() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inaccessible == nil {
		return
	}
	children, err := t.store.Children(t.inaccessible.FolderID)
	if err != nil || len(children) > 0 {
		return
	}
	if err := t.store.Remove(t.inaccessible.FolderID); err != nil {
		t.log.Warn("remove empty inaccessible folder failed", zap.Error(err))
		return
	}
	t.inaccessible = nil
}

// Categories returns the main category names in creation order.
// The overflow and fallback buckets are not included.
func (t *Tree) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Category returns the node for a main category.
func (t *Tree) Category(name string) (*CategoryNode, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.categories[name]
	return node, ok
}

// Overflow returns the overflow node, or nil if nothing overflowed.
func (t *Tree) Overflow() *CategoryNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overflow
}

// Unclassified returns the unclassified bucket, or nil if unused.
func (t *Tree) Unclassified() *Bucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unclassified
}

// Inaccessible returns the inaccessible bucket, or nil if it was not
// created or was dropped empty.
func (t *Tree) Inaccessible() *Bucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inaccessible
}

// Count returns the number of bookmarks recorded anywhere in the tree.
func (t *Tree) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, node := range t.categories {
		total += node.Count()
	}
	if t.overflow != nil {
		total += t.overflow.Count()
	}
	if t.unclassified != nil {
		total += len(t.unclassified.Bookmarks)
	}
	if t.inaccessible != nil {
		total += len(t.inaccessible.Bookmarks)
	}
	return total
}

// Locations maps every recorded bookmark id to the buckets holding it,
// formatted as "Main" or "Main/Sub".
func (t *Tree) Locations() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	loc := make(map[string][]string)
	add := func(path string, list []model.Bookmark) {
		for _, b := range list {
			loc[b.ID] = append(loc[b.ID], path)
		}
	}
	addNode := func(name string, node *CategoryNode) {
		add(name, node.Bookmarks)
		for sub, sn := range node.SubCategories {
			add(name+"/"+sub, sn.Bookmarks)
		}
	}

	for name, node := range t.categories {
		addNode(name, node)
	}
	if t.overflow != nil {
		addNode(OverflowCategory, t.overflow)
	}
	if t.unclassified != nil {
		add(UnclassifiedCategory, t.unclassified.Bookmarks)
	}
	if t.inaccessible != nil {
		add(InaccessibleCategory, t.inaccessible.Bookmarks)
	}
	return loc
}

// MarshalJSON encodes the tree as name -> node, with the overflow and
// fallback buckets under their folder names.
func (t *Tree) MarshalJSON() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]any, len(t.categories)+3)
	for name, node := range t.categories {
		out[name] = node
	}
	if t.overflow != nil {
		out[OverflowCategory] = t.overflow
	}
	if t.unclassified != nil {
		out[UnclassifiedCategory] = bucketNode(t.unclassified)
	}
	if t.inaccessible != nil {
		out[InaccessibleCategory] = bucketNode(t.inaccessible)
	}
	return json.Marshal(out)
}

func bucketNode(b *Bucket) *CategoryNode {
	node := newCategoryNode(b.FolderID)
	node.Bookmarks = append(node.Bookmarks, b.Bookmarks...)
	return node
}

// Summary is a display-friendly view of one top-level entry.
type Summary struct {
	Name          string
	Count         int
	SubCategories []SubSummary
}

// SubSummary is a display-friendly view of one sub-category.
type SubSummary struct {
	Name  string
	Count int
}

// Summaries lists categories in creation order, then overflow, unclassified
// and inaccessible buckets. Sub-categories are sorted by name.
func (t *Tree) Summaries() []Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Summary
	summarize := func(name string, node *CategoryNode) {
		s := Summary{Name: name, Count: node.Count()}
		for sub, sn := range node.SubCategories {
			s.SubCategories = append(s.SubCategories, SubSummary{Name: sub, Count: len(sn.Bookmarks)})
		}
		sort.Slice(s.SubCategories, func(i, j int) bool {
			return s.SubCategories[i].Name < s.SubCategories[j].Name
		})
		out = append(out, s)
	}

	for _, name := range t.order {
		summarize(name, t.categories[name])
	}
	if t.overflow != nil {
		summarize(OverflowCategory, t.overflow)
	}
	if t.unclassified != nil {
		out = append(out, Summary{Name: UnclassifiedCategory, Count: len(t.unclassified.Bookmarks)})
	}
	if t.inaccessible != nil {
		out = append(out, Summary{Name: InaccessibleCategory, Count: len(t.inaccessible.Bookmarks)})
	}
	return out
}
