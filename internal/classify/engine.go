// Package classify drives AI classification of bookmarks into a category
// folder hierarchy.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nikbrunner/bmsort/internal/ai"
	"github.com/nikbrunner/bmsort/internal/model"
	"github.com/nikbrunner/bmsort/internal/organize"
	"github.com/nikbrunner/bmsort/internal/probe"
	"github.com/nikbrunner/bmsort/internal/progress"
)

// BatchSize bounds how many bookmarks are in flight at once.
const BatchSize = 5

var (
	ErrNoCredential  = errors.New("classify: no API key configured")
	ErrRunInProgress = errors.New("classify: a classification run is already in progress")
)

// Classifier guesses a category for one bookmark.
type Classifier interface {
	Classify(ctx context.Context, b model.Bookmark, settings model.Settings) (ai.CategoryInfo, error)
}

// ClassifierFactory builds a Classifier for a credential.
type ClassifierFactory func(apiKey string) (Classifier, error)

// Credentials yields the backend credential; "" means none is configured.
type Credentials interface {
	Get() (string, error)
}

// Store is the bookmark store the engine mutates.
type Store interface {
	FolderStore
	organize.Store
}

// EngineParams holds the collaborators of an Engine.
type EngineParams struct {
	Store         Store
	Credentials   Credentials
	NewClassifier ClassifierFactory
	Prober        probe.Prober          // nil disables probing regardless of settings
	Progress      *progress.Broadcaster // nil drops events
	Logger        *zap.Logger
	TargetFolder  string // parent of category folders, default model.BarFolderID
	BatchSize     int    // default BatchSize
}

// Engine runs classification over lists of bookmarks, one run at a time.
type Engine struct {
	store         Store
	credentials   Credentials
	newClassifier ClassifierFactory
	prober        probe.Prober
	progress      *progress.Broadcaster
	log           *zap.Logger
	target        string
	batchSize     int

	state State
}

// NewEngine creates an Engine.
func NewEngine(p EngineParams) *Engine {
	e := &Engine{
		store:         p.Store,
		credentials:   p.Credentials,
		newClassifier: p.NewClassifier,
		prober:        p.Prober,
		progress:      p.Progress,
		log:           p.Logger,
		target:        p.TargetFolder,
		batchSize:     p.BatchSize,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.progress == nil {
		e.progress = progress.NewBroadcaster(0)
	}
	if e.target == "" {
		e.target = model.BarFolderID
	}
	if e.batchSize <= 0 {
		e.batchSize = BatchSize
	}
	return e
}

// Progress returns the broadcaster progress events are published on.
func (e *Engine) Progress() *progress.Broadcaster {
	return e.progress
}

// Snapshot returns the current run state.
func (e *Engine) Snapshot() Snapshot {
	return e.state.Snapshot()
}

// Result returns the last completed run's tree, or nil.
func (e *Engine) Result() *Tree {
	return e.state.Result()
}

// Classify runs a classification to completion. It returns ErrRunInProgress
// when another run holds the slot, and ErrNoCredential before any network
// call when no credential is configured. Per-bookmark failures never surface.
func (e *Engine) Classify(ctx context.Context, bookmarks []model.Bookmark, settings model.Settings) (*Tree, error) {
	if _, ok := e.state.TryStart(len(bookmarks)); !ok {
		return nil, ErrRunInProgress
	}

	cls, err := e.prepare()
	if err != nil {
		e.state.Fail(err)
		return nil, err
	}

	tree := e.run(ctx, cls, bookmarks, settings)
	e.state.Finish(tree)
	return tree, nil
}

// Start launches a run in the background. When a run is already active it
// returns that run's snapshot with started=false. Configuration errors are
// returned synchronously. done, when set, is called after the run finishes.
func (e *Engine) Start(ctx context.Context, bookmarks []model.Bookmark, settings model.Settings, done func(*Tree)) (snap Snapshot, started bool, err error) {
	snap, ok := e.state.TryStart(len(bookmarks))
	if !ok {
		return snap, false, nil
	}

	cls, err := e.prepare()
	if err != nil {
		e.state.Fail(err)
		return e.state.Snapshot(), false, err
	}

	go func() {
		tree := e.run(ctx, cls, bookmarks, settings)
		e.state.Finish(tree)
		if done != nil {
			done(tree)
		}
	}()
	return snap, true, nil
}

// prepare resolves the credential and builds the classifier.
func (e *Engine) prepare() (Classifier, error) {
	if e.credentials == nil || e.newClassifier == nil {
		return nil, ErrNoCredential
	}
	key, err := e.credentials.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	if strings.TrimSpace(key) == "" {
		return nil, ErrNoCredential
	}
	cls, err := e.newClassifier(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	return cls, nil
}

func (e *Engine) run(ctx context.Context, cls Classifier, bookmarks []model.Bookmark, settings model.Settings) *Tree {
	settings = settings.Normalize()
	checkAccess := settings.CheckAccessibility && e.prober != nil
	tree := NewTree(e.store, e.target, e.log)
	total := len(bookmarks)

	e.log.Info("classification started",
		zap.Int("total", total),
		zap.String("style", string(settings.Style)),
		zap.Bool("checkAccessibility", checkAccess))

	if checkAccess {
		if err := tree.EnsureInaccessible(); err != nil {
			e.log.Warn("inaccessible bookmarks will be filed as unclassified", zap.Error(err))
		}
	}

	for start := 0; start < total; start += e.batchSize {
		end := min(start+e.batchSize, total)

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				e.process(ctx, cls, tree, bookmarks[i], i, total, settings, checkAccess)
				return nil
			})
		}
		_ = g.Wait()

		e.log.Debug("batch done", zap.Int("from", start), zap.Int("to", end))
	}

	if checkAccess {
		tree.DropEmptyInaccessible()
	}
	if n := organize.PruneEmpty(e.store, e.log); n > 0 {
		e.log.Debug("pruned empty folders", zap.Int("count", n))
	}

	e.emit(100, "classification complete", total, total)
	e.log.Info("classification finished", zap.Int("total", total), zap.Int("filed", tree.Count()))
	return tree
}

// process files one bookmark, recovering any failure into the unclassified
// bucket.
func (e *Engine) process(ctx context.Context, cls Classifier, tree *Tree, b model.Bookmark, index, total int, settings model.Settings, checkAccess bool) {
	e.emit(float64(index)/float64(total)*100, "processing "+b.Title, index, total)

	if err := e.classifyOne(ctx, cls, tree, b, settings, checkAccess); err != nil {
		e.log.Warn("bookmark filed as unclassified",
			zap.String("id", b.ID), zap.String("url", b.URL), zap.Error(err))
		tree.FileUnclassified(b)
	}
}

func (e *Engine) classifyOne(ctx context.Context, cls Classifier, tree *Tree, b model.Bookmark, settings model.Settings, checkAccess bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classify %s: panic: %v", b.ID, r)
		}
	}()

	if checkAccess && !e.prober.Probe(ctx, b.URL) {
		return tree.FileInaccessible(b)
	}

	info, err := cls.Classify(ctx, b, settings)
	if err != nil {
		return err
	}
	return tree.File(b, info, settings)
}

func (e *Engine) emit(pct float64, status string, processed, total int) {
	ev := progress.Event{Progress: pct, Status: status, Processed: processed, Total: total}
	e.state.Update(ev)
	e.progress.Publish(ev)
}

// Collect lists the bookmarks of a store snapshot in document order, each
// pointing at its parent folder.
func Collect(tree *model.Tree) []model.Bookmark {
	var out []model.Bookmark
	for _, i := range tree.PreOrder() {
		n := tree.Nodes[i]
		if n.IsFolder {
			continue
		}
		b := model.Bookmark{ID: n.ID, Title: n.Title, URL: n.URL, CreatedAt: n.CreatedAt}
		if n.Parent >= 0 {
			parent := tree.Nodes[n.Parent].ID
			b.FolderID = &parent
		}
		out = append(out, b)
	}
	return out
}
