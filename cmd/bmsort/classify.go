package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/nikbrunner/bmsort/internal/classify"
	"github.com/nikbrunner/bmsort/internal/model"
	"github.com/nikbrunner/bmsort/internal/picker"
	"github.com/nikbrunner/bmsort/internal/progress"
	"github.com/nikbrunner/bmsort/internal/search"
	"github.com/nikbrunner/bmsort/internal/storage"
	"github.com/nikbrunner/bmsort/internal/tui"
)

// summaryWidth is the line width of summaries printed outside the live view.
const summaryWidth = 80

type classifyOptions struct {
	folder   string
	plain    bool
	settings model.Settings
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("bmsort "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// parseClassifyFlags applies command-line overrides on top of the
// configured settings.
func parseClassifyFlags(args []string, defaults model.Settings) (classifyOptions, error) {
	opts := classifyOptions{settings: defaults}
	s := &opts.settings

	fs := newFlagSet("classify")
	fs.StringVar(&opts.folder, "folder", "", "only classify bookmarks under this folder (fuzzy)")
	style := fs.String("style", string(s.Style), "smart, detailed, simple or custom")
	fs.StringVar(&s.CustomRequirement, "custom", s.CustomRequirement, "extra instruction for the custom style")
	fs.IntVar(&s.MaxCategories, "max-categories", s.MaxCategories, "limit main categories (0 = unlimited)")
	fs.IntVar(&s.MaxSubCategories, "max-sub", s.MaxSubCategories, "limit sub-categories per category (0 = unlimited)")
	fs.IntVar(&s.MaxLevels, "levels", s.MaxLevels, "category depth")
	noSub := fs.Bool("no-sub", false, "do not create sub-categories")
	fs.BoolVar(&s.FuzzyClassification, "fuzzy", s.FuzzyClassification, "prefer broad categories")
	noCheck := fs.Bool("no-check", false, "skip the accessibility check")
	fs.BoolVar(&opts.plain, "plain", false, "print progress lines instead of the live view")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	s.Style = model.Style(*style)
	if !s.Style.Valid() {
		return opts, fmt.Errorf("unknown style %q", *style)
	}
	if s.Style == model.StyleCustom && strings.TrimSpace(s.CustomRequirement) == "" {
		return opts, errors.New("--style custom needs --custom")
	}
	if *noSub {
		s.CreateSubCategories = false
	}
	if *noCheck {
		s.CheckAccessibility = false
	}
	return opts, nil
}

// runClassify handles the classify subcommand.
func runClassify(args []string) {
	configPath, err := storage.DefaultConfigFilePath()
	if err != nil {
		fail("getting config path", err)
	}
	config, err := storage.LoadConfig(configPath)
	if err != nil {
		fail("loading config", err)
	}
	opts, err := parseClassifyFlags(args, config.Classification)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fail("parsing flags", err)
	}

	interactive := !opts.plain && isatty.IsTerminal(os.Stdout.Fd())
	logPath := ""
	if interactive {
		logPath = logFilePath()
	}

	e := loadEnv(logPath)
	defer e.close()

	bookmarks := selectBookmarks(e.store, opts.folder, interactive)
	if len(bookmarks) == 0 {
		fmt.Println("No bookmarks to classify")
		return
	}

	bc := progress.NewBroadcaster(0)
	engine := e.newEngine(bc)
	root := folderName(e.store, e.config.TargetFolder)

	run := classifyPlain
	if interactive {
		run = classifyLive
	}
	if err := run(engine, bc, bookmarks, opts.settings, root); err != nil {
		fail("classifying bookmarks", err)
	}
	e.save()
}

// selectBookmarks returns every bookmark, or those under the folder matching
// query. Several matches open the picker when interactive.
func selectBookmarks(store *model.Store, query string, interactive bool) []model.Bookmark {
	if query == "" {
		return classify.Collect(store.Tree())
	}

	results := search.FuzzyFindFolders(store, query)
	var chosen search.FolderResult
	switch {
	case len(results) == 0:
		fmt.Fprintf(os.Stderr, "No folder matches '%s'\n", query)
		os.Exit(1)
	case len(results) == 1:
		chosen = results[0]
	case !interactive:
		fmt.Fprintf(os.Stderr, "Folder '%s' is ambiguous:\n", query)
		for _, r := range results {
			fmt.Fprintf(os.Stderr, "  %s\n", r.Path)
		}
		os.Exit(1)
	default:
		selected, ok, err := picker.Run(results, query)
		if err != nil {
			fail("running picker", err)
		}
		if !ok {
			os.Exit(0)
		}
		chosen = selected
	}

	tree, err := store.Subtree(chosen.ID)
	if err != nil {
		fail("reading folder", err)
	}
	return classify.Collect(tree)
}

func folderName(store *model.Store, id string) string {
	if f, ok := store.GetFolderByID(id); ok {
		return f.Name
	}
	return id
}

// classifyLive runs the engine behind the bubbletea progress view. Hiding the
// view leaves the run going; the summary is printed once it ends.
func classifyLive(engine *classify.Engine, bc *progress.Broadcaster, bookmarks []model.Bookmark, settings model.Settings, root string) error {
	events, unsubscribe := bc.Subscribe()

	p := tea.NewProgram(tui.NewProgressModel(tui.ProgressParams{
		Events: events,
		Total:  len(bookmarks),
	}))

	type outcome struct {
		tree *classify.Tree
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		tree, err := engine.Classify(context.Background(), bookmarks, settings)
		unsubscribe()
		msg := tui.DoneMsg{Root: root, Err: err}
		if tree != nil {
			msg.Summaries = tree.Summaries()
		}
		p.Send(msg)
		done <- outcome{tree: tree, err: err}
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress view: %w", err)
	}

	view := final.(tui.ProgressModel)
	if view.Hidden() && !view.Done() {
		fmt.Println("Still classifying, waiting for the run to finish...")
	}
	res := <-done
	if res.err != nil {
		return res.err
	}
	if !view.Done() {
		fmt.Println(tui.RenderSummary(root, res.tree.Summaries(), tui.DefaultStyles(), summaryWidth))
	}
	return nil
}

// classifyPlain prints one line per progress event.
func classifyPlain(engine *classify.Engine, bc *progress.Broadcaster, bookmarks []model.Bookmark, settings model.Settings, root string) error {
	events, unsubscribe := bc.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			fmt.Printf("[%3.0f%%] %d/%d %s\n", ev.Progress, ev.Processed, ev.Total, ev.Status)
		}
	}()

	tree, err := engine.Classify(context.Background(), bookmarks, settings)
	unsubscribe()
	<-printed
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(tui.StripANSI(tui.RenderSummary(root, tree.Summaries(), tui.DefaultStyles(), summaryWidth)))
	return nil
}
