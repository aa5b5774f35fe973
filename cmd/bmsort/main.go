package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nikbrunner/bmsort/internal/ai"
	"github.com/nikbrunner/bmsort/internal/classify"
	"github.com/nikbrunner/bmsort/internal/exporter"
	"github.com/nikbrunner/bmsort/internal/importer"
	"github.com/nikbrunner/bmsort/internal/logging"
	"github.com/nikbrunner/bmsort/internal/model"
	"github.com/nikbrunner/bmsort/internal/organize"
	"github.com/nikbrunner/bmsort/internal/probe"
	"github.com/nikbrunner/bmsort/internal/progress"
	"github.com/nikbrunner/bmsort/internal/server"
	"github.com/nikbrunner/bmsort/internal/storage"
)

// probeCacheSize bounds the accessibility results kept per process.
const probeCacheSize = 4096

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "help", "--help", "-h":
		printHelp()
	case "classify":
		runClassify(args)
	case "flatten":
		runFlatten()
	case "dedupe":
		runDedupe()
	case "import":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: bmsort import <file.html>\n")
			os.Exit(1)
		}
		runImport(args[0])
	case "export":
		var outputPath string
		if len(args) >= 1 {
			outputPath = args[0]
		}
		runExport(outputPath)
	case "key":
		runKey(args)
	case "serve":
		runServe(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	help := `bmsort - sort bookmarks into categories with an AI classifier

Usage:
  bmsort classify [flags]   Classify bookmarks into category folders
  bmsort flatten            Move every bookmark into the target folder
  bmsort dedupe             Move duplicate bookmarks into one folder
  bmsort import <file>      Import bookmarks from HTML
  bmsort export [path]      Export bookmarks to HTML
  bmsort key set <key>      Store the API key
  bmsort key show           Show the stored API key (masked)
  bmsort key copy           Copy the API key to the clipboard
  bmsort serve [--addr A]   Serve the HTTP API (default :7777)
  bmsort help               Show this help

Classify flags:
  --folder NAME         Only classify bookmarks under a fuzzy-matched folder
  --style S             smart, detailed, simple or custom
  --custom TEXT         Extra instruction for the custom style
  --max-categories N    Limit main categories (0 = unlimited)
  --max-sub N           Limit sub-categories per category (0 = unlimited)
  --levels N            Category depth, 1 or 2
  --no-sub              Do not create sub-categories
  --fuzzy               Prefer broad categories
  --no-check            Skip the accessibility check
  --plain               Print progress lines instead of the live view

Progress view:
  q/esc       Hide the view, the run continues
  ctrl+c      Same as q

Environment:
  BMSORT_API_KEY, DEEPSEEK_API_KEY   Override the stored API key
  BMSORT_ENV=prod                    Log JSON instead of console lines

Data Storage:
  ~/.config/bmsort/config.json
  ~/.config/bmsort/bookmarks.json (or bookmarks.db)
`
	fmt.Print(help)
}

// env bundles what every command loads before doing its work.
type env struct {
	config      *storage.Config
	storage     storage.Storage
	store       *model.Store
	credentials storage.CredentialStore
	log         *zap.Logger
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	os.Exit(1)
}

// loadEnv loads config, logger, storage and the bookmark store. logPath ""
// logs to stderr.
func loadEnv(logPath string) *env {
	configPath, err := storage.DefaultConfigFilePath()
	if err != nil {
		fail("getting config path", err)
	}
	config, err := storage.LoadConfig(configPath)
	if err != nil {
		fail("loading config", err)
	}

	log, err := logging.FromEnv(config.LogLevel, logPath)
	if err != nil {
		fail("creating logger", err)
	}

	dir, err := storage.DefaultDir()
	if err != nil {
		fail("getting data dir", err)
	}
	st, err := storage.OpenStorage(dir, config)
	if err != nil {
		fail("opening storage", err)
	}
	store, err := st.Load()
	if err != nil {
		fail("loading bookmarks", err)
	}

	credPath, err := storage.DefaultCredentialPath()
	if err != nil {
		fail("getting credential path", err)
	}

	return &env{
		config:      config,
		storage:     st,
		store:       store,
		credentials: storage.NewEnvCredentialStore(storage.NewFileCredentialStore(credPath)),
		log:         log,
	}
}

func (e *env) save() {
	if err := e.storage.Save(e.store); err != nil {
		fail("saving bookmarks", err)
	}
}

func (e *env) close() {
	_ = e.log.Sync()
	if c, ok := e.storage.(io.Closer); ok {
		_ = c.Close()
	}
}

// newEngine wires the classifier backend, the cached prober and a
// broadcaster into an engine.
func (e *env) newEngine(bc *progress.Broadcaster) *classify.Engine {
	prober, err := probe.NewCachedProber(probe.NewHTTPProber(probe.DefaultTimeout, e.log), probeCacheSize, organize.NormalizeURL)
	if err != nil {
		fail("creating prober", err)
	}

	return classify.NewEngine(classify.EngineParams{
		Store:       e.store,
		Credentials: e.credentials,
		NewClassifier: func(apiKey string) (classify.Classifier, error) {
			client, err := ai.NewClient(ai.Config{
				APIKey:  apiKey,
				BaseURL: e.config.BaseURL,
				Model:   e.config.Model,
				Timeout: e.config.Timeout(),
			}, e.log)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		Prober:       prober,
		Progress:     bc,
		Logger:       e.log,
		TargetFolder: e.config.TargetFolder,
	})
}

// runFlatten handles the flatten subcommand.
func runFlatten() {
	e := loadEnv("")
	defer e.close()

	res, err := organize.Flatten(e.store, e.config.TargetFolder)
	if err != nil {
		fail("flattening folders", err)
	}
	e.save()

	fmt.Printf("Moved %d bookmarks, removed %d folders\n", res.Moved, res.Removed)
}

// runDedupe handles the dedupe subcommand.
func runDedupe() {
	e := loadEnv("")
	defer e.close()

	res, err := organize.Deduplicate(e.store, e.config.TargetFolder, e.log)
	if err != nil {
		fail("cleaning duplicates", err)
	}
	if res.Duplicates == 0 {
		fmt.Println("No duplicate bookmarks found")
		return
	}
	e.save()

	fmt.Printf("Moved %d duplicate bookmarks into %q", res.Moved, organize.DuplicatesFolderName)
	if skipped := res.Duplicates - res.Moved; skipped > 0 {
		fmt.Printf(" (%d could not be moved)", skipped)
	}
	fmt.Println()
}

// runImport handles the import subcommand.
func runImport(filePath string) {
	e := loadEnv("")
	defer e.close()

	file, err := os.Open(filePath)
	if err != nil {
		fail("opening file", err)
	}
	defer file.Close()

	res, err := importer.Import(e.store, file)
	if err != nil {
		fail("parsing HTML", err)
	}
	e.save()

	fmt.Printf("Imported %d bookmarks, %d folders\n", res.Bookmarks, res.Folders)
}

// runExport handles the export subcommand.
func runExport(outputPath string) {
	if outputPath == "" {
		var err error
		outputPath, err = exporter.DefaultExportPath()
		if err != nil {
			fail("getting default export path", err)
		}
	}

	e := loadEnv("")
	defer e.close()

	html := exporter.ExportHTML(e.store)
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		fail("writing file", err)
	}

	tree := e.store.Tree()
	bookmarks := len(tree.Bookmarks())
	fmt.Printf("Exported %d bookmarks, %d folders to %s\n",
		bookmarks, len(tree.Nodes)-bookmarks, outputPath)
}

// runKey handles the key subcommand.
func runKey(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: bmsort key set <key> | show | copy\n")
		os.Exit(1)
	}

	e := loadEnv("")
	defer e.close()

	switch args[0] {
	case "set":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			fmt.Fprintf(os.Stderr, "Usage: bmsort key set <key>\n")
			os.Exit(1)
		}
		if err := e.credentials.Set(strings.TrimSpace(args[1])); err != nil {
			fail("storing API key", err)
		}
		fmt.Println("API key saved")
	case "show":
		key, err := e.credentials.Get()
		if err != nil {
			fail("reading API key", err)
		}
		if key == "" {
			fmt.Println("No API key configured")
			return
		}
		fmt.Println(storage.MaskCredential(key))
	case "copy":
		key, err := e.credentials.Get()
		if err != nil {
			fail("reading API key", err)
		}
		if key == "" {
			fmt.Fprintf(os.Stderr, "No API key configured\n")
			os.Exit(1)
		}
		if err := clipboard.WriteAll(key); err != nil {
			fail("copying to clipboard", err)
		}
		fmt.Println("API key copied to clipboard")
	default:
		fmt.Fprintf(os.Stderr, "Unknown key command %q\n", args[0])
		os.Exit(1)
	}
}

// runServe handles the serve subcommand.
func runServe(args []string) {
	fs := newFlagSet("serve")
	addr := fs.String("addr", ":7777", "listen address")
	parseFlags(fs, args)

	e := loadEnv("")
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := server.New(server.Params{
		Engine:       e.newEngine(progress.NewBroadcaster(0)),
		Store:        e.store,
		Storage:      e.storage,
		Credentials:  e.credentials,
		Settings:     e.config.Classification,
		TargetFolder: e.config.TargetFolder,
		Logger:       e.log,
	})

	fmt.Printf("Serving on %s\n", *addr)
	if err := srv.ListenAndServe(ctx, *addr); err != nil {
		fail("serving", err)
	}
}

// logFilePath is where the live view's logs go so they never tear the
// screen.
func logFilePath() string {
	dir, err := storage.DefaultDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bmsort.log")
}
