package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/mvp-joe/featurescan/internal/analyzer"
	"github.com/mvp-joe/featurescan/internal/config"
	"github.com/mvp-joe/featurescan/internal/metadata"
	"github.com/mvp-joe/featurescan/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	rootFlag   string
	outputFlag string
	prettyFlag bool
	quietFlag  bool
	watchFlag  bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [url...]",
	Short: "Analyze components and write their metadata",
	Long: `Analyze scans documents for elements, mixins, behaviors and namespaces,
follows their imports, resolves behavior and mixin references and writes the
resulting metadata as JSON.

Without arguments every document matching paths.include under the root is
analyzed. Arguments are document URLs relative to the root.

Examples:
  # Analyze the current directory
  featurescan analyze

  # Analyze one entrypoint and write indented JSON to a file
  featurescan analyze index.html --pretty -o metadata.json

  # Re-analyze whenever a source file changes
  featurescan analyze --watch
`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&rootFlag, "root", ".", "Project root that document URLs are relative to")
	analyzeCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write metadata to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&prettyFlag, "pretty", false, "Indent the generated JSON")
	analyzeCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and warning output")
	analyzeCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and re-analyze")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootDir, err := filepath.Abs(rootFlag)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.File = outputFlag
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Output.Pretty = prettyFlag
	}

	discovery, err := analyzer.NewFileDiscovery(rootDir, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("invalid path patterns: %w", err)
	}

	var progress analyzer.ProgressReporter = &analyzer.NoOpProgressReporter{}
	if !quietFlag {
		progress = NewCLIProgressReporter(cmd.ErrOrStderr())
	}

	a, err := analyzer.New(analyzer.NewFSLoader(rootDir),
		analyzer.WithLogger(slog.Default()),
		analyzer.WithProgress(progress),
		analyzer.WithCacheSize(cfg.Analysis.CacheSize))
	if err != nil {
		return err
	}
	defer a.Close()

	run := &analyzeRun{
		analyzer:  a,
		discovery: discovery,
		urls:      args,
		cfg:       cfg,
		stdout:    cmd.OutOrStdout(),
		stderr:    cmd.ErrOrStderr(),
		quiet:     quietFlag,
	}
	if err := run.once(ctx); err != nil {
		return err
	}
	if !watchFlag {
		return nil
	}
	return run.watch(ctx, rootDir)
}

// analyzeRun is one configured analysis that can be repeated.
type analyzeRun struct {
	analyzer  *analyzer.Analyzer
	discovery *analyzer.FileDiscovery
	urls      []string
	cfg       *config.Config
	stdout    io.Writer
	stderr    io.Writer
	quiet     bool

	// reachable holds the explicit URLs and everything they imported in the
	// last run. Nil when documents are discovered.
	reachable map[string]bool
}

// once analyzes the documents, reports warnings and writes metadata.
func (r *analyzeRun) once(ctx context.Context) error {
	urls := r.urls
	if len(urls) == 0 {
		discovered, err := r.discovery.Discover()
		if err != nil {
			return fmt.Errorf("failed to discover documents: %w", err)
		}
		urls = discovered
	}
	if len(urls) == 0 {
		return fmt.Errorf("no documents match %v", r.cfg.Paths.Include)
	}

	analysis, err := r.analyzer.Analyze(ctx, urls)
	if err != nil {
		return err
	}
	if len(r.urls) > 0 {
		r.reachable = make(map[string]bool)
		for _, url := range r.urls {
			r.reachable[url] = true
			for _, dep := range analysis.Dependencies(url) {
				r.reachable[dep] = true
			}
		}
	}

	if !r.quiet {
		for _, w := range analysis.Warnings(r.cfg.Severity()) {
			fmt.Fprintln(r.stderr, w.String())
		}
	}
	return writeMetadata(metadata.Generate(analysis), r.cfg.Output, r.stdout)
}

// affects reports whether a batch of changed documents can alter the result.
// Discovered runs always re-analyze since a change may add a document.
func (r *analyzeRun) affects(changed []string) bool {
	if r.reachable == nil {
		return true
	}
	return slices.ContainsFunc(changed, func(url string) bool { return r.reachable[url] })
}

// watch re-runs the analysis after every batch of changes until ctx ends.
func (r *analyzeRun) watch(ctx context.Context, rootDir string) error {
	w, err := watcher.New(rootDir, r.discovery, watcher.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	err = w.Start(ctx, func(changed []string) {
		slog.Info("Changes detected", "documents", len(changed))
		for _, url := range changed {
			r.analyzer.Invalidate(url)
		}
		if !r.affects(changed) {
			slog.Debug("Changes do not affect the analyzed documents", "changed", changed)
			return
		}
		if err := r.once(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Analysis failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(r.stderr, "Watching for changes (Ctrl+C to stop)...")
	<-ctx.Done()
	return nil
}

// writeMetadata validates m and writes it to the configured file or stdout.
func writeMetadata(m *metadata.Metadata, out config.OutputConfig, stdout io.Writer) error {
	if err := metadata.Validate(m); err != nil {
		return fmt.Errorf("generated invalid metadata: %w", err)
	}

	var data []byte
	var err error
	if out.Pretty {
		data, err = json.MarshalIndent(m, "", "  ")
	} else {
		data, err = json.Marshal(m)
	}
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	data = append(data, '\n')

	if out.File == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out.File), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out.File, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

