package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/mvp-joe/featurescan/internal/analyzer"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter renders analysis progress as a progress bar.
type CLIProgressReporter struct {
	out         io.Writer
	documentBar *progressbar.ProgressBar
	analyzed    int
}

// NewCLIProgressReporter creates a reporter writing to out.
func NewCLIProgressReporter(out io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{out: out}
}

// OnAnalysisStart sizes the bar by the roots; imports grow it as they load.
func (c *CLIProgressReporter) OnAnalysisStart(roots int) {
	c.analyzed = 0
	c.documentBar = progressbar.NewOptions(roots,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Analyzing documents"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("docs/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnDocumentAnalyzed(url string, cached bool) {
	if c.documentBar == nil {
		return
	}
	c.analyzed++
	if c.analyzed > c.documentBar.GetMax() {
		c.documentBar.ChangeMax(c.analyzed)
	}
	c.documentBar.Add(1)
}

func (c *CLIProgressReporter) OnResolveStart(documents int) {
	if c.documentBar != nil {
		c.documentBar.Finish()
		c.documentBar = nil
	}
}

func (c *CLIProgressReporter) OnComplete(stats *analyzer.Stats) {
	fmt.Fprintf(c.out, "✓ Analysis complete: %d features in %d documents (%.1fs)\n",
		stats.Features, stats.Documents, stats.Duration.Seconds())
	if stats.CachedDocuments > 0 {
		fmt.Fprintf(c.out, "  Cached documents: %d\n", stats.CachedDocuments)
	}
	if stats.Warnings > 0 {
		fmt.Fprintf(c.out, "  Warnings: %d\n", stats.Warnings)
	}
}
