package analyzer

import "time"

// ProgressReporter provides callbacks for reporting analysis progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnAnalysisStart is called with the number of root documents.
	OnAnalysisStart(roots int)

	// OnDocumentAnalyzed is called after each document is loaded and scanned,
	// including documents reached only through imports.
	OnDocumentAnalyzed(url string, cached bool)

	// OnResolveStart is called before features are resolved.
	OnResolveStart(documents int)

	// OnComplete is called when analysis completes successfully.
	OnComplete(stats *Stats)
}

// Stats summarizes one analysis run.
type Stats struct {
	Documents       int
	CachedDocuments int
	Features        int
	Warnings        int
	Duration        time.Duration
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnAnalysisStart(roots int)                  {}
func (n *NoOpProgressReporter) OnDocumentAnalyzed(url string, cached bool) {}
func (n *NoOpProgressReporter) OnResolveStart(documents int)               {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                    {}
