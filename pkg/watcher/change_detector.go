package watcher

// ChangeAnalysis describes what changed and whether the analysis must re-run
type ChangeAnalysis struct {
	NeedAnalysis bool
	Reason       string
	ChangedFiles []string
}

// AnalyzeChanges decides how to react to a debounced change event. A removed
// edge file keeps the previous result; the analysis re-runs once it reappears.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeWritten:
		analysis.NeedAnalysis = true
		analysis.Reason = "edge file changed"
	case ChangeTypeRemoved:
		analysis.Reason = "edge file removed"
	}

	return analysis
}
