package watcher

import (
	"github.com/ritzau/bellman-viz/pkg/config"
)

// ChangeAnalysis describes which reloaded settings differ and how they can be applied
type ChangeAnalysis struct {
	SpeedChanged  bool
	SourceChanged bool
	TargetChanged bool
	GraphChanged  bool     // Node count, seed or generation budget
	NeedsRestart  []string // Keys that only take effect on restart
	ChangedFiles  []string
}

// Any reports whether anything changed
func (a *ChangeAnalysis) Any() bool {
	return a.SpeedChanged || a.SourceChanged || a.TargetChanged || a.GraphChanged || len(a.NeedsRestart) > 0
}

// AnalyzeChanges compares the running configuration with a reloaded one
func AnalyzeChanges(event ChangeEvent, old, updated *config.Config) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	analysis.SpeedChanged = old.Speed != updated.Speed
	analysis.SourceChanged = old.Source != updated.Source
	analysis.TargetChanged = old.Target != updated.Target
	analysis.GraphChanged = old.Nodes != updated.Nodes ||
		old.Seed != updated.Seed ||
		old.MaxAttempts != updated.MaxAttempts

	if old.Port != updated.Port {
		analysis.NeedsRestart = append(analysis.NeedsRestart, "port")
	}
	if old.WebMode != updated.WebMode {
		analysis.NeedsRestart = append(analysis.NeedsRestart, "web")
	}
	if old.MarkUnbounded != updated.MarkUnbounded {
		analysis.NeedsRestart = append(analysis.NeedsRestart, "mark-unbounded")
	}
	if old.JSONLogs != updated.JSONLogs {
		analysis.NeedsRestart = append(analysis.NeedsRestart, "json-logs")
	}

	return analysis
}
