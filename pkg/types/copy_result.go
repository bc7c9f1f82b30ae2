package types

// Outcome is what happened to a single sync rule during the copy stage
type Outcome int

const (
	// Copied means the destination did not exist and was created
	Copied Outcome = iota
	// Overwritten means an existing destination was replaced
	Overwritten
	// SkippedOverwriteDenied means the destination exists and the rule forbids replacing it
	SkippedOverwriteDenied
	// SkippedSameFile means source and destination are the same file
	SkippedSameFile
	// MissingSource means the local file was absent or not a regular file
	MissingSource
	// Failed means the copy itself returned an I/O error
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case Overwritten:
		return "overwritten"
	case SkippedOverwriteDenied:
		return "skipped"
	case SkippedSameFile:
		return "skipped_same_file"
	case MissingSource:
		return "missing_source"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// CopyResult holds the outcome of applying one sync rule
type CopyResult struct {
	Rule            SyncRule `json:"rule"`
	SourcePath      string   `json:"source_path"`
	DestinationPath string   `json:"destination_path"`
	Outcome         Outcome  `json:"outcome"`
	Bytes           int64    `json:"bytes"`
	DryRun          bool     `json:"dry_run,omitempty"`
	Error           error    `json:"-"`
}

// OK reports whether the rule ended without an error
func (r CopyResult) OK() bool {
	return r.Outcome != MissingSource && r.Outcome != Failed
}
