package importer

import (
	"time"

	"github.com/JonMunkholm/tvimport/internal/catalog"
)

// Phase names the step of a record's import that failed.
type Phase string

const (
	PhaseBegin          Phase = "begin"
	PhaseParse          Phase = "parse"
	PhaseDuplicateCheck Phase = "duplicate-check"
	PhaseInsertShow     Phase = "insert-show"
	PhaseLinkGenres     Phase = "link-genres"
	PhaseLinkCreators   Phase = "link-creators"
	PhaseLinkNetworks   Phase = "link-networks"
	PhaseLinkStudios    Phase = "link-studios"
	PhaseLinkCast       Phase = "link-cast"
	PhaseCommit         Phase = "commit"
)

// FailedRecord describes one record that was not imported.
type FailedRecord struct {
	Line   int    // source line of the record
	Key    string // raw ID cell, "<missing>" when absent
	Phase  Phase
	Code   string // support code, see package failure
	Reason string
}

// Result summarizes a run. Every record ends up in exactly one of Imported,
// Skipped, Failed or Discarded.
type Result struct {
	RunID string
	Total int

	// Imported counts records whose show row was committed.
	Imported int
	// Skipped counts records whose show already existed.
	Skipped int
	// Failed counts records that failed while being processed.
	Failed int
	// Discarded counts records that succeeded but were lost when their
	// batch was rolled back or failed to commit, including repeats of a
	// show whose first copy was in that batch. A rerun imports them.
	Discarded int

	Commits  int
	Failures []FailedRecord
	Duration time.Duration

	// Counts are table sizes after the run; nil if they could not be read.
	Counts catalog.Counts
}

// Processed returns the number of records accounted for so far.
func (r *Result) Processed() int {
	return r.Imported + r.Skipped + r.Failed + r.Discarded
}
