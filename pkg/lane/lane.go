// Package lane classifies records and stored documents into the TEST or
// REAL isolation lane and decides lane visibility for a viewer.
package lane

// Lane identifies the isolation lane a candidate belongs to.
type Lane int

const (
	// Unknown means the candidate carries no lane flag and its storage
	// bucket is not in the bucket table. Unknown candidates stay visible
	// under every lane so that legacy rows written before lane flags
	// existed keep working.
	Unknown Lane = iota
	// Test is the sandbox lane.
	Test
	// Real is the production lane.
	Real
)

// String returns the lane name.
func (l Lane) String() string {
	switch l {
	case Test:
		return "test"
	case Real:
		return "real"
	default:
		return "unknown"
	}
}

// FromFlag converts a tri-state lane flag into a Lane. A nil flag is Unknown.
func FromFlag(isTest *bool) Lane {
	if isTest == nil {
		return Unknown
	}
	if *isTest {
		return Test
	}
	return Real
}

// Flagged is implemented by candidates that carry an explicit tri-state
// lane flag, such as approval-ledger rows.
type Flagged interface {
	LaneFlag() *bool
}

// Bucketed is implemented by candidates whose lane can be inferred from
// the storage bucket they live in, such as verified documents.
type Bucketed interface {
	StorageBucket() string
}

// Classify decides which lane a candidate belongs to. An explicit flag
// always wins; otherwise the candidate's bucket is looked up in the table.
// Candidates that are neither Flagged nor Bucketed are Unknown.
func (t *BucketTable) Classify(candidate any) Lane {
	if f, ok := candidate.(Flagged); ok {
		if l := FromFlag(f.LaneFlag()); l != Unknown {
			return l
		}
	}
	if b, ok := candidate.(Bucketed); ok {
		return t.ClassifyBucket(b.StorageBucket())
	}
	return Unknown
}

// Visible reports whether a candidate may be served to a viewer on the
// given active lane. Unknown candidates are visible under every lane
// unless the table is strict.
func (t *BucketTable) Visible(candidate any, active Lane) bool {
	switch t.Classify(candidate) {
	case active:
		return true
	case Unknown:
		return !t.strict()
	default:
		return false
	}
}
