package lane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type flaggedCandidate struct {
	isTest *bool
}

func (c flaggedCandidate) LaneFlag() *bool { return c.isTest }

type bucketedCandidate struct {
	bucket string
}

func (c bucketedCandidate) StorageBucket() string { return c.bucket }

func boolPtr(v bool) *bool { return &v }

func TestFromFlag(t *testing.T) {
	assert.Equal(t, Unknown, FromFlag(nil))
	assert.Equal(t, Test, FromFlag(boolPtr(true)))
	assert.Equal(t, Real, FromFlag(boolPtr(false)))
}

func TestClassify_ExplicitFlagWins(t *testing.T) {
	table := NewBucketTable()

	assert.Equal(t, Test, table.Classify(flaggedCandidate{isTest: boolPtr(true)}))
	assert.Equal(t, Real, table.Classify(flaggedCandidate{isTest: boolPtr(false)}))
	assert.Equal(t, Unknown, table.Classify(flaggedCandidate{isTest: nil}))
}

func TestClassify_BucketHeuristic(t *testing.T) {
	table := NewBucketTable()

	assert.Equal(t, Test, table.Classify(bucketedCandidate{bucket: DefaultTestBucket}))
	assert.Equal(t, Real, table.Classify(bucketedCandidate{bucket: DefaultRealBucket}))
	assert.Equal(t, Unknown, table.Classify(bucketedCandidate{bucket: "some-other-bucket"}))
}

func TestClassify_UnclassifiableCandidate(t *testing.T) {
	table := NewBucketTable()
	assert.Equal(t, Unknown, table.Classify("not a candidate"))
}

// A candidate with a known lane is never visible under the other lane;
// an Unknown candidate is visible under every lane.
func TestVisible_LaneIsolation(t *testing.T) {
	table := NewBucketTable()

	testDoc := bucketedCandidate{bucket: DefaultTestBucket}
	realDoc := bucketedCandidate{bucket: DefaultRealBucket}
	unknownDoc := bucketedCandidate{bucket: "legacy-bucket"}

	assert.True(t, table.Visible(testDoc, Test))
	assert.False(t, table.Visible(testDoc, Real))
	assert.True(t, table.Visible(realDoc, Real))
	assert.False(t, table.Visible(realDoc, Test))

	assert.True(t, table.Visible(unknownDoc, Test))
	assert.True(t, table.Visible(unknownDoc, Real))
}

func TestVisible_StrictModeHidesUnknown(t *testing.T) {
	table := NewBucketTable()
	table.cfg.Store(&bucketConfig{
		TestBucket: DefaultTestBucket,
		RealBucket: DefaultRealBucket,
		Strict:     true,
	})

	unknownDoc := bucketedCandidate{bucket: "legacy-bucket"}
	assert.False(t, table.Visible(unknownDoc, Test))
	assert.False(t, table.Visible(unknownDoc, Real))

	// Known lanes are unaffected.
	assert.True(t, table.Visible(bucketedCandidate{bucket: DefaultRealBucket}, Real))
}

func TestLaneString(t *testing.T) {
	assert.Equal(t, "test", Test.String())
	assert.Equal(t, "real", Real.String())
	assert.Equal(t, "unknown", Unknown.String())
}
