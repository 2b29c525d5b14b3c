// Package record assembles and persists the verification record of one job.
package record

import (
	"github.com/davidahmann/fixcheck/core/classify"
)

// TestsStatus is the persisted form of the four transition categories. The
// field order matches the category order downstream consumers expect.
type TestsStatus struct {
	FailToPass classify.Buckets `json:"FAIL_TO_PASS"`
	PassToPass classify.Buckets `json:"PASS_TO_PASS"`
	FailToFail classify.Buckets `json:"FAIL_TO_FAIL"`
	PassToFail classify.Buckets `json:"PASS_TO_FAIL"`
}

// Record is the persisted outcome of one verification job. It is created
// once per job and never mutated after being written; a later job for the
// same instance overwrites the whole file. The json tags are a fixed
// contract with downstream automation, including the patch_is_None spelling.
type Record struct {
	PatchIsNone              bool        `json:"patch_is_None"`
	PatchExists              bool        `json:"patch_exists"`
	PatchSuccessfullyApplied bool        `json:"patch_successfully_applied"`
	Resolved                 bool        `json:"resolved"`
	TestsStatus              TestsStatus `json:"tests_status"`
}

// New returns a record with all four category buckets present and empty, so
// a job aborted before classification still persists the full shape.
func New() Record {
	return Record{
		PatchExists: true,
		TestsStatus: TestsStatus{
			FailToPass: emptyBuckets(),
			PassToPass: emptyBuckets(),
			FailToFail: emptyBuckets(),
			PassToFail: emptyBuckets(),
		},
	}
}

// SetOutcome copies a classification outcome into the record.
func (r *Record) SetOutcome(outcome classify.Outcome) {
	r.TestsStatus = TestsStatus{
		FailToPass: outcome.Categories[classify.FailToPass],
		PassToPass: outcome.Categories[classify.PassToPass],
		FailToFail: outcome.Categories[classify.FailToFail],
		PassToFail: outcome.Categories[classify.PassToFail],
	}
	r.Resolved = outcome.Resolved
}

func emptyBuckets() classify.Buckets {
	return classify.Buckets{Success: []string{}, Failure: []string{}}
}
