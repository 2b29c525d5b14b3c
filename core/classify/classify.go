// Package classify buckets per-test status transitions between a pre-change
// and a post-change run and derives the resolution verdict.
package classify

import (
	"sort"

	"github.com/davidahmann/fixcheck/core/junitxml"
)

// Category names one of the four status transitions.
type Category string

const (
	FailToPass Category = "FAIL_TO_PASS"
	PassToPass Category = "PASS_TO_PASS"
	FailToFail Category = "FAIL_TO_FAIL"
	PassToFail Category = "PASS_TO_FAIL"
)

// Categories lists the four transition categories in their persisted order.
var Categories = []Category{FailToPass, PassToPass, FailToFail, PassToFail}

// Buckets holds the identifiers of one category, split into the desirable
// and undesirable side. FAIL_TO_PASS and PASS_TO_PASS fill the success list;
// FAIL_TO_FAIL and PASS_TO_FAIL fill the failure list.
type Buckets struct {
	Success []string `json:"success"`
	Failure []string `json:"failure"`
}

// Outcome is the computed classification of one verification job. It is
// produced once and read-only afterwards.
type Outcome struct {
	Categories map[Category]Buckets
	// Removed lists identifiers seen pre-change but absent post-change.
	// They are still classified through the table (a missing post status
	// defaults to failed), but surfaced here so a legitimately removed
	// test showing up as PASS_TO_FAIL can be spotted.
	Removed []string
	// Resolved is true when at least one test moved failed→passed and no
	// test stayed failed or regressed.
	Resolved bool
}

// EmptyBuckets returns all four categories with empty, non-nil lists, the
// shape persisted before classification has run.
func EmptyBuckets() map[Category]Buckets {
	buckets := make(map[Category]Buckets, len(Categories))
	for _, category := range Categories {
		buckets[category] = Buckets{Success: []string{}, Failure: []string{}}
	}
	return buckets
}

// Classify computes the union of identifiers observed in either run and
// places each into exactly one category, iterating in sorted order so the
// output is deterministic. An identifier missing from pre defaults to
// passed and one missing from post defaults to failed: both biases flag
// change rather than hide it. Error statuses count as non-passing. Classify
// is a pure function and never fails, including over empty maps.
func Classify(pre, post junitxml.StatusMap) Outcome {
	all := make([]string, 0, len(pre)+len(post))
	seen := make(map[string]struct{}, len(pre)+len(post))
	for id := range pre {
		all = append(all, id)
		seen[id] = struct{}{}
	}
	for id := range post {
		if _, dup := seen[id]; !dup {
			all = append(all, id)
		}
	}
	sort.Strings(all)

	outcome := Outcome{
		Categories: EmptyBuckets(),
		Removed:    []string{},
	}
	for _, id := range all {
		preStatus, inPre := pre[id]
		postStatus, inPost := post[id]
		prePassing := !inPre || preStatus.Passing()
		postPassing := inPost && postStatus.Passing()
		if inPre && !inPost {
			outcome.Removed = append(outcome.Removed, id)
		}

		switch {
		case !prePassing && postPassing:
			appendSuccess(outcome.Categories, FailToPass, id)
		case prePassing && postPassing:
			appendSuccess(outcome.Categories, PassToPass, id)
		case !prePassing && !postPassing:
			appendFailure(outcome.Categories, FailToFail, id)
		default:
			appendFailure(outcome.Categories, PassToFail, id)
		}
	}

	outcome.Resolved = len(outcome.Categories[FailToPass].Success) > 0 &&
		len(outcome.Categories[FailToFail].Failure) == 0 &&
		len(outcome.Categories[PassToFail].Failure) == 0
	return outcome
}

func appendSuccess(categories map[Category]Buckets, category Category, id string) {
	buckets := categories[category]
	buckets.Success = append(buckets.Success, id)
	categories[category] = buckets
}

func appendFailure(categories map[Category]Buckets, category Category, id string) {
	buckets := categories[category]
	buckets.Failure = append(buckets.Failure, id)
	categories[category] = buckets
}
