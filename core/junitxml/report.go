package junitxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Status is the recorded outcome of one test case in one run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	// StatusError marks a test that errored rather than asserted; the
	// classifier treats it as non-passing, same as StatusFailed.
	StatusError Status = "error"
)

// Passing reports whether the status counts as passing for classification.
func (s Status) Passing() bool {
	return s == StatusPassed
}

// StatusMap holds one status per canonical node identifier for one run.
// Skipped tests are never entered.
type StatusMap map[string]Status

type testcase struct {
	Classname string      `xml:"classname,attr"`
	Name      string      `xml:"name,attr"`
	Failure   *caseDetail `xml:"failure"`
	Error     *caseDetail `xml:"error"`
	Skipped   *caseDetail `xml:"skipped"`
}

type caseDetail struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// Parse reads a JUnit XML document and returns the status map. <testcase>
// elements are collected at any depth, so both <testsuites> and bare
// <testsuite> roots work. A <failure> child maps to failed, an <error>
// child to error, a <skipped> child omits the test entirely, and a test
// case with none of the three is passed.
func Parse(r io.Reader) (StatusMap, error) {
	statuses := StatusMap{}
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse junit xml: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "testcase" {
			continue
		}
		var tc testcase
		if err := decoder.DecodeElement(&tc, &start); err != nil {
			return nil, fmt.Errorf("parse testcase element: %w", err)
		}
		nodeID := FromClassname(tc.Classname, tc.Name).String()
		switch {
		case tc.Failure != nil:
			statuses[nodeID] = StatusFailed
		case tc.Error != nil:
			statuses[nodeID] = StatusError
		case tc.Skipped != nil:
			// omitted: skipped is distinct from failure and carries no
			// comparable outcome
		default:
			statuses[nodeID] = StatusPassed
		}
	}
	return statuses, nil
}

// ParseReport parses the report file at path and deletes it afterwards,
// whether or not parsing succeeded, so a stale report can never leak into a
// later run. A missing file is an error: without a report there is no
// status data to classify.
func ParseReport(path string) (StatusMap, error) {
	// #nosec G304 -- report path is chosen by the harness, not external input.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open junit report: %w", err)
	}
	defer func() {
		_ = file.Close()
		_ = os.Remove(path)
	}()
	return Parse(file)
}
