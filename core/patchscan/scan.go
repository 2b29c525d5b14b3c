// Package patchscan derives the test scope of a verification job from a
// unified diff's file headers.
package patchscan

import (
	"bufio"
	"os"
	"sort"
	"strings"
)

// Source records how a scope was obtained, so callers can tell a read error
// apart from a patch that simply touches no test files.
type Source string

const (
	// SourcePatch means the scope was derived from the patch headers.
	SourcePatch Source = "patch"
	// SourceDefaultMissing means the patch file does not exist.
	SourceDefaultMissing Source = "default_missing_patch"
	// SourceDefaultUnreadable means the patch exists but could not be read.
	SourceDefaultUnreadable Source = "default_unreadable_patch"
	// SourceDefaultNoMatches means the patch was read but contained no
	// qualifying test-source paths.
	SourceDefaultNoMatches Source = "default_no_matches"
)

// Scope is the ordered set of test files to execute in both runs of a job.
type Scope struct {
	Files  []string
	Source Source
}

// FromPatch reports whether the scope came out of the patch itself rather
// than the default fallback.
func (s Scope) FromPatch() bool {
	return s.Source == SourcePatch
}

// Options controls scope resolution.
type Options struct {
	// Extension marks test-source files, ".py" by default.
	Extension string
	// Defaults is the fallback scope used whenever the patch yields nothing.
	Defaults []string
}

// DefaultScope is the fixed fallback executed when a patch names no test
// files, so the harness always has something to run.
var DefaultScope = []string{
	"tests/reference.py",
	"tests/test_kerns.py",
	"tests/test_likelihoods.py",
}

// Resolve scans the diff headers of the patch at path and returns every
// touched path with the test-source extension, deduplicated and sorted.
// Resolution never fails: a missing patch, a read error, or a patch with no
// qualifying paths all fall back to the default scope, with the Source
// variant saying which case occurred.
func Resolve(path string, opts Options) Scope {
	extension := opts.Extension
	if extension == "" {
		extension = ".py"
	}
	defaults := opts.Defaults
	if len(defaults) == 0 {
		defaults = DefaultScope
	}

	// #nosec G304 -- patch location is job configuration, not external input.
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Scope{Files: defaults, Source: SourceDefaultMissing}
		}
		return Scope{Files: defaults, Source: SourceDefaultUnreadable}
	}
	defer func() { _ = file.Close() }()

	matched := map[string]struct{}{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		// Strip exactly the role prefix the marker implies, so a repo path
		// that itself begins with a/ or b/ survives intact.
		var role string
		switch {
		case strings.HasPrefix(line, "--- a/"):
			role = "a/"
		case strings.HasPrefix(line, "+++ b/"):
			role = "b/"
		default:
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) < 2 {
			continue
		}
		candidate := strings.TrimSpace(strings.TrimPrefix(fields[1], role))
		if !strings.HasSuffix(candidate, extension) {
			continue
		}
		matched[candidate] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return Scope{Files: defaults, Source: SourceDefaultUnreadable}
	}

	if len(matched) == 0 {
		return Scope{Files: defaults, Source: SourceDefaultNoMatches}
	}

	files := make([]string, 0, len(matched))
	for candidate := range matched {
		files = append(files, candidate)
	}
	sort.Strings(files)
	return Scope{Files: files, Source: SourcePatch}
}
