// Package junitxml parses JUnit-style XML test reports into per-test status
// maps keyed by canonical test node identifiers.
package junitxml

import (
	"strings"
	"unicode"
)

const moduleSuffix = ".py"

// NodeID identifies one test case: a module file path, an optional class
// name, and the test name. It replaces ad hoc string concatenation so the
// classifier never has to re-parse identifiers.
type NodeID struct {
	Module string
	Class  string
	Test   string
}

// FromClassname builds a NodeID from a JUnit classname attribute and test
// name. A dotted classname containing any upper-case letter is treated as a
// module path whose last segment is a class name; otherwise the whole
// classname is a flat module path. An empty classname yields a bare test
// name.
func FromClassname(classname, name string) NodeID {
	classname = strings.TrimSpace(classname)
	if classname == "" {
		return NodeID{Test: name}
	}

	parts := strings.Split(classname, ".")
	if hasUpper(classname) {
		class := parts[len(parts)-1]
		moduleParts := parts[:len(parts)-1]
		module := class + moduleSuffix
		if len(moduleParts) > 0 {
			module = strings.Join(moduleParts, "/") + moduleSuffix
		}
		return NodeID{Module: module, Class: class, Test: name}
	}
	return NodeID{Module: strings.Join(parts, "/") + moduleSuffix, Test: name}
}

// String renders the canonical identifier used as the Status Map key:
// module/path.py::ClassName::test_name, module/path.py::test_name, or the
// bare test name when no classname was reported.
func (id NodeID) String() string {
	switch {
	case id.Module == "" && id.Class == "":
		return id.Test
	case id.Class != "":
		return id.Module + "::" + id.Class + "::" + id.Test
	default:
		return id.Module + "::" + id.Test
	}
}

func hasUpper(value string) bool {
	return strings.ContainsFunc(value, unicode.IsUpper)
}
