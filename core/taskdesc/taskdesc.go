// Package taskdesc loads and validates the task descriptor JSON files the
// verification harness consumes: one descriptor per instance, carrying the
// code patch, the test patch, and the baseline commit.
package taskdesc

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/davidahmann/fixcheck/core/errs"
	"github.com/davidahmann/fixcheck/core/fsx"
)

//go:embed schema.json
var schemaJSON []byte

var allowedLanguages = map[string]struct{}{
	"python":     {},
	"java":       {},
	"typescript": {},
	"javascript": {},
	"go":         {},
	"rust":       {},
	"c":          {},
	"c++":        {},
}

// Content categories are exact-match; the upstream corpus labels them in
// Chinese.
var allowedCategories = map[string]struct{}{
	"计算":   {},
	"通用工具": {},
	"可视化":  {},
	"系统":   {},
	"时间":   {},
	"网络":   {},
	"加密":   {},
	"其他":   {},
}

// StringList accepts either a JSON string or an array of strings, the two
// spellings descriptors use for language and content_category.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings")
	}
	*l = StringList(many)
	return nil
}

// Descriptor is one verification task.
type Descriptor struct {
	InstanceID             string     `json:"instance_id"`
	Patch                  string     `json:"patch"`
	Repo                   string     `json:"repo"`
	BaseCommit             string     `json:"base_commit"`
	HintsText              string     `json:"hints_text"`
	CreatedAt              string     `json:"created_at"`
	TestPatch              string     `json:"test_patch"`
	ProblemStatement       string     `json:"problem_statement"`
	EnvironmentSetupCommit string     `json:"environment_setup_commit"`
	FailToPass             []string   `json:"FAIL_TO_PASS"`
	PassToPass             []string   `json:"PASS_TO_PASS"`
	Language               StringList `json:"language"`
	ContentCategory        StringList `json:"content_category"`
}

// InstanceRef is a parsed instance identifier of the form owner__repo-prID.
type InstanceRef struct {
	Owner string
	Repo  string
	PRID  string
}

// ParseInstanceID splits an identifier like "google__pytype-1353". The PR
// id is cut from the right so repository names may contain dashes, and the
// owner from the left so repository names may contain double underscores.
func ParseInstanceID(id string) (InstanceRef, error) {
	dash := strings.LastIndex(id, "-")
	if dash < 0 {
		return InstanceRef{}, fmt.Errorf("instance id %q: missing -prID suffix", id)
	}
	repoPart, prID := id[:dash], id[dash+1:]
	if prID == "" || strings.Trim(prID, "0123456789") != "" {
		return InstanceRef{}, fmt.Errorf("instance id %q: PR id %q is not numeric", id, prID)
	}
	owner, repo, found := strings.Cut(repoPart, "__")
	if !found || owner == "" || repo == "" {
		return InstanceRef{}, fmt.Errorf("instance id %q: missing owner__repo separator", id)
	}
	return InstanceRef{Owner: owner, Repo: repo, PRID: prID}, nil
}

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaJSON)
	if err != nil {
		panic(fmt.Sprintf("taskdesc: embedded schema does not compile: %v", err))
	}
	return schema
}

// Validate checks raw descriptor JSON against the embedded schema plus the
// value rules the schema cannot express (language and category whitelists,
// instance id format).
func Validate(raw []byte) error {
	result := compiledSchema.ValidateJSON(raw)
	if !result.IsValid() {
		return errs.Wrap(fmt.Errorf("descriptor schema validation failed: %v", result.Errors), errs.CategoryInput, "descriptor_invalid")
	}

	var desc Descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return errs.Wrap(fmt.Errorf("decode descriptor: %w", err), errs.CategoryInput, "descriptor_invalid")
	}
	for _, lang := range desc.Language {
		if _, ok := allowedLanguages[strings.ToLower(lang)]; !ok {
			return errs.Wrap(fmt.Errorf("language %q is not supported", lang), errs.CategoryInput, "descriptor_language_invalid")
		}
	}
	for _, category := range desc.ContentCategory {
		if _, ok := allowedCategories[category]; !ok {
			return errs.Wrap(fmt.Errorf("content category %q is not recognized", category), errs.CategoryInput, "descriptor_category_invalid")
		}
	}
	if _, err := ParseInstanceID(desc.InstanceID); err != nil {
		return errs.Wrap(err, errs.CategoryInput, "descriptor_instance_id_invalid")
	}
	return nil
}

// Load reads and validates the descriptor at path.
func Load(path string) (Descriptor, error) {
	// #nosec G304 -- descriptor path comes from the operator.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, errs.Wrap(fmt.Errorf("read descriptor: %w", err), errs.CategoryInput, "descriptor_unreadable")
	}
	if err := Validate(raw); err != nil {
		return Descriptor{}, err
	}
	var desc Descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return Descriptor{}, errs.Wrap(fmt.Errorf("decode descriptor: %w", err), errs.CategoryInput, "descriptor_invalid")
	}
	return desc, nil
}

// WritePatches materializes the descriptor's diffs as test.patch and
// code.patch inside dir, the layout the harness expects.
func (d Descriptor) WritePatches(dir string) (testPatch, codePatch string, err error) {
	testPatch = filepath.Join(dir, "test.patch")
	codePatch = filepath.Join(dir, "code.patch")
	if err := fsx.WriteFileAtomic(testPatch, []byte(d.TestPatch), 0o644); err != nil {
		return "", "", fmt.Errorf("write test patch: %w", err)
	}
	if err := fsx.WriteFileAtomic(codePatch, []byte(d.Patch), 0o644); err != nil {
		return "", "", fmt.Errorf("write code patch: %w", err)
	}
	return testPatch, codePatch, nil
}
