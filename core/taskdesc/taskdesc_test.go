package taskdesc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDescriptor() map[string]any {
	return map[string]any{
		"instance_id":              "google__pytype-1353",
		"patch":                    "--- a/pytype/io.py\n+++ b/pytype/io.py\n",
		"repo":                     "google/pytype",
		"base_commit":              "0b797cc8f8127419b0758bef409a9046d54a39bb",
		"hints_text":               "",
		"created_at":               "2023-06-01T00:00:00Z",
		"test_patch":               "--- a/tests/test_io.py\n+++ b/tests/test_io.py\n",
		"problem_statement":        "pytype crashes on ...",
		"environment_setup_commit": "0b797cc8f8127419b0758bef409a9046d54a39bb",
		"FAIL_TO_PASS":             []string{"tests/test_io.py::test_roundtrip"},
		"PASS_TO_PASS":             []string{},
		"language":                 "Python",
		"content_category":         []string{"计算"},
	}
}

func marshal(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func TestValidateAcceptsWellFormedDescriptor(t *testing.T) {
	require.NoError(t, Validate(marshal(t, validDescriptor())))
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	doc := validDescriptor()
	delete(doc, "base_commit")
	require.Error(t, Validate(marshal(t, doc)))
}

func TestValidateRejectsEmptyFailToPass(t *testing.T) {
	doc := validDescriptor()
	doc["FAIL_TO_PASS"] = []string{}
	require.Error(t, Validate(marshal(t, doc)))
}

func TestValidateAllowsEmptyHintsAndPassToPass(t *testing.T) {
	doc := validDescriptor()
	doc["hints_text"] = ""
	doc["PASS_TO_PASS"] = []string{}
	require.NoError(t, Validate(marshal(t, doc)))
}

func TestValidateRejectsUnknownLanguage(t *testing.T) {
	doc := validDescriptor()
	doc["language"] = "cobol"
	require.Error(t, Validate(marshal(t, doc)))
}

func TestValidateRejectsUnknownContentCategory(t *testing.T) {
	doc := validDescriptor()
	doc["content_category"] = "sorting"
	require.Error(t, Validate(marshal(t, doc)))
}

func TestValidateAcceptsCategoryList(t *testing.T) {
	doc := validDescriptor()
	doc["content_category"] = []string{"计算", "其他"}
	require.NoError(t, Validate(marshal(t, doc)))
}

func TestValidateAcceptsLanguageList(t *testing.T) {
	doc := validDescriptor()
	doc["language"] = []string{"python", "c++"}
	require.NoError(t, Validate(marshal(t, doc)))
}

func TestParseInstanceID(t *testing.T) {
	ref, err := ParseInstanceID("google__pytype-1353")
	require.NoError(t, err)
	assert.Equal(t, InstanceRef{Owner: "google", Repo: "pytype", PRID: "1353"}, ref)
}

func TestParseInstanceIDRepoWithDashesAndUnderscores(t *testing.T) {
	ref, err := ParseInstanceID("my-org__some__repo-name-42")
	require.NoError(t, err)
	assert.Equal(t, "my-org", ref.Owner)
	assert.Equal(t, "some__repo-name", ref.Repo)
	assert.Equal(t, "42", ref.PRID)
}

func TestParseInstanceIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "no-separator-123x", "owner__repo", "owner-123", "owner__repo-"} {
		_, err := ParseInstanceID(id)
		assert.Error(t, err, "id %q should be rejected", id)
	}
}

func TestLoadAndWritePatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "google__pytype-1353.json")
	require.NoError(t, os.WriteFile(path, marshal(t, validDescriptor()), 0o600))

	desc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "google__pytype-1353", desc.InstanceID)
	assert.Equal(t, StringList{"Python"}, desc.Language)

	out := t.TempDir()
	testPatch, codePatch, err := desc.WritePatches(out)
	require.NoError(t, err)

	testContent, err := os.ReadFile(testPatch)
	require.NoError(t, err)
	assert.Equal(t, desc.TestPatch, string(testContent))

	codeContent, err := os.ReadFile(codePatch)
	require.NoError(t, err)
	assert.Equal(t, desc.Patch, string(codeContent))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
