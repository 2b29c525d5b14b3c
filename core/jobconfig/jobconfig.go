// Package jobconfig loads verification job settings from a fixcheck.yaml
// file, with defaults matching the containerized layout the harness grew up
// in: patches beside the config, the repository in a subdirectory.
package jobconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "fixcheck.yaml"

// instanceIDEnv overrides the configured instance id, mirroring how the
// surrounding container pipeline injects it.
const instanceIDEnv = "FIXCHECK_INSTANCE_ID"

// Config describes one verification job.
type Config struct {
	// InstanceID keys the persisted verification record.
	InstanceID string `yaml:"instance_id"`
	// RepoDir is the git working tree under test.
	RepoDir string `yaml:"repo_dir"`
	// Baseline is the revision every run is reset to.
	Baseline string `yaml:"baseline"`

	TestPatch string `yaml:"test_patch"`
	CodePatch string `yaml:"code_patch"`

	// Output is where the verification record is persisted.
	Output string `yaml:"output"`
	// Report is the transient JUnit report path; empty picks a
	// pid-qualified name so a stale report from another process can never
	// be confused with ours.
	Report string `yaml:"report"`

	// Pytest overrides the test runner binary.
	Pytest string `yaml:"pytest"`
	// TestExtension marks test-source files when scanning patches.
	TestExtension string `yaml:"test_extension"`
	// DefaultScope replaces the built-in fallback scope.
	DefaultScope []string `yaml:"default_scope"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		TestPatch: "test.patch",
		CodePatch: "code.patch",
		Output:    "results.json",
		Report:    fmt.Sprintf("report_%d.xml", os.Getpid()),
	}
}

// Load reads path over the defaults. A missing file is fine when path is
// the default location; an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	// #nosec G304 -- config path comes from the operator.
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if id := os.Getenv(instanceIDEnv); id != "" {
		c.InstanceID = id
	}
}

// Validate checks the fields a verification job cannot run without. It is
// called after flag overrides have been merged in.
func (c Config) Validate() error {
	if c.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if c.RepoDir == "" {
		return fmt.Errorf("repo_dir is required")
	}
	if c.Baseline == "" {
		return fmt.Errorf("baseline is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	return nil
}
