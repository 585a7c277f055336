// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the dnsrotate configuration file and turns it
// into a validated [rotator.Config].
//
// The file is YAML; JSON documents are accepted as well since JSON is a
// subset of YAML. Every field is optional:
//
//	interval: 300          # seconds, minimum 180
//	interface: auto        # or a service name such as "Wi-Fi"
//	fallback_interface: Wi-Fi
//	health_ttl: 1800       # seconds
//	lock_file: /var/run/dnsrotate.pid
//	log_level: info
//	restore_on_exit: false
//	use_sudo: false
//	probe:
//	  domain: google.com
//	  timeout: 1s
//	candidates:
//	  - label: Cloudflare
//	    primary: 1.1.1.1
//	    secondary: 1.0.0.1
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/dns-rotator/src/rotator"
)

// Default paths.
const (
	DefaultLockFile = "/var/run/dnsrotate.pid"
	DefaultLogLevel = "info"
	homeDirName     = ".dnsrotate"
	lockFileName    = "dnsrotate.pid"
	configFileName  = "config.yaml"
)

// ErrInvalidConfig is returned when the file cannot be used.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Candidate is one server pair as written in the file.
type Candidate struct {
	Label     string `yaml:"label"`
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

// Probe holds health probe settings.
type Probe struct {
	Domain  string   `yaml:"domain"`
	Timeout Duration `yaml:"timeout"`
}

// File is the on-disk representation. Zero values mean "use default".
type File struct {
	Interval          int         `yaml:"interval"`
	Interface         string      `yaml:"interface"`
	FallbackInterface *string     `yaml:"fallback_interface"`
	HealthTTL         int         `yaml:"health_ttl"`
	LockFile          string      `yaml:"lock_file"`
	LogLevel          string      `yaml:"log_level"`
	LogFile           string      `yaml:"log_file"`
	RestoreOnExit     bool        `yaml:"restore_on_exit"`
	UseSudo           bool        `yaml:"use_sudo"`
	MaxIfaceFailures  int         `yaml:"max_interface_failures"`
	Probe             Probe       `yaml:"probe"`
	Candidates        []Candidate `yaml:"candidates"`
}

// Settings is the fully resolved configuration: the engine part plus the
// process-level settings the binary needs.
type Settings struct {
	Rotator       rotator.Config
	LockFile      string
	LogLevel      string
	LogFile       string
	RestoreOnExit bool
	UseSudo       bool
	Source        string // path the file was loaded from, empty for defaults
}

// Duration accepts either a Go duration string ("1500ms") or a number
// of seconds.
type Duration time.Duration

// UnmarshalYAML implements [yaml.Unmarshaler].
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var secs float64
	if err := node.Decode(&secs); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Parse decodes a configuration document.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &f, nil
}

// Load reads and resolves the file at path.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	s, err := f.Resolve()
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// Discover loads the first file found in [SearchPaths]. When none
// exists it returns the defaults.
func Discover() (Settings, error) {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return (&File{}).Resolve()
}

// SearchPaths lists the locations [Discover] tries, in order.
func SearchPaths() []string {
	paths := []string{
		"/etc/dnsrotate/" + configFileName,
		"/usr/local/etc/dnsrotate/" + configFileName,
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, homeDirName, configFileName))
	}
	return paths
}

// Resolve applies defaults and validates the file.
func (f *File) Resolve() (Settings, error) {
	cfg := rotator.DefaultConfig()

	if f.Interval < 0 || f.HealthTTL < 0 || f.Probe.Timeout < 0 {
		return Settings{}, fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if f.Interval > 0 {
		cfg.Interval = time.Duration(f.Interval) * time.Second
	}
	if f.Interface != "" {
		cfg.Interface = f.Interface
	}
	if f.FallbackInterface != nil {
		cfg.FallbackInterface = *f.FallbackInterface
	}
	if f.HealthTTL > 0 {
		cfg.HealthTTL = time.Duration(f.HealthTTL) * time.Second
	}
	if f.MaxIfaceFailures > 0 {
		cfg.MaxInterfaceFailures = f.MaxIfaceFailures
	}
	if f.Probe.Domain != "" {
		cfg.ProbeDomain = f.Probe.Domain
	}
	if f.Probe.Timeout > 0 {
		cfg.ProbeTimeout = time.Duration(f.Probe.Timeout)
	}

	if len(f.Candidates) > 0 {
		cfg.Candidates = cfg.Candidates[:0]
		seen := make(map[string]struct{}, len(f.Candidates))
		for i, c := range f.Candidates {
			pair, err := rotator.ParsePair(c.Primary, c.Secondary, c.Label)
			if err != nil {
				return Settings{}, fmt.Errorf("%w: candidate %d: %v", ErrInvalidConfig, i, err)
			}
			if _, dup := seen[pair.Key()]; dup {
				continue
			}
			seen[pair.Key()] = struct{}{}
			cfg.Candidates = append(cfg.Candidates, pair)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := Settings{
		Rotator:       cfg,
		LockFile:      f.LockFile,
		LogLevel:      f.LogLevel,
		LogFile:       f.LogFile,
		RestoreOnExit: f.RestoreOnExit,
		UseSudo:       f.UseSudo,
	}
	if s.LockFile == "" {
		s.LockFile = DefaultLockPath()
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	return s, nil
}

// DefaultLockPath returns [DefaultLockFile] when its directory is
// writable, otherwise a path under the user's home directory.
func DefaultLockPath() string {
	if dirWritable(filepath.Dir(DefaultLockFile)) {
		return DefaultLockFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), lockFileName)
	}
	return filepath.Join(home, homeDirName, lockFileName)
}

func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".dnsrotate-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
