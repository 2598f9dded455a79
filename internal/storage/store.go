package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// MainSection is the only section the configuration file uses.
const MainSection = "main"

// Pair is one key/value setting.
type Pair struct {
	Key   string
	Value string
}

// Config is the persisted configuration read from, or written to, disk.
type Config struct {
	path  string
	pairs []Pair
}

// Path returns the file the configuration lives in.
func (c *Config) Path() string { return c.path }

// Lookup returns the persisted value of key.
func (c *Config) Lookup(key string) (string, bool) {
	for _, p := range c.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Pairs returns a copy of the settings in file order.
func (c *Config) Pairs() []Pair {
	out := make([]Pair, len(c.pairs))
	copy(out, c.pairs)
	return out
}

// LoadOrCreate reads the configuration at path. When the file is absent it is
// created with exactly defaults under [main] and those defaults are returned;
// created reports which of the two happened. An existing file is never
// overwritten.
func LoadOrCreate(path string, defaults []Pair) (cfg *Config, created bool, err error) {
	cfg, err = Load(path)
	if err == nil {
		return cfg, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	won, err := create(path, defaults)
	if err != nil {
		return nil, false, err
	}
	if !won {
		// Another process created the file first; theirs is authoritative.
		cfg, err = Load(path)
		return cfg, false, err
	}

	return &Config{path: path, pairs: clonePairs(defaults)}, true, nil
}

// Load parses an existing configuration file. A missing file yields an error
// matching fs.ErrNotExist; anything unreadable or malformed is a
// *ConfigParseError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &ConfigParseError{Path: path, Err: err}
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
		AllowNonUniqueSections:     true,
	}, data)
	if err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	sections, err := file.SectionsByName(MainSection)
	if err != nil {
		return nil, &ConfigParseError{Path: path, Err: fmt.Errorf("missing [%s] section", MainSection)}
	}
	if len(sections) > 1 {
		return nil, &ConfigParseError{Path: path, Err: fmt.Errorf("section [%s] appears %d times", MainSection, len(sections))}
	}

	keys := sections[0].Keys()
	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		if n := len(k.ValueWithShadows()); n > 1 {
			return nil, &ConfigParseError{Path: path, Err: fmt.Errorf("option %q in section [%s] appears %d times", k.Name(), MainSection, n)}
		}
		pairs = append(pairs, Pair{Key: k.Name(), Value: k.Value()})
	}
	return &Config{path: path, pairs: pairs}, nil
}

// Encode renders pairs as an INI document with a single [main] section.
func Encode(pairs []Pair) ([]byte, error) {
	file := ini.Empty()
	section, err := file.NewSection(MainSection)
	if err != nil {
		return nil, fmt.Errorf("new section: %w", err)
	}
	for _, p := range pairs {
		if _, err := section.NewKey(p.Key, p.Value); err != nil {
			return nil, fmt.Errorf("new key %q: %w", p.Key, err)
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// create writes pairs to a temporary file and links it into place so readers
// only ever observe a complete file. It returns false when path appeared in the
// meantime.
func create(path string, pairs []Pair) (bool, error) {
	data, err := Encode(pairs)
	if err != nil {
		return false, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close temp config: %w", err)
	}

	linkErr := os.Link(tmpName, path)
	if linkErr == nil {
		return true, nil
	}
	if errors.Is(linkErr, fs.ErrExist) {
		return false, nil
	}

	// Hard links are unsupported on some filesystems; rename is still atomic
	// but would replace a file created since the check below.
	if _, err := os.Lstat(path); err == nil {
		return false, nil
	}
	if err := os.Rename(tmpName, path); err != nil {
		return false, fmt.Errorf("install config %s: %w", path, err)
	}
	return true, nil
}

func clonePairs(src []Pair) []Pair {
	out := make([]Pair, len(src))
	copy(out, src)
	return out
}
