package config

import (
	"strconv"
	"strings"

	"github.com/eugenenazirov/seqforge/internal/platform"
)

// Key identifies one persisted configuration setting.
type Key string

const (
	KeyLogLevel    Key = "loglevel"
	KeyEmail       Key = "email"
	KeyDataDir     Key = "data_dir"
	KeyLogDir      Key = "log_dir"
	KeyCachedFuncs Key = "cached_funcs"
	KeyApe         Key = "ape"
	KeyPrimers     Key = "primers"
	KeyEnzymes     Key = "enzymes"

	// ConfigDirKey is resolved from the environment or the platform default
	// before the config file can be located; it is never persisted.
	ConfigDirKey Key = "config_dir"
)

const (
	// DefaultLogLevel is the numeric WARNING level.
	DefaultLogLevel    = 30
	defaultEmail       = "someone@example.com"
	defaultCachedFuncs = "Genbank_nucleotide"
	defaultApe         = "put/path/to/ape/here"
	defaultPrimers     = "put/path/to/primers/here"
	defaultEnzymes     = "put/path/to/enzymes/here"
)

var keys = []Key{
	KeyLogLevel,
	KeyEmail,
	KeyDataDir,
	KeyLogDir,
	KeyCachedFuncs,
	KeyApe,
	KeyPrimers,
	KeyEnzymes,
}

// CacheableFuncs lists the function names accepted in cached_funcs.
var CacheableFuncs = []string{
	"Genbank_nucleotide",
	"Anneal",
	"Assembly",
	"download_text",
	"Dseqrecord_synced",
}

// Keys returns the persisted keys in file order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

// IsKey reports whether name is one of the persisted keys.
func IsKey(name string) bool {
	for _, k := range keys {
		if string(k) == name {
			return true
		}
	}
	return false
}

func (k Key) String() string { return string(k) }

// Var returns the namespaced environment variable name for k.
func (k Key) Var(prefix string) string {
	return prefix + "_" + string(k)
}

// Entry is a key with its value.
type Entry struct {
	Key   Key
	Value string
}

// Defaults returns the built-in value of every key, in file order. The
// directory defaults come from the platform paths.
func Defaults(paths platform.Paths) []Entry {
	return []Entry{
		{Key: KeyLogLevel, Value: strconv.Itoa(DefaultLogLevel)},
		{Key: KeyEmail, Value: defaultEmail},
		{Key: KeyDataDir, Value: paths.DataDir},
		{Key: KeyLogDir, Value: paths.LogDir},
		{Key: KeyCachedFuncs, Value: defaultCachedFuncs},
		{Key: KeyApe, Value: defaultApe},
		{Key: KeyPrimers, Value: defaultPrimers},
		{Key: KeyEnzymes, Value: defaultEnzymes},
	}
}

var placeholders = map[Key]string{
	KeyApe:     defaultApe,
	KeyPrimers: defaultPrimers,
	KeyEnzymes: defaultEnzymes,
}

// IsPlaceholder reports whether value is the unedited default of a path key
// the user is expected to fill in.
func IsPlaceholder(key Key, value string) bool {
	p, ok := placeholders[key]
	return ok && value == p
}

// SplitList parses a comma-separated setting such as cached_funcs, dropping
// blanks.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
