package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// Windows is the runtime.GOOS value for Windows.
	Windows = "windows"
	// Darwin is the runtime.GOOS value for macOS.
	Darwin = "darwin"
)

// ErrEmptyAppName is returned when a resolver is asked for an unnamed application.
var ErrEmptyAppName = errors.New("application name must not be empty")

// Paths groups the three working directories of an application.
type Paths struct {
	ConfigDir string
	DataDir   string
	LogDir    string
}

// Resolver returns the default directories for the named application.
type Resolver interface {
	Resolve(app string) (Paths, error)
}

// Static is a Resolver that always returns the same paths. It is used to pin
// directories explicitly (tests, embedding, --config-dir style overrides).
type Static Paths

// Resolve returns the fixed paths; app is ignored.
func (s Static) Resolve(string) (Paths, error) {
	return Paths(s), nil
}

// Host returns the resolver for the running operating system.
func Host() Resolver {
	return ForOS(runtime.GOOS)
}

// ForOS returns the resolver for goos. Unknown systems fall back to the
// POSIX/XDG layout.
func ForOS(goos string) Resolver {
	env := osLookup{}
	switch goos {
	case Windows:
		return windowsResolver{env: env}
	case Darwin:
		return darwinResolver{env: env}
	default:
		return xdgResolver{env: env}
	}
}

// lookup abstracts the few environment reads the resolvers need.
type lookup interface {
	Getenv(key string) string
	HomeDir() (string, error)
}

type osLookup struct{}

func (osLookup) Getenv(key string) string { return os.Getenv(key) }

func (osLookup) HomeDir() (string, error) { return os.UserHomeDir() }

type xdgResolver struct{ env lookup }

func (r xdgResolver) Resolve(app string) (Paths, error) {
	if err := checkApp(app); err != nil {
		return Paths{}, err
	}

	configHome, err := xdgDir(r.env, "XDG_CONFIG_HOME", ".config")
	if err != nil {
		return Paths{}, err
	}
	dataHome, err := xdgDir(r.env, "XDG_DATA_HOME", ".local", "share")
	if err != nil {
		return Paths{}, err
	}
	stateHome, err := xdgDir(r.env, "XDG_STATE_HOME", ".local", "state")
	if err != nil {
		return Paths{}, err
	}

	return Paths{
		ConfigDir: filepath.Join(configHome, app),
		DataDir:   filepath.Join(dataHome, app),
		LogDir:    filepath.Join(stateHome, app, "log"),
	}, nil
}

// xdgDir honours an absolute $XDG_* value and otherwise falls back to a path
// under the home directory. Relative XDG values are ignored.
func xdgDir(env lookup, variable string, fallback ...string) (string, error) {
	if dir := strings.TrimSpace(env.Getenv(variable)); dir != "" && filepath.IsAbs(dir) {
		return dir, nil
	}
	home, err := env.HomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

type darwinResolver struct{ env lookup }

func (r darwinResolver) Resolve(app string) (Paths, error) {
	if err := checkApp(app); err != nil {
		return Paths{}, err
	}
	home, err := r.env.HomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	support := filepath.Join(home, "Library", "Application Support", app)
	return Paths{
		ConfigDir: support,
		DataDir:   support,
		LogDir:    filepath.Join(home, "Library", "Logs", app),
	}, nil
}

type windowsResolver struct{ env lookup }

func (r windowsResolver) Resolve(app string) (Paths, error) {
	if err := checkApp(app); err != nil {
		return Paths{}, err
	}

	base := r.env.Getenv("LOCALAPPDATA")
	if base == "" {
		profile := r.env.Getenv("USERPROFILE")
		if profile == "" {
			home, err := r.env.HomeDir()
			if err != nil {
				return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
			}
			profile = home
		}
		base = filepath.Join(profile, "AppData", "Local")
	}

	root := filepath.Join(base, app)
	return Paths{
		ConfigDir: root,
		DataDir:   root,
		LogDir:    filepath.Join(root, "Logs"),
	}, nil
}

func checkApp(app string) error {
	if strings.TrimSpace(app) == "" {
		return ErrEmptyAppName
	}
	return nil
}
