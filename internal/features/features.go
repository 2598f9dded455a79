package features

import (
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Probe checks one capability.
type Probe struct {
	Name  string
	Check func() bool
}

// Feature is a user-visible capability made of several probes.
type Feature struct {
	Name   string
	Probes []Probe
}

// Capability is the result of one probe.
type Capability struct {
	Name      string `json:"name" yaml:"name"`
	Available bool   `json:"available" yaml:"available"`
}

// Set is the outcome of evaluating a feature.
type Set struct {
	Feature      string       `json:"feature" yaml:"feature"`
	Capabilities []Capability `json:"capabilities" yaml:"capabilities"`
}

// Available reports whether name was probed and found.
func (s Set) Available(name string) bool {
	for _, c := range s.Capabilities {
		if c.Name == name {
			return c.Available
		}
	}
	return false
}

// Missing returns the unavailable capabilities in probe order.
func (s Set) Missing() []string {
	var out []string
	for _, c := range s.Capabilities {
		if !c.Available {
			out = append(out, c.Name)
		}
	}
	return out
}

// Complete reports whether every capability is available.
func (s Set) Complete() bool { return len(s.Missing()) == 0 }

// Evaluate runs every probe of f in order. It has no side effects of its own.
func Evaluate(f Feature) Set {
	set := Set{
		Feature:      f.Name,
		Capabilities: make([]Capability, 0, len(f.Probes)),
	}
	for _, p := range f.Probes {
		set.Capabilities = append(set.Capabilities, Capability{Name: p.Name, Available: check(p)})
	}
	return set
}

// Run evaluates f and emits one diagnostic: a warning naming the missing
// capabilities, or an info entry when the feature is fully available.
func Run(logger *zap.Logger, f Feature) Set {
	set := Evaluate(f)
	if logger == nil {
		return set
	}

	if missing := set.Missing(); len(missing) > 0 {
		logger.Warn(f.Name+" will NOT be available",
			zap.String("missing", strings.Join(missing, ", ")),
		)
		return set
	}
	logger.Info(f.Name + " will be available")
	return set
}

// RunAll runs each feature in order.
func RunAll(logger *zap.Logger, fs []Feature) []Set {
	out := make([]Set, 0, len(fs))
	for _, f := range fs {
		out = append(out, Run(logger, f))
	}
	return out
}

func check(p Probe) (ok bool) {
	if p.Check == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p.Check()
}

// Executable probes for a program on PATH.
func Executable(name string) Probe {
	return Probe{
		Name: name,
		Check: func() bool {
			_, err := exec.LookPath(name)
			return err == nil
		},
	}
}

// File probes for a regular file or directory at path.
func File(name, path string) Probe {
	return Probe{
		Name: name,
		Check: func() bool {
			if path == "" {
				return false
			}
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// Static reports a fixed availability.
func Static(name string, available bool) Probe {
	return Probe{Name: name, Check: func() bool { return available }}
}
