package features

import "github.com/eugenenazirov/seqforge/internal/config"

// GelSimulation needs the external plotting tools used to render gels.
func GelSimulation() Feature {
	return Feature{
		Name: "gel simulation",
		Probes: []Probe{
			Executable("gnuplot"),
			Executable("convert"),
		},
	}
}

// ApEIntegration needs the ApE editor and its primer and enzyme files at the
// configured locations.
func ApEIntegration(snap *config.Snapshot) Feature {
	return Feature{
		Name: "ApE integration",
		Probes: []Probe{
			File(string(config.KeyApe), snap.Get(config.KeyApe)),
			File(string(config.KeyPrimers), snap.Get(config.KeyPrimers)),
			File(string(config.KeyEnzymes), snap.Get(config.KeyEnzymes)),
		},
	}
}

// Defaults returns the features probed at bootstrap. ApE integration is only
// probed once at least one of its paths has been configured.
func Defaults(snap *config.Snapshot) []Feature {
	out := []Feature{GelSimulation()}
	for _, key := range []config.Key{config.KeyApe, config.KeyPrimers, config.KeyEnzymes} {
		if !config.IsPlaceholder(key, snap.Get(key)) {
			return append(out, ApEIntegration(snap))
		}
	}
	return out
}
