package bootstrap

import "fmt"

// Stage is a state of the bootstrap sequence.
type Stage int

const (
	StageUninitialized Stage = iota
	StageConfigLoaded
	StageEnvironmentResolved
	StageDirectoriesEnsured
	StageLoggerReady
	StageFeaturesProbed
	StageReady
)

var stageNames = [...]string{
	StageUninitialized:       "Uninitialized",
	StageConfigLoaded:        "ConfigLoaded",
	StageEnvironmentResolved: "EnvironmentResolved",
	StageDirectoriesEnsured:  "DirectoriesEnsured",
	StageLoggerReady:         "LoggerReady",
	StageFeaturesProbed:      "FeaturesProbed",
	StageReady:               "Ready",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError reports the stage the sequence failed to reach.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("bootstrap: reaching %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
