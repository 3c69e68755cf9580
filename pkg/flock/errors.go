package flock

import "fmt"

// ConfigError reports a configuration value that cannot produce a valid
// simulation. It is returned by New and LoadConfig; no partial initialization
// happens when it is raised.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// NumericError reports a non-finite position or velocity component detected
// while computing a step. The step's partial results are discarded, the prior
// committed state stays intact and the simulation transitions to Halted.
type NumericError struct {
	Step  int
	Agent int
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("non-finite state computed for agent %d at step %d", e.Agent, e.Step)
}
