// Package stage defines the pipeline stage plan: an ordered, validated list
// of stage definitions loaded from configuration before any network call.
package stage

import "fmt"

// SeedName is the reserved context entry holding the operator's input prompt.
// No stage may use it as its own name.
const SeedName = "input"

// Phase groups stages. Phases are strictly ordered: all diagnosis stages run
// before all qa stages, which run before all integration stages.
type Phase string

const (
	PhaseDiagnosis   Phase = "diagnosis"
	PhaseQA          Phase = "qa"
	PhaseIntegration Phase = "integration"
)

func (p Phase) rank() int {
	switch p {
	case PhaseDiagnosis:
		return 0
	case PhaseQA:
		return 1
	case PhaseIntegration:
		return 2
	}
	return -1
}

// ParsePhase converts a config string into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if p.rank() < 0 {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

// Stage is one unit of pipeline work. Template and FollowupTemplate hold the
// resolved template text, not file paths.
type Stage struct {
	Name             string
	Phase            Phase
	Template         string
	Interactive      bool
	RequiredInputs   []string
	MaxFollowups     int
	FollowupTemplate string
}

// ConfigError reports an invalid stage plan. It is always fatal and never
// a retry condition.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "stage config: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
