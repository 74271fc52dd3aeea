package stage

import (
	_ "embed"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var stageNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validatePlanSchema validates the raw plan document against the JSON schema.
func validatePlanSchema(doc map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return configErrorf("validate plan schema: %v", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return configErrorf("plan schema validation failed: %s", strings.Join(errs, "; "))
}

// validateStages enforces the structural invariants of a stage plan:
// unique backward-referencing names, monotonic phase order, interactive
// stages confined to the qa phase, and load-time resolvability of every
// template placeholder.
func validateStages(stages []Stage) error {
	if len(stages) == 0 {
		return configErrorf("plan defines no stages")
	}

	earlier := map[string]bool{}
	lastRank := -1
	sawIntegration := false

	for i, s := range stages {
		if !stageNameRe.MatchString(s.Name) {
			return configErrorf("stage %d: invalid name %q", i, s.Name)
		}
		if s.Name == SeedName {
			return configErrorf("stage name %q is reserved for the input prompt", SeedName)
		}
		if earlier[s.Name] {
			return configErrorf("duplicate stage name %q", s.Name)
		}

		rank := s.Phase.rank()
		if rank < lastRank {
			return configErrorf("stage %q: phase %s out of order (phases must run diagnosis, qa, integration)", s.Name, s.Phase)
		}
		lastRank = rank
		if s.Phase == PhaseIntegration {
			sawIntegration = true
		}

		if s.Interactive && s.Phase != PhaseQA {
			return configErrorf("stage %q: interactive stages must be in the qa phase", s.Name)
		}
		if !s.Interactive && (s.MaxFollowups > 0 || s.FollowupTemplate != "") {
			return configErrorf("stage %q: follow-up settings require interactive: true", s.Name)
		}
		if s.MaxFollowups < 0 {
			return configErrorf("stage %q: max_followups must be >= 0", s.Name)
		}
		if s.MaxFollowups > 0 && s.FollowupTemplate == "" {
			return configErrorf("stage %q: max_followups set but no followup_template given", s.Name)
		}

		seenInput := map[string]bool{}
		for _, in := range s.RequiredInputs {
			if in == s.Name {
				return configErrorf("stage %q: required input references itself", s.Name)
			}
			if seenInput[in] {
				return configErrorf("stage %q: duplicate required input %q", s.Name, in)
			}
			seenInput[in] = true
			if in != SeedName && !earlier[in] {
				return configErrorf("stage %q: required input %q is not an earlier stage", s.Name, in)
			}
		}

		for _, ph := range Placeholders(s.Template) {
			if ph != SeedName && !earlier[ph] {
				return configErrorf("stage %q: template references %q, which is not an earlier stage", s.Name, ph)
			}
		}
		if s.FollowupTemplate != "" {
			for _, ph := range Placeholders(s.FollowupTemplate) {
				if ph != "question" && ph != "answer" {
					return configErrorf("stage %q: followup template may only reference {{question}} and {{answer}}, found %q", s.Name, ph)
				}
			}
		}

		earlier[s.Name] = true
	}

	if !sawIntegration {
		return configErrorf("plan has no integration stage; the pipeline would produce no output")
	}
	return nil
}
