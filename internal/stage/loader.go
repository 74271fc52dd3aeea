package stage

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlanFile is the stage plan file name inside the project directory.
const PlanFile = "stages.yaml"

//go:embed defaults
var defaultsFS embed.FS

type planDoc struct {
	Stages []stageDoc `yaml:"stages"`
}

type stageDoc struct {
	Name             string   `yaml:"name"`
	Phase            string   `yaml:"phase"`
	Template         string   `yaml:"template"`
	Interactive      bool     `yaml:"interactive"`
	RequiredInputs   []string `yaml:"required_inputs"`
	MaxFollowups     int      `yaml:"max_followups"`
	FollowupTemplate string   `yaml:"followup_template"`
}

// Load reads and validates the stage plan from dir. When dir has no plan
// file, the embedded default plan is used. All template files are read here,
// so a running pipeline never touches configuration again.
func Load(dir string) ([]Stage, error) {
	path := filepath.Join(dir, PlanFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default()
		}
		return nil, fmt.Errorf("stat stage plan: %w", err)
	}
	return loadFS(os.DirFS(dir))
}

// Default returns the embedded six-stage plan.
func Default() ([]Stage, error) {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		return nil, fmt.Errorf("open embedded defaults: %w", err)
	}
	return loadFS(sub)
}

func loadFS(fsys fs.FS) ([]Stage, error) {
	raw, err := fs.ReadFile(fsys, PlanFile)
	if err != nil {
		return nil, fmt.Errorf("read stage plan: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, configErrorf("parse %s: %v", PlanFile, err)
	}
	if err := validatePlanSchema(doc); err != nil {
		return nil, err
	}

	var plan planDoc
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, configErrorf("parse %s: %v", PlanFile, err)
	}

	stages := make([]Stage, 0, len(plan.Stages))
	for _, d := range plan.Stages {
		phase, err := ParsePhase(d.Phase)
		if err != nil {
			return nil, configErrorf("stage %q: %v", d.Name, err)
		}
		tmpl, err := readTemplate(fsys, d.Template, d.Name)
		if err != nil {
			return nil, err
		}
		s := Stage{
			Name:           d.Name,
			Phase:          phase,
			Template:       tmpl,
			Interactive:    d.Interactive,
			RequiredInputs: d.RequiredInputs,
			MaxFollowups:   d.MaxFollowups,
		}
		if d.FollowupTemplate != "" {
			s.FollowupTemplate, err = readTemplate(fsys, d.FollowupTemplate, d.Name)
			if err != nil {
				return nil, err
			}
		}
		stages = append(stages, s)
	}

	if err := validateStages(stages); err != nil {
		return nil, err
	}
	return stages, nil
}

func readTemplate(fsys fs.FS, path, stageName string) (string, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", configErrorf("stage %q: template file %s: %v", stageName, path, err)
	}
	tmpl := strings.TrimSpace(string(data))
	if tmpl == "" {
		return "", configErrorf("stage %q: template file %s is empty", stageName, path)
	}
	return tmpl, nil
}

// WriteDefaults copies the embedded plan and templates into dir so the
// operator can edit them. Existing files are left untouched.
func WriteDefaults(dir string) error {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		return fmt.Errorf("open embedded defaults: %w", err)
	}
	return fs.WalkDir(sub, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, path)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
		data, err := fs.ReadFile(sub, path)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", path, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		return nil
	})
}
