package build

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Report describes one build.
type Report struct {
	ID       string        `yaml:"id"`
	Started  time.Time     `yaml:"started"`
	Duration time.Duration `yaml:"duration"`
	Output   string        `yaml:"output,omitempty"`
	Units    []UnitReport  `yaml:"units"`
}

type UnitReport struct {
	Path       string `yaml:"path"`
	Class      string `yaml:"class,omitempty"`
	Cached     bool   `yaml:"cached,omitempty"`
	FirstLabel int    `yaml:"first_label"`
	NextLabel  int    `yaml:"next_label,omitempty"`
	Error      string `yaml:"error,omitempty"`
}

func newReport() *Report {
	return &Report{ID: uuid.NewString(), Started: time.Now()}
}

func (r *Report) finish() {
	r.Duration = time.Since(r.Started)
}

// Classes lists the compiled class names in output order.
func (r *Report) Classes() []string {
	var out []string
	for _, u := range r.Units {
		if u.Error == "" {
			out = append(out, u.Class)
		}
	}
	return out
}

// Failed counts the classes that did not compile.
func (r *Report) Failed() int {
	n := 0
	for _, u := range r.Units {
		if u.Error != "" {
			n++
		}
	}
	return n
}

// WriteFile writes the report as YAML.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
