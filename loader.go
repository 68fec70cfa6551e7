package stroll

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jtolonen/stroll/pkg/api"
)

// tourCatalog is the YAML shape of a statically authored tour catalog:
//
//	tours:
//	  - id: editor-intro
//	    title: Welcome to the editor
//	    auto_start: true
//	    allow_skip: true
//	    show_progress: true
//	    steps:
//	      - id: open-story
//	        target: "#story-list"
//	        title: Your stories
//	        body: Pick a story to start translating.
//	        placement: bottom
//	      - id: save-vocab
//	        target: "#vocab-save"
//	        title: Save words
//	        skip_when: "!user.signedIn"
//
// skip_when expressions are compiled with expr-lang/expr and evaluated
// against the environment the host supplies to LoadDefinitions.
type tourCatalog struct {
	Tours []tourSpec `yaml:"tours"`
}

type tourSpec struct {
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description"`
	AutoStart    bool       `yaml:"auto_start"`
	AllowSkip    bool       `yaml:"allow_skip"`
	ShowProgress bool       `yaml:"show_progress"`
	Steps        []stepSpec `yaml:"steps"`
}

type stepSpec struct {
	ID         string `yaml:"id"`
	Target     string `yaml:"target"`
	Title      string `yaml:"title"`
	Body       string `yaml:"body"`
	Placement  string `yaml:"placement"`
	ActionHint string `yaml:"action_hint"`
	SkipWhen   string `yaml:"skip_when"`
}

// LoadDefinitions parses a YAML tour catalog. Steps carrying a skip_when
// expression get a SkipPredicate that evaluates the expression against
// env() at every traversal decision; pass nil when no catalog uses
// expressions.
func LoadDefinitions(data []byte, env EnvFunc) ([]TourDefinition, error) {
	var catalog tourCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse tour catalog: %w", err)
	}
	if len(catalog.Tours) == 0 {
		return nil, fmt.Errorf("tour catalog contains no tours")
	}

	defs := make([]TourDefinition, 0, len(catalog.Tours))
	for _, spec := range catalog.Tours {
		def, err := spec.toDefinition(env)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadDefinitionsFile reads and parses a YAML tour catalog from path.
func LoadDefinitionsFile(path string, env EnvFunc) ([]TourDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tour catalog %s: %w", path, err)
	}
	return LoadDefinitions(data, env)
}

// RegisterCatalog parses a YAML catalog and registers every tour with eng.
func RegisterCatalog(eng Engine, data []byte, env EnvFunc) error {
	defs, err := LoadDefinitions(data, env)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := eng.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func (s tourSpec) toDefinition(env EnvFunc) (TourDefinition, error) {
	def := api.TourDefinition{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		AutoStart:    s.AutoStart,
		AllowSkip:    s.AllowSkip,
		ShowProgress: s.ShowProgress,
		Steps:        make([]api.TourStep, 0, len(s.Steps)),
	}

	for _, ss := range s.Steps {
		step := api.TourStep{
			ID:         ss.ID,
			Target:     ss.Target,
			Title:      ss.Title,
			Body:       ss.Body,
			Placement:  ss.Placement,
			ActionHint: ss.ActionHint,
		}
		if ss.SkipWhen != "" {
			pred, err := api.ExprPredicate(ss.SkipWhen, env)
			if err != nil {
				return TourDefinition{}, fmt.Errorf("tour %q step %q: %w", s.ID, ss.ID, err)
			}
			step.SkipWhen = pred
		}
		def.Steps = append(def.Steps, step)
	}

	if err := def.Validate(); err != nil {
		return TourDefinition{}, err
	}
	return def, nil
}
