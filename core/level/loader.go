package level

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

//go:embed data/levels.hcl
var embedded embed.FS

const defaultFile = "data/levels.hcl"

type hclFile struct {
	Levels []hclLevel `hcl:"level,block"`
}

type hclLevel struct {
	ID          string      `hcl:"id,label"`
	Title       string      `hcl:"title"`
	Description string      `hcl:"description,optional"`
	Objective   string      `hcl:"objective,optional"`
	Required    []string    `hcl:"required"`
	Optional    []string    `hcl:"optional,optional"`
	Available   []string    `hcl:"available"`
	Budget      float64     `hcl:"budget"`
	MaxLatency  float64     `hcl:"max_latency"`
	Steps       []hclStep   `hcl:"tutorial_step,block"`
	Wiring      []hclWiring `hcl:"wiring,block"`
}

type hclStep struct {
	Text         string   `hcl:"text"`
	CompleteWhen []string `hcl:"complete_when,optional"`
}

type hclWiring struct {
	Message string   `hcl:"message"`
	AnyOf   []string `hcl:"any_of"`
	When    []string `hcl:"when,optional"`
}

// fileLevels is the JSON/YAML document: {"levels": [...]}
type fileLevels struct {
	Levels []fileLevel `json:"levels" yaml:"levels"`
}

type fileLevel struct {
	ID            int          `json:"id" yaml:"id"`
	Title         string       `json:"title" yaml:"title"`
	Description   string       `json:"description" yaml:"description"`
	Objective     string       `json:"objective" yaml:"objective"`
	Required      []string     `json:"required_services" yaml:"required_services"`
	Optional      []string     `json:"optional_services" yaml:"optional_services"`
	Available     []string     `json:"available_services" yaml:"available_services"`
	Budget        float64      `json:"budget" yaml:"budget"`
	MaxLatency    float64      `json:"max_latency" yaml:"max_latency"`
	TutorialSteps []string     `json:"tutorial_steps" yaml:"tutorial_steps"`
	Tutorial      []Step       `json:"tutorial" yaml:"tutorial"`
	Wiring        []WiringRule `json:"wiring" yaml:"wiring"`
}

func (f fileLevel) spec() Spec {
	s := Spec{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Objective:   f.Objective,
		Required:    f.Required,
		Optional:    f.Optional,
		Available:   f.Available,
		Budget:      f.Budget,
		MaxLatency:  f.MaxLatency,
		Tutorial:    f.Tutorial,
		Wiring:      f.Wiring,
	}
	if len(s.Tutorial) == 0 && len(f.TutorialSteps) > 0 {
		s.Tutorial = stepsFromText(f.TutorialSteps, f.Required)
	}
	return s
}

// Load reads a level file (.hcl, .json, .yaml/.yml)
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeMalformedData, err, "reading levels %s", path)
	}
	return Parse(path, data)
}

// Parse decodes level data; filename selects the format
func Parse(filename string, data []byte) (*Registry, error) {
	var (
		specs []Spec
		err   error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".hcl":
		specs, err = parseHCL(filename, data)
	case ".json":
		specs, err = parseDocument(data, json.Unmarshal)
	case ".yaml", ".yml":
		specs, err = parseDocument(data, yaml.Unmarshal)
	default:
		err = fmt.Errorf("unsupported level format %q", ext)
	}
	if err != nil {
		return nil, errors.Malformed(filename, err)
	}

	r, err := NewRegistry(specs...)
	if err != nil {
		return nil, err
	}
	logging.Debug("levels loaded", zap.String("file", filename), zap.Ints("ids", r.IDs()))
	return r, nil
}

func parseHCL(filename string, data []byte) ([]Spec, error) {
	var file hclFile
	if err := hclsimple.Decode(filename, data, nil, &file); err != nil {
		return nil, err
	}

	specs := make([]Spec, 0, len(file.Levels))
	for _, l := range file.Levels {
		id, err := strconv.Atoi(l.ID)
		if err != nil {
			return nil, fmt.Errorf("level label %q is not a number", l.ID)
		}
		s := Spec{
			ID:          id,
			Title:       l.Title,
			Description: l.Description,
			Objective:   l.Objective,
			Required:    l.Required,
			Optional:    l.Optional,
			Available:   l.Available,
			Budget:      l.Budget,
			MaxLatency:  l.MaxLatency,
		}
		for _, st := range l.Steps {
			s.Tutorial = append(s.Tutorial, Step{Text: st.Text, CompleteWhen: st.CompleteWhen})
		}
		for _, w := range l.Wiring {
			s.Wiring = append(s.Wiring, WiringRule{Message: w.Message, AnyOf: w.AnyOf, When: w.When})
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func parseDocument(data []byte, unmarshal func([]byte, any) error) ([]Spec, error) {
	var doc fileLevels
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}
	specs := make([]Spec, len(doc.Levels))
	for i, l := range doc.Levels {
		specs[i] = l.spec()
	}
	return specs, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the embedded levels.
// It panics if the embedded data is broken; tests guard against that.
func Default() *Registry {
	defaultOnce.Do(func() {
		data, err := embedded.ReadFile(defaultFile)
		if err != nil {
			defaultErr = err
			return
		}
		defaultRegistry, defaultErr = Parse(defaultFile, data)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded levels: %v", defaultErr))
	}
	return defaultRegistry
}

// LoadOrDefault loads path, falling back to the embedded levels when path
// is empty. A broken file is logged and the embedded levels are served.
func LoadOrDefault(path string) *Registry {
	if path == "" {
		return Default()
	}
	r, err := Load(path)
	if err != nil {
		logging.Warn("level data unusable, using built-in levels",
			zap.String("path", path),
			zap.Error(err))
		return Default()
	}
	return r
}
