package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

//go:embed data/services.hcl
var embedded embed.FS

const defaultFile = "data/services.hcl"

// hclFile mirrors the HCL catalog layout:
//
//	service "lambda" {
//	  display_name  = "Lambda"
//	  category      = "compute"
//	  cost_per_hour = 0.0125
//	  latency_ms    = 100
//	  direct        = ["dynamodb", "s3"]
//	  requires "rds" {
//	    intermediate = ["vpc"]
//	  }
//	}
type hclFile struct {
	Services []hclService `hcl:"service,block"`
}

type hclService struct {
	ID          string           `hcl:"id,label"`
	DisplayName string           `hcl:"display_name"`
	Description string           `hcl:"description,optional"`
	Category    string           `hcl:"category"`
	IconPath    string           `hcl:"icon_path,optional"`
	CostPerHour float64          `hcl:"cost_per_hour"`
	LatencyMS   float64          `hcl:"latency_ms"`
	Direct      []string         `hcl:"direct,optional"`
	Requires    []hclRequirement `hcl:"requires,block"`
}

type hclRequirement struct {
	Target       string   `hcl:"target,label"`
	Intermediate []string `hcl:"intermediate"`
}

// fileService is one record of the JSON/YAML mapping id -> record
type fileService struct {
	DisplayName     string          `json:"display_name" yaml:"display_name"`
	Description     string          `json:"description" yaml:"description"`
	Category        string          `json:"category" yaml:"category"`
	IconPath        string          `json:"icon_path" yaml:"icon_path"`
	CostPerHour     float64         `json:"cost_per_hour" yaml:"cost_per_hour"`
	LatencyMS       float64         `json:"latency_ms" yaml:"latency_ms"`
	ConnectionRules ConnectionRules `json:"connection_rules" yaml:"connection_rules"`
}

// Load reads a catalog file. The format follows the extension:
// .hcl, .json or .yaml/.yml.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeMalformedData, err, "reading catalog %s", path)
	}
	return Parse(path, data)
}

// Parse decodes catalog data; filename selects the format
func Parse(filename string, data []byte) (*Catalog, error) {
	var (
		defs []ServiceDefinition
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".hcl":
		defs, err = parseHCL(filename, data)
	case ".json":
		defs, err = parseMapping(data, json.Unmarshal)
	case ".yaml", ".yml":
		defs, err = parseMapping(data, yaml.Unmarshal)
	default:
		err = fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, errors.Malformed(filename, err)
	}

	c, err := New(defs...)
	if err != nil {
		return nil, err
	}

	if dangling := c.DanglingReferences(); len(dangling) > 0 {
		logging.Warn("catalog rules reference unknown services",
			zap.String("file", filename),
			zap.Strings("rules", dangling))
	}
	logging.Debug("catalog loaded", zap.String("file", filename), zap.Int("services", c.Len()))
	return c, nil
}

func parseHCL(filename string, data []byte) ([]ServiceDefinition, error) {
	var file hclFile
	if err := hclsimple.Decode(filename, data, nil, &file); err != nil {
		return nil, err
	}

	defs := make([]ServiceDefinition, 0, len(file.Services))
	for _, s := range file.Services {
		def := ServiceDefinition{
			ID:          s.ID,
			DisplayName: s.DisplayName,
			Description: s.Description,
			Category:    s.Category,
			IconPath:    s.IconPath,
			CostPerHour: s.CostPerHour,
			LatencyMS:   s.LatencyMS,
			Rules:       ConnectionRules{Direct: s.Direct},
		}
		for _, r := range s.Requires {
			def.Rules.Requires = append(def.Rules.Requires, Requirement{
				Target:       r.Target,
				Intermediate: r.Intermediate,
			})
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseMapping(data []byte, unmarshal func([]byte, any) error) ([]ServiceDefinition, error) {
	var raw map[string]fileService
	if err := unmarshal(data, &raw); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	defs := make([]ServiceDefinition, 0, len(ids))
	for _, id := range ids {
		s := raw[id]
		defs = append(defs, ServiceDefinition{
			ID:          id,
			DisplayName: s.DisplayName,
			Description: s.Description,
			Category:    s.Category,
			IconPath:    s.IconPath,
			CostPerHour: s.CostPerHour,
			LatencyMS:   s.LatencyMS,
			Rules:       s.ConnectionRules,
		})
	}
	return defs, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded game catalog.
// It panics if the embedded data is broken; tests guard against that.
func Default() *Catalog {
	defaultOnce.Do(func() {
		data, err := embedded.ReadFile(defaultFile)
		if err != nil {
			defaultErr = err
			return
		}
		defaultCatalog, defaultErr = Parse(defaultFile, data)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded catalog: %v", defaultErr))
	}
	return defaultCatalog
}

// LoadOrDefault loads path, or returns the embedded catalog when path is empty
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
