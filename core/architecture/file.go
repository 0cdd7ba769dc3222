package architecture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/errors"
)

// hclSpec mirrors the HCL architecture layout:
//
//	services = ["api_gateway", "lambda", "dynamodb"]
//
//	connection "api_gateway" "lambda" {}
//	connection "lambda" "dynamodb" {}
type hclSpec struct {
	Services    []string        `hcl:"services"`
	Connections []hclConnection `hcl:"connection,block"`
}

type hclConnection struct {
	Source string `hcl:"source,label"`
	Target string `hcl:"target,label"`
}

// LoadSpec reads an architecture file. The format follows the
// extension: .json, .yaml/.yml or .hcl. Unknown fields are rejected.
func LoadSpec(path string) (types.ArchitectureSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ArchitectureSpec{}, errors.Wrapf(errors.TypeInput, err, "reading architecture %s", path)
	}
	return ParseSpec(path, data)
}

// ParseSpec decodes architecture data; filename selects the format
func ParseSpec(filename string, data []byte) (types.ArchitectureSpec, error) {
	var (
		spec types.ArchitectureSpec
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&spec)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&spec)
	case ".hcl":
		spec, err = parseSpecHCL(filename, data)
	default:
		err = fmt.Errorf("unsupported architecture format %q", ext)
	}
	if err != nil {
		return types.ArchitectureSpec{}, errors.Wrapf(errors.TypeInput, err, "decoding architecture %s", filename)
	}

	for i, id := range spec.Services {
		spec.Services[i] = strings.TrimSpace(id)
	}
	return spec, nil
}

func parseSpecHCL(filename string, data []byte) (types.ArchitectureSpec, error) {
	var file hclSpec
	if err := hclsimple.Decode(filename, data, nil, &file); err != nil {
		return types.ArchitectureSpec{}, err
	}
	spec := types.ArchitectureSpec{Services: file.Services}
	for _, c := range file.Connections {
		spec.Connections = append(spec.Connections, types.Link(c.Source, c.Target))
	}
	return spec, nil
}
