package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/topology"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/errors"
)

func TestDefaultLevels(t *testing.T) {
	r := Default()

	require.Equal(t, 10, r.Len())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, r.IDs())
	assert.Empty(t, r.UnknownServices(catalog.Default()))

	l1, err := r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Build a Blog API", l1.Title)
	assert.Equal(t, []string{"api_gateway", "dynamodb", "lambda", "s3"}, l1.Required)
	assert.Equal(t, 50.0, l1.Budget)
	assert.Equal(t, 300.0, l1.MaxLatency)
	assert.Len(t, l1.Tutorial, 8)
	assert.Len(t, l1.Wiring, 4)
	assert.Equal(t, TierIntro, l1.Tier())

	for _, s := range r.All() {
		assert.NoError(t, s.Validate(), "level %d", s.ID)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		level int
		want  Tier
	}{
		{types.NoLevel, TierStandard},
		{1, TierIntro},
		{2, TierFoundation},
		{3, TierStandard},
		{10, TierStandard},
		{99, TierStandard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.level), "level %d", tt.level)
	}
}

func TestSpecHelpers(t *testing.T) {
	l1, err := Default().Get(1)
	require.NoError(t, err)

	assert.True(t, l1.IsRequired("lambda"))
	assert.True(t, l1.IsOptional("iam"))
	assert.True(t, l1.IsExpected("cloudwatch"))
	assert.False(t, l1.IsExpected("ec2"))
	assert.True(t, l1.IsAvailable("ec2"))
	assert.False(t, l1.IsAvailable("redshift"))

	facts := topology.NewFacts([]string{"lambda", "s3"}, nil)
	assert.Equal(t, []string{"api_gateway", "dynamodb"}, l1.Missing(facts))
}

func TestGetUnknownLevel(t *testing.T) {
	r := Default()

	_, err := r.Get(42)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	fallback := r.GetOrFallback(42)
	assert.Equal(t, FallbackID, fallback.ID)

	empty, err := NewRegistry()
	require.NoError(t, err)
	builtin := empty.GetOrFallback(3)
	assert.Equal(t, FallbackID, builtin.ID)
	assert.NoError(t, builtin.Validate())
}

func validSpec() Spec {
	return Spec{
		ID:         7,
		Title:      "t",
		Required:   []string{"a"},
		Optional:   []string{"b"},
		Available:  []string{"a", "b", "c"},
		Budget:     10,
		MaxLatency: 10,
	}
}

func TestRegistryRejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"zero id", func(s *Spec) { s.ID = 0 }},
		{"no title", func(s *Spec) { s.Title = "" }},
		{"no required", func(s *Spec) { s.Required = nil }},
		{"required and optional overlap", func(s *Spec) { s.Optional = []string{"a"} }},
		{"required not available", func(s *Spec) { s.Available = []string{"b"} }},
		{"optional not available", func(s *Spec) { s.Available = []string{"a"} }},
		{"zero budget", func(s *Spec) { s.Budget = 0 }},
		{"negative latency", func(s *Spec) { s.MaxLatency = -1 }},
		{"bad tutorial pattern", func(s *Spec) { s.Tutorial = []Step{{Text: "x", CompleteWhen: []string{"*->*"}}} }},
		{"wiring without alternatives", func(s *Spec) { s.Wiring = []WiringRule{{Message: "x"}} }},
		{"bad wiring pattern", func(s *Spec) { s.Wiring = []WiringRule{{Message: "x", AnyOf: []string{"a->"}}} }},
		{"bad wiring condition", func(s *Spec) { s.Wiring = []WiringRule{{Message: "x", AnyOf: []string{"a"}, When: []string{"*"}}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec()
			tt.mutate(&s)
			_, err := NewRegistry(s)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeMalformedData))
		})
	}

	_, err := NewRegistry(validSpec(), validSpec())
	assert.True(t, errors.IsType(err, errors.TypeMalformedData), "duplicate ids")
}

func TestReviewBlogWiring(t *testing.T) {
	l1, err := Default().Get(1)
	require.NoError(t, err)

	services := []string{"api_gateway", "lambda", "dynamodb", "s3", "iam"}
	complete := []types.Connection{
		types.Link("api_gateway", "lambda"),
		types.Link("lambda", "dynamodb"),
		types.Link("lambda", "s3"),
		types.Link("iam", "lambda"),
	}

	assert.Empty(t, Review(l1, topology.NewFacts(services, complete)))

	hints := Review(l1, topology.NewFacts(services, complete[:3]))
	assert.Equal(t, []string{"IAM role must be connected to Lambda for permissions"}, hints)

	// the iam rule only applies once iam is placed
	hints = Review(l1, topology.NewFacts(services[:4], complete[:2]))
	assert.Equal(t, []string{"Lambda must be connected to S3 for media storage"}, hints)
}

func TestReviewAnyOf(t *testing.T) {
	l5, err := Default().Get(5)
	require.NoError(t, err)

	services := []string{"kinesis", "lambda", "s3", "redshift", "iam"}
	base := []types.Connection{types.Link("kinesis", "lambda"), types.Link("lambda", "s3")}

	assert.Equal(t,
		[]string{"Either S3 or Lambda must be connected to Redshift for data warehousing"},
		Review(l5, topology.NewFacts(services, base)))

	for _, extra := range []types.Connection{types.Link("s3", "redshift"), types.Link("lambda", "redshift")} {
		assert.Empty(t, Review(l5, topology.NewFacts(services, append(base, extra))), extra.String())
	}
}

func TestTutorialProgress(t *testing.T) {
	l1, err := Default().Get(1)
	require.NoError(t, err)

	empty := topology.NewFacts(nil, nil)
	assert.Equal(t, 0, Progress(l1, empty, 0))

	placed := topology.NewFacts([]string{"api_gateway", "lambda"}, nil)
	assert.Equal(t, 2, Progress(l1, placed, 0))

	// skipping dynamodb blocks progress even if later steps hold
	partial := topology.NewFacts([]string{"api_gateway", "lambda", "s3"}, nil)
	assert.Equal(t, 2, Progress(l1, partial, 0))

	all := topology.NewFacts(
		[]string{"api_gateway", "lambda", "dynamodb", "s3", "iam"},
		[]types.Connection{
			types.Link("api_gateway", "lambda"),
			types.Link("lambda", "dynamodb"),
			types.Link("lambda", "s3"),
		},
	)
	final := Progress(l1, all, 0)
	assert.Equal(t, 7, final, "the last step never completes on its own")
	assert.Equal(t, "Validate your architecture to complete the level.", CurrentStep(l1, final))

	// never moves backwards
	assert.Equal(t, 5, Progress(l1, empty, 5))
	assert.Equal(t, "", CurrentStep(l1, 99))
}

const jsonLevels = `{
  "levels": [
    {
      "id": 1,
      "title": "Blog",
      "required_services": ["lambda", "api_gateway"],
      "optional_services": ["iam"],
      "available_services": ["api_gateway", "lambda", "iam"],
      "budget": 50,
      "max_latency": 300,
      "tutorial_steps": ["Place lambda", "Place the gateway", "Validate"]
    }
  ]
}`

const yamlLevels = `
levels:
  - id: 1
    title: Blog
    required_services: [lambda, api_gateway]
    optional_services: [iam]
    available_services: [api_gateway, lambda, iam]
    budget: 50
    max_latency: 300
    tutorial_steps: [Place lambda, Place the gateway, Validate]
    wiring:
      - message: connect the gateway
        any_of: ["api_gateway->lambda"]
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		filename string
		data     string
	}{
		{"levels.json", jsonLevels},
		{"levels.yaml", yamlLevels},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			r, err := Parse(tt.filename, []byte(tt.data))
			require.NoError(t, err)

			s, err := r.Get(1)
			require.NoError(t, err)
			assert.Equal(t, []string{"api_gateway", "lambda"}, s.Required)

			// plain steps complete on required services in declaration order
			require.Len(t, s.Tutorial, 3)
			assert.Equal(t, []string{"lambda"}, s.Tutorial[0].CompleteWhen)
			assert.Equal(t, []string{"api_gateway"}, s.Tutorial[1].CompleteWhen)
			assert.Empty(t, s.Tutorial[2].CompleteWhen)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"bad json", "l.json", `{"levels": [`},
		{"bad yaml", "l.yaml", "levels: [unclosed"},
		{"bad hcl", "l.hcl", `level "1" {`},
		{"non numeric label", "l.hcl", `level "one" {
  title = "x"
  required = ["a"]
  available = ["a"]
  budget = 1
  max_latency = 1
}`},
		{"invariant violation", "l.json", `{"levels": [{"id": 1, "title": "x", "required_services": ["a"], "available_services": [], "budget": 1, "max_latency": 1}]}`},
		{"unsupported", "l.txt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.filename, []byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeMalformedData), "got %v", err)
		})
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"levels": [`), 0o644))
	assert.Same(t, Default(), LoadOrDefault(broken))

	good := filepath.Join(dir, "levels.yaml")
	require.NoError(t, os.WriteFile(good, []byte(yamlLevels), 0o644))
	r := LoadOrDefault(good)
	assert.Equal(t, 1, r.Len())

	assert.Same(t, Default(), LoadOrDefault(""))
}
