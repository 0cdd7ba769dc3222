package level

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// FallbackID is the level served when a requested level is unknown
const FallbackID = 1

// Registry holds the loaded levels. It is immutable once constructed.
type Registry struct {
	levels map[int]Spec
	ids    []int
}

// NewRegistry validates and indexes specs
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{levels: make(map[int]Spec, len(specs))}
	for _, s := range specs {
		s.normalize()
		if err := s.Validate(); err != nil {
			return nil, errors.Wrap(errors.TypeMalformedData, "invalid level", err)
		}
		if _, exists := r.levels[s.ID]; exists {
			return nil, errors.Newf(errors.TypeMalformedData, "duplicate level id: %d", s.ID)
		}
		r.levels[s.ID] = s
		r.ids = append(r.ids, s.ID)
	}
	sort.Ints(r.ids)
	return r, nil
}

// Get returns a level or a NOT_FOUND error
func (r *Registry) Get(id int) (Spec, error) {
	s, ok := r.levels[id]
	if !ok {
		return Spec{}, errors.Newf(errors.TypeNotFound, "level not found: %d", id).WithContext("level_id", id)
	}
	return s, nil
}

// GetOrFallback returns the level, or the fallback level when id is unknown
func (r *Registry) GetOrFallback(id int) Spec {
	if s, ok := r.levels[id]; ok {
		return s
	}
	logging.Warn("unknown level, using fallback",
		zap.Int("requested", id),
		zap.Int("fallback", FallbackID))
	if s, ok := r.levels[FallbackID]; ok {
		return s
	}
	return Fallback()
}

// IDs returns the level ids in ascending order
func (r *Registry) IDs() []int {
	return append([]int(nil), r.ids...)
}

// All returns every level in id order
func (r *Registry) All() []Spec {
	specs := make([]Spec, len(r.ids))
	for i, id := range r.ids {
		specs[i] = r.levels[id]
	}
	return specs
}

// Len returns the number of levels
func (r *Registry) Len() int {
	return len(r.ids)
}

// UnknownServices lists "level N: id" entries naming services absent from c
func (r *Registry) UnknownServices(c *catalog.Catalog) []string {
	var result []string
	for _, s := range r.All() {
		for _, id := range s.Available {
			if !c.Has(id) {
				result = append(result, levelRef(s.ID)+id)
			}
		}
	}
	return result
}

func levelRef(id int) string {
	return "level " + strconv.Itoa(id) + ": "
}

// Fallback is the built-in level used when no level data can be loaded
func Fallback() Spec {
	s := Spec{
		ID:          FallbackID,
		Title:       "Build a Blog API",
		Description: "Create a simple blog API that stores posts in DynamoDB and media in S3.",
		Objective:   "Build a serverless architecture using API Gateway, Lambda, DynamoDB, and S3.",
		Required:    []string{"api_gateway", "lambda", "dynamodb", "s3"},
		Optional:    []string{"iam", "cloudwatch"},
		Available:   []string{"api_gateway", "lambda", "dynamodb", "s3", "iam", "cloudwatch", "ec2", "rds"},
		Budget:      50,
		MaxLatency:  300,
	}
	s.Tutorial = stepsFromText([]string{
		"First, create an API Gateway to handle HTTP requests.",
		"Next, add a Lambda function to process the API requests.",
		"Create a DynamoDB table to store blog post data.",
		"Add an S3 bucket to store media files like images.",
		"Validate your architecture to complete the level.",
	}, s.Required)
	s.normalize()
	return s
}
