package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/core/session"
	"cloud-architect-sim/internal/errors"
)

const blogYAML = `services: [api_gateway, lambda, dynamodb, s3, iam]
connections:
  - {source: api_gateway, target: lambda}
  - {source: lambda, target: dynamodb}
  - {source: lambda, target: s3}
  - {source: iam, target: lambda}
`

// execute runs the root command with fresh flag values and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose, outputFormat = "", false, "text"
	estimateLevel, showDetails = 0, true
	validateLevel = 1
	playLevel, playMode, playPlayer = 1, string(session.ModeNormal), ""
	progressPlayer, catalogCategory, serveAddr = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

// tempConfig points progress storage into a temp dir
func tempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "progress.db")
	return writeFile(t, dir, "archsim.yaml", "storage:\n  database_path: "+db+"\n  player: tester\n")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "archsim version "+Version+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	blog := writeFile(t, dir, "blog.yaml", blogYAML)

	out, err := execute(t, "validate", "--level", "1", blog)
	require.NoError(t, err)
	assert.Contains(t, out, "Level 1: PASSED")
	assert.Contains(t, out, "Architecture validated successfully!")
	assert.Contains(t, out, "+150  total")

	out, err = execute(t, "validate", "--level", "1", "--format", "json", blog)
	require.NoError(t, err)
	var result engine.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, 150, result.ScoreDelta)

	partial := writeFile(t, dir, "partial.json", `{"services": ["lambda"], "connections": []}`)
	out, err = execute(t, "validate", "--level", "1", partial)
	require.Error(t, err)
	assert.Contains(t, out, "Level 1: FAILED")
	assert.Contains(t, out, "Missing required services: api_gateway, dynamodb, s3")

	_, err = execute(t, "validate", "--level", "42", blog)
	assert.True(t, errors.IsType(err, errors.TypeNotFound), "got %v", err)
}

func TestValidateSeveralFiles(t *testing.T) {
	dir := t.TempDir()
	blog := writeFile(t, dir, "blog.yaml", blogYAML)
	blogHCL := writeFile(t, dir, "blog.hcl", `services = ["api_gateway", "lambda", "dynamodb", "s3", "iam"]

connection "api_gateway" "lambda" {}
connection "lambda" "dynamodb" {}
connection "lambda" "s3" {}
connection "iam" "lambda" {}
`)

	out, err := execute(t, "validate", "--level", "1", blog, blogHCL)
	require.NoError(t, err)
	assert.Contains(t, out, "2 passed, 0 failed, 0 errors")

	partial := writeFile(t, dir, "partial.json", `{"services": ["lambda"]}`)
	out, err = execute(t, "validate", "--level", "1", "--format", "json", blog, partial)
	require.Error(t, err)

	var report batchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, blog, report.Results[0].Name)
	assert.EqualValues(t, 1, report.Stats.Passed)
	assert.EqualValues(t, 1, report.Stats.Failed)
}

func TestEstimateCommand(t *testing.T) {
	blog := writeFile(t, t.TempDir(), "blog.yaml", blogYAML)

	out, err := execute(t, "estimate", "--level", "1", blog)
	require.NoError(t, err)
	assert.Contains(t, out, "$28.21")
	assert.Contains(t, out, "150.00ms")

	out, err = execute(t, "estimate", "--format", "json", blog)
	require.NoError(t, err)
	var est engine.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.InDelta(t, 92.4, est.MonthlyCost, 1e-9)

	_, err = execute(t, "estimate", "--level", "99", blog)
	assert.True(t, errors.IsType(err, errors.TypeNotFound), "got %v", err)
}

func TestConnectCommand(t *testing.T) {
	out, err := execute(t, "connect", "api_gateway", "lambda")
	require.NoError(t, err)
	assert.Contains(t, out, "allowed")

	out, err = execute(t, "connect", "s3", "cloudfront")
	assert.True(t, errors.IsType(err, errors.TypeInvalidConnection), "got %v", err)
	assert.Contains(t, out, "S3 cannot connect directly to CloudFront")
}

func TestCatalogAndLevelsCommands(t *testing.T) {
	out, err := execute(t, "catalog", "list", "--category", "database")
	require.NoError(t, err)
	assert.Contains(t, out, "dynamodb")
	assert.NotContains(t, out, "lambda")

	out, err = execute(t, "catalog", "show", "lambda")
	require.NoError(t, err)
	assert.Contains(t, out, "Lambda (lambda)")
	assert.Contains(t, out, "Needs vpc to reach rds")

	_, err = execute(t, "catalog", "show", "mainframe")
	assert.True(t, errors.IsType(err, errors.TypeUnknownService))

	out, err = execute(t, "levels", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Build a Blog API")

	out, err = execute(t, "levels", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Required:  api_gateway, dynamodb, lambda, s3")
	assert.Contains(t, out, "Pricing:   intro tier")

	_, err = execute(t, "levels", "show", "one")
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestPlayRecordsProgress(t *testing.T) {
	cfgPath := tempConfig(t)
	blog := writeFile(t, t.TempDir(), "blog.yaml", blogYAML)

	_, err := execute(t, "--config", cfgPath, "play", "--level", "2", blog)
	assert.True(t, errors.IsType(err, errors.TypeInput), "level 2 starts locked: %v", err)

	out, err := execute(t, "--config", cfgPath, "play", "--level", "1", blog)
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 190 (Silver)")
	assert.Contains(t, out, "Level completed")

	out, err = execute(t, "--config", cfgPath, "--format", "json", "progress", "show")
	require.NoError(t, err)
	var p session.Progress
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "tester", p.Player)
	assert.Equal(t, 190, p.TotalScore)
	assert.Equal(t, []int{1, 2}, p.UnlockedLevels())

	out, err = execute(t, "--config", cfgPath, "progress", "players")
	require.NoError(t, err)
	assert.Equal(t, "tester\n", out)

	_, err = execute(t, "--config", cfgPath, "progress", "reset")
	require.NoError(t, err)
	out, err = execute(t, "--config", cfgPath, "progress", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Total score:  0")
}

func TestPlayTimeTrial(t *testing.T) {
	cfgPath := tempConfig(t)
	blog := writeFile(t, t.TempDir(), "blog.yaml", blogYAML)

	out, err := execute(t, "--config", cfgPath, "--format", "json", "play", "--mode", "time_trial", blog)
	require.NoError(t, err)

	var report playReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, session.ModeTimeTrial, report.Mode)
	assert.True(t, report.Outcome.TimeTrialBonus)
	assert.Equal(t, 380, report.Outcome.Score)
	assert.Equal(t, session.RankGold, report.Outcome.Rank)

	_, err = execute(t, "--config", cfgPath, "play", "--mode", "speedrun", blog)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}
