package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mapleads/internal/config"
	"github.com/jonathan/mapleads/internal/types"
)

const savedPage = `
<html><body>
	<div role="feed">
		<div role="article">
			<a href="/maps/place/Joes+Pizza"></a>
			<div class="fontHeadlineSmall">Joe's Pizza</div>
			<div>Pizza restaurant</div>
			<div>(212) 555-0147</div>
		</div>
		<div role="article">
			<a href="/maps/place/Cafe+Luna"></a>
			<div class="fontHeadlineSmall">Cafe Luna</div>
			<div>Coffee shop</div>
		</div>
	</div>
</body></html>`

// execute runs the CLI against an isolated quota database with no credentials.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvQuotaDB, filepath.Join(t.TempDir(), "quota.db"))
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv(config.EnvTier, "")
	t.Setenv(config.EnvAccount, "")
	t.Setenv(config.EnvAdmin, "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractCommand(t *testing.T) {
	page := writeFile(t, "results.html", savedPage)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "leads.csv")
	jsonPath := filepath.Join(dir, "leads.json")

	out, err := execute(t, "", "extract", "--html", page, "--target", "csv", "--out", csvPath, "--json", jsonPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Joe's Pizza")
	assert.Contains(t, out, "2 leads")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], `"Title","Rating","Reviews"`))

	records, err := readRecords(jsonPath, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://www.google.com/maps/place/Joes+Pizza", records[0].Href)
	assert.Nil(t, records[0].Enrichment)
}

func TestExtractCommand_RequiresHTML(t *testing.T) {
	_, err := execute(t, "", "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "html")
}

func TestExportCommand_FromStdin(t *testing.T) {
	enriched := types.LeadRecord{
		Title: "Joe's Pizza",
		Href:  "https://www.google.com/maps/place/Joes+Pizza",
	}.WithEnrichment(types.EnrichmentResult{SEOHealth: 7, MissingFeatures: "booking"})
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, writeRecords(path, []types.LeadRecord{enriched}))
	input, err := os.ReadFile(path)
	require.NoError(t, err)

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	out, err := execute(t, string(input), "export", "--out", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "ENRICHMENT SUMMARY")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"7","booking"`)
}

func TestEnrichCommand_RequiresAPIKey(t *testing.T) {
	path := writeFile(t, "records.json", `[{"title":"Joe's Pizza","href":"https://maps.example/1"}]`)

	_, err := execute(t, "", "enrich", "--in", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY environment variable or --api-key flag is required")
}

func TestEnrichCommand_BadTarget(t *testing.T) {
	_, err := execute(t, "[]", "enrich", "--target", "xlsx")
	require.Error(t, err)
}

func TestQuotaCommands(t *testing.T) {
	out, err := execute(t, "", "quota", "status", "--account", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "free")

	out, err = execute(t, "", "quota", "reset", "--account", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "Quota reset for acme")
}

func TestRootCommand_InvalidTier(t *testing.T) {
	_, err := execute(t, "", "quota", "status", "--tier", "gold")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestRootCommand_ConfigFile(t *testing.T) {
	cfgPath := writeFile(t, "mapleads.json5", `{
		// accounts share one quota database
		account: "from-file",
		tier: "pro",
	}`)

	out, err := execute(t, "", "quota", "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "from-file")
}

func TestReadRecords(t *testing.T) {
	records, err := readRecords("-", strings.NewReader(`[{"title":"A","href":"h1","seo_health":4,"missing_features":"x","outreach_message":"m","email":null,"contact_person":null}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Enrichment)
	assert.Equal(t, 4, records[0].Enrichment.SEOHealth)

	_, err = readRecords("-", strings.NewReader(`{"not":"a list"}`))
	assert.Error(t, err)

	_, err = readRecords(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}
