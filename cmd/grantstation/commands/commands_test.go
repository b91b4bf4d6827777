package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jderrod/GrantStationTool/internal/filter"
	"github.com/jderrod/GrantStationTool/internal/models"
	"github.com/jderrod/GrantStationTool/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	cfgFile := filepath.Join(dir, "grantstation.yaml")
	body := "filters:\n  path: " + filepath.Join(dir, "filters.json") + "\noutput:\n  dir: " + filepath.Join(dir, "out") + "\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(body), 0o644))
	return cfgFile
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFiltersLifecycle(t *testing.T) {
	cfgFile := workspace(t)

	out, err := execute(t, "--config", cfgFile, "filters", "list")
	require.NoError(t, err)
	assert.Contains(t, out, filter.HighValueRule)
	assert.Contains(t, out, filter.ClosingSoonRule)

	out, err = execute(t, "--config", cfgFile, "filters", "add",
		"--name", "Rural Health", "--keywords", "rural,health", "--min", "$10,000", "--max", "", "--start", "", "--end", "")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved filter "Rural Health"`)

	out, err = execute(t, "--config", cfgFile, "filters", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "rural, health")

	out, err = execute(t, "--config", cfgFile, "filters", "remove", "Rural Health")
	require.NoError(t, err)
	assert.Contains(t, out, `Removed filter "Rural Health"`)

	out, err = execute(t, "--config", cfgFile, "filters", "remove", "Rural Health")
	require.NoError(t, err)
	assert.Contains(t, out, `No filter named "Rural Health"`)
}

func TestFiltersAdd_Invalid(t *testing.T) {
	cfgFile := workspace(t)

	_, err := execute(t, "--config", cfgFile, "filters", "add",
		"--name", "Broken", "--keywords", "", "--min", "lots", "--max", "", "--start", "", "--end", "")
	var verr *filter.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "min_amount", verr.Field)
}

func TestEvaluate_SavedRun(t *testing.T) {
	cfgFile := workspace(t)
	dir := filepath.Dir(cfgFile)

	run := &search.Run{Sections: []search.Section{{
		URL: "https://grantstation.com/search/us-federal?keyword=water&opp_number=&cfda=",
		All: []models.Opportunity{
			{Title: "A", Description: "Award of $2 million available"},
			{Title: "B", Description: "small grant $500"},
		},
	}}}
	input := filepath.Join(dir, "results.json")
	require.NoError(t, search.SaveRun(input, run))

	_, err := execute(t, "--config", cfgFile, "filters", "add",
		"--name", "Big", "--keywords", "", "--min", "1000000", "--max", "", "--start", "", "--end", "")
	require.NoError(t, err)

	out, err := execute(t, "--config", cfgFile, "evaluate", "--input", input, "--filter", "Big", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 matching opportunities out of 2 total opportunities")
	assert.Contains(t, out, "Filtered Results matching 'Big':")

	saved, err := os.ReadFile(filepath.Join(dir, "out", "filtered_results.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "Opportunity Title: A")
	assert.NotContains(t, string(saved), "Opportunity Title: B")
}

func TestEvaluate_UnknownFilter(t *testing.T) {
	cfgFile := workspace(t)
	input := filepath.Join(filepath.Dir(cfgFile), "results.json")
	require.NoError(t, search.SaveRun(input, &search.Run{}))

	_, err := execute(t, "--config", cfgFile, "evaluate", "--input", input, "--filter", "Missing", "--save=false")
	assert.ErrorIs(t, err, filter.ErrRuleNotFound)
}

func TestSearch_RequiresURL(t *testing.T) {
	cfgFile := workspace(t)

	_, err := execute(t, "--config", cfgFile, "search", "--filter", "")
	assert.ErrorContains(t, err, "at least one keyword")
}

// testChdir changes the working directory to dir for the duration of the
// test, restoring the previous one on cleanup (equivalent to Go 1.24's t.Chdir).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
