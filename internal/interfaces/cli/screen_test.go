package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molmatch/internal/testutil"
	"github.com/turtacn/molmatch/pkg/errors"
)

const targetsFile = `# benzene screen
Oc1ccccc1 phenol
C1CCCCC1 cyclohexane

CCO ethanol
Cc1ccccc1 toluene
`

type screenJSON struct {
	RunID       string `json:"run_id"`
	Mode        string `json:"mode"`
	Query       string `json:"query"`
	Screened    int    `json:"screened"`
	Matched     int    `json:"matched"`
	Prefiltered int    `json:"prefiltered"`
	Hits        []struct {
		Index      int     `json:"index"`
		TargetID   string  `json:"target_id"`
		Verdict    string  `json:"verdict"`
		Embeddings int     `json:"embeddings"`
		Score      float64 `json:"score"`
	} `json:"hits"`
}

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.smi")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runScreenJSON(t *testing.T, args ...string) screenJSON {
	t.Helper()
	out, err := execute(t, append([]string{"-o", "json", "screen"}, args...)...)
	require.NoError(t, err)
	var res screenJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	return res
}

func TestScreenCmd_Substructure(t *testing.T) {
	res := runScreenJSON(t, "--targets", writeTargets(t, targetsFile), testutil.Benzene)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "substructure", res.Mode)
	assert.Equal(t, testutil.Benzene, res.Query)
	assert.Equal(t, 4, res.Screened)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Prefiltered)
	require.Len(t, res.Hits, 4)

	ids := make([]string, len(res.Hits))
	verdicts := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i], verdicts[i] = h.TargetID, h.Verdict
	}
	assert.Equal(t, []string{"phenol", "cyclohexane", "ethanol", "toluene"}, ids)
	assert.Equal(t, []string{"hit", "miss", "prefiltered", "hit"}, verdicts)
}

func TestScreenCmd_HitsOnlyAndCount(t *testing.T) {
	res := runScreenJSON(t, "--targets", writeTargets(t, targetsFile), "--hits-only", testutil.Benzene)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "phenol", res.Hits[0].TargetID)
	assert.Equal(t, "toluene", res.Hits[1].TargetID)

	res = runScreenJSON(t, "--targets", writeTargets(t, "CC(C)C isobutane\n"), "--count", "CC")
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 6, res.Hits[0].Embeddings)

	res = runScreenJSON(t, "--targets", writeTargets(t, "CC(C)C isobutane\n"), "--count", "--max", "4", "CC")
	assert.Equal(t, 4, res.Hits[0].Embeddings)
}

func TestScreenCmd_ExactAndSimilarity(t *testing.T) {
	res := runScreenJSON(t, "--mode", "exact", "--targets", writeTargets(t, "OCC a\nCCCO b\n"), "CCO")
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "hit", res.Hits[0].Verdict)
	assert.Equal(t, "miss", res.Hits[1].Verdict)

	res = runScreenJSON(t, "--mode", "similarity", "--bottom", "0.99", "--top", "1",
		"--targets", writeTargets(t, "CCO same\nc1ccccc1 other\n"), "CCO")
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "hit", res.Hits[0].Verdict)
	assert.InDelta(t, 1.0, res.Hits[0].Score, 1e-9)
	assert.Equal(t, "miss", res.Hits[1].Verdict)
}

func TestScreenCmd_Stdin(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(targetsFile))
	cmd.SetArgs([]string{"--no-color", "--log-level", "error", "-o", "table", "screen", "--targets", "-", testutil.Benzene})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "TARGET")
	assert.Contains(t, out.String(), "phenol")
	assert.Contains(t, out.String(), "prefiltered")
}

func TestScreenCmd_Text(t *testing.T) {
	out, err := execute(t, "screen", "--targets", writeTargets(t, targetsFile), testutil.Benzene)
	require.NoError(t, err)
	assert.Contains(t, out, "phenol")
	assert.Contains(t, out, "4 screened, 2 matched, 1 prefiltered")
}

func TestScreenCmd_WatchConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "molmatch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("screening:\n  workers: 2\ncache:\n  backend: none\n"), 0o600))

	out, err := execute(t, "--config", cfgPath, "-o", "json", "screen", "--watch",
		"--targets", writeTargets(t, targetsFile), testutil.Benzene)
	require.NoError(t, err)
	var res screenJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Matched)
}

func TestScreenCmd_Errors(t *testing.T) {
	_, err := execute(t, "screen", testutil.Benzene)
	assert.Error(t, err, "--targets is required")

	_, err = execute(t, "screen", "--targets", filepath.Join(t.TempDir(), "none.smi"), testutil.Benzene)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = execute(t, "screen", "--targets", writeTargets(t, "# nothing\n\n"), testutil.Benzene)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = execute(t, "screen", "--mode", "fuzzy", "--targets", writeTargets(t, targetsFile), testutil.Benzene)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = execute(t, "screen", "--watch", "--targets", writeTargets(t, targetsFile), testutil.Benzene)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestReadTargets(t *testing.T) {
	targets, err := readTargets(strings.NewReader("  CCO  ethanol absolute \n# skip\n\nc1ccccc1\n"))
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "CCO", targets[0].Notation)
	assert.Equal(t, "ethanol absolute", targets[0].ID)
	assert.Equal(t, "c1ccccc1", targets[1].Notation)
	assert.Empty(t, targets[1].ID)

	_, err = readTargets(strings.NewReader(""))
	assert.Error(t, err)
}

//Personal.AI order the ending
