package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molmatch/internal/testutil"
	"github.com/turtacn/molmatch/pkg/errors"
)

func runMatchJSON(t *testing.T, args ...string) matchReport {
	t.Helper()
	out, err := execute(t, append([]string{"-o", "json", "match"}, args...)...)
	require.NoError(t, err)
	var report matchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	return report
}

func TestMatchCmd_Substructure(t *testing.T) {
	report := runMatchJSON(t, testutil.Benzene, testutil.Phenol)
	assert.Equal(t, "substructure", report.Mode)
	assert.True(t, report.Matched)
	require.Len(t, report.Embeddings, 1)
	assert.Len(t, report.Embeddings[0].Mapping, 6)

	report = runMatchJSON(t, testutil.Benzene, testutil.Cyclohexane)
	assert.False(t, report.Matched)
	assert.Empty(t, report.Embeddings)
}

func TestMatchCmd_EnumerateEmbeddings(t *testing.T) {
	report := runMatchJSON(t, "--all", "CC", "CC(C)C")
	assert.True(t, report.Matched)
	assert.Len(t, report.Embeddings, 6)
	for i, e := range report.Embeddings {
		assert.Equal(t, i, e.Index)
	}

	report = runMatchJSON(t, "--all", "--max", "4", "CC", "CC(C)C")
	assert.Len(t, report.Embeddings, 4)

	report = runMatchJSON(t, "CC", "CC(C)C")
	assert.Len(t, report.Embeddings, 1, "without --all the first embedding is enough")
}

func TestMatchCmd_Exact(t *testing.T) {
	report := runMatchJSON(t, "--mode", "exact", "CCO", "OCC")
	assert.True(t, report.Matched)
	assert.NotEmpty(t, report.Conditions)

	report = runMatchJSON(t, "--mode", "exact", "CCO", "CCCO")
	assert.False(t, report.Matched)

	report = runMatchJSON(t, "--mode", "exact", "--conditions", "TAU", "C(O)=C", "C(=O)C")
	assert.True(t, report.Matched)
}

func TestMatchCmd_Tautomer(t *testing.T) {
	report := runMatchJSON(t, "--mode", "tautomer", "OC=C", testutil.Acetone)
	assert.Equal(t, "tautomer", report.Mode)
	assert.True(t, report.Matched)
	require.NotEmpty(t, report.Embeddings)
	assert.NotEmpty(t, report.Embeddings[0].Chains)

	report = runMatchJSON(t, "--mode", "tautomer", "OC=C", "CCCC")
	assert.False(t, report.Matched)
}

func TestMatchCmd_TextAndTable(t *testing.T) {
	out, err := execute(t, "match", testutil.Benzene, testutil.Phenol)
	require.NoError(t, err)
	assert.Contains(t, out, "substructure c1ccccc1 in Oc1ccccc1: hit")
	assert.Contains(t, out, "#1")

	out, err = execute(t, "-o", "table", "match", testutil.Benzene, testutil.Phenol)
	require.NoError(t, err)
	assert.Contains(t, out, "MAPPING")
}

func TestMatchCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"similarity is not a match mode", []string{"--mode", "similarity", "C", "C"}, errors.ErrCodeValidation},
		{"unknown mode", []string{"--mode", "fuzzy", "C", "C"}, errors.ErrCodeValidation},
		{"negative cap", []string{"--max=-1", "C", "C"}, errors.ErrCodeValidation},
		{"bad target", []string{"C", "C(C"}, errors.ErrCodeNotationSyntax},
		{"bad query", []string{"C1CC", "CC"}, errors.ErrCodeNotationSyntax},
		{"bad conditions", []string{"--mode", "exact", "--conditions", "ELE XYZ", "C", "C"}, errors.ErrCodeUnknownCondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"match"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}

	_, err := execute(t, "match", "C")
	assert.Error(t, err, "two arguments are required")
}

func TestFormatMapping(t *testing.T) {
	assert.Equal(t, "0:3 2:5", formatMapping([]int{3, -1, 5, -2}))
	assert.Equal(t, "", formatMapping(nil))
	assert.Equal(t, "[1 2]", formatInts([]int{1, 2}))
}

//Personal.AI order the ending
