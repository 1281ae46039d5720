package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
	assert.Equal(t, "RGRP_001", ErrCodeAttachmentPoints.String())
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "query is not set", DefaultMessageForCode(ErrCodeQueryNotSet))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsContractViolation(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeQueryNotSet, true},
		{ErrCodeCoordinatesRequired, true},
		{ErrCodeAttachmentPoints, true},
		{ErrCodeDegenerateGeometry, true},
		{ErrCodeUnknownCondition, true},
		{ErrCodeSearchAborted, false},
		{ErrCodeCacheError, false},
		{ErrCodeCacheMiss, false},
		{ErrCodeInternal, false},
		{ErrCodeBadRequest, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsContractViolation(tt.code), string(tt.code))
	}
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "GRAPH", ModuleForCode(ErrCodeEdgeExists))
	assert.Equal(t, "MATCH", ModuleForCode(ErrCodeQueryNotSet))
	assert.Equal(t, "RGRP", ModuleForCode(ErrCodeIfThenCycle))
	assert.Equal(t, "GEOM", ModuleForCode(ErrCodeDegenerateGeometry))
	assert.Equal(t, "TAU", ModuleForCode(ErrCodeUnknownHydrogenDiff))
	assert.Equal(t, "COND", ModuleForCode(ErrCodeUnknownCondition))
	assert.Equal(t, "NOTATION", ModuleForCode(ErrCodeNotationSyntax))
	assert.Equal(t, "SCREEN", ModuleForCode(ErrCodeScreeningCancelled))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeMessage {
		assert.Regexp(t, re, string(code))
	}
}

//Personal.AI order the ending
