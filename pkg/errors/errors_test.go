// Package errors_test exercises the AppError type, its factories and the
// error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molmatch/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"query not set", errors.ErrCodeQueryNotSet, "find called before SetQuery"},
		{"invalid param", errors.CodeInvalidParam, "notation must not be empty"},
		{"attachment points", errors.ErrCodeAttachmentPoints, "fragment has 3 attachment points"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.Contains(t, ae.Stack, "errors_test.go")
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeRGroupUndefined, "R%d is not defined", 4)
	assert.Equal(t, "R4 is not defined", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	root := stderrors.New("eof")
	ae := errors.Wrap(root, errors.ErrCodeNotationSyntax, "cannot read query")
	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, root, ae.Unwrap())
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	inner := errors.New(errors.ErrCodeDegenerateGeometry, "zero-length line")
	outer := errors.Wrap(inner, errors.CodeUnknown, "constraint check failed")
	assert.Equal(t, errors.ErrCodeDegenerateGeometry, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	inner := errors.New(errors.ErrCodeDegenerateGeometry, "zero-length line")
	outer := errors.Wrap(inner, errors.ErrCodeSearchAborted, "search aborted")
	assert.Equal(t, errors.ErrCodeSearchAborted, outer.Code)
	assert.True(t, errors.IsCode(outer, errors.ErrCodeDegenerateGeometry))
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError formatting
// ─────────────────────────────────────────────────────────────────────────────

func TestError_FormatWithoutDetail(t *testing.T) {
	ae := errors.New(errors.ErrCodeQueryNotSet, "query is not set")
	assert.Equal(t, "[MATCH_001] query is not set", ae.Error())
}

func TestError_FormatWithDetail(t *testing.T) {
	ae := errors.New(errors.ErrCodeUnknownCondition, "unknown condition").WithDetail("token=XYZ")
	assert.Equal(t, "[COND_001] unknown condition: token=XYZ", ae.Error())
}

func TestError_EmptyMessageDoesNotPanic(t *testing.T) {
	ae := errors.New(errors.CodeInternal, "")
	assert.NotPanics(t, func() { _ = ae.Error() })
}

// ─────────────────────────────────────────────────────────────────────────────
// Fluent builders
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_SetsDetailOnCopy(t *testing.T) {
	orig := errors.New(errors.CodeInternal, "boom")
	withDetail := orig.WithDetail("atom=3")
	assert.Empty(t, orig.Detail)
	assert.Equal(t, "atom=3", withDetail.Detail)
}

func TestWithDetailf_Formats(t *testing.T) {
	ae := errors.InvalidParam("bad rms").WithDetailf("rms=%.2f", -1.0)
	assert.Equal(t, "rms=-1.00", ae.Detail)
}

func TestWithDetail_NilReceiverReturnsNil(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestWithCause_DoesNotMutateOriginal(t *testing.T) {
	orig := errors.New(errors.CodeInternal, "boom")
	cause := stderrors.New("root")
	withCause := orig.WithCause(cause)
	assert.Nil(t, orig.Cause)
	assert.Equal(t, cause, withCause.Cause)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode(t *testing.T) {
	level0 := errors.New(errors.ErrCodeAttachmentPoints, "three attachment points")
	level1 := errors.Wrap(level0, errors.CodeUnknown, "set query")
	level2 := fmt.Errorf("screen: %w", level1)

	assert.True(t, errors.IsCode(level2, errors.ErrCodeAttachmentPoints))
	assert.False(t, errors.IsCode(level2, errors.ErrCodeIfThenCycle))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
	assert.False(t, errors.IsCode(stderrors.New("plain"), errors.CodeInternal))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	wrapped := fmt.Errorf("ctx: %w", errors.New(errors.ErrCodeEdgeExists, "dup"))
	assert.Equal(t, errors.ErrCodeEdgeExists, errors.GetCode(wrapped))
}

func TestConvenienceFactories_ReturnCorrectCode(t *testing.T) {
	cases := []struct {
		name     string
		err      *errors.AppError
		wantCode errors.ErrorCode
	}{
		{"NotFound", errors.NotFound("not found"), errors.CodeNotFound},
		{"InvalidParam", errors.InvalidParam("bad input"), errors.CodeInvalidParam},
		{"InvalidState", errors.InvalidState("find before set"), errors.CodeConflict},
		{"Internal", errors.Internal("server error"), errors.CodeInternal},
		{"Timeout", errors.Timeout("deadline"), errors.CodeTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NotNil(t, tc.err)
			assert.Equal(t, tc.wantCode, tc.err.Code)
			assert.True(t, strings.HasPrefix(tc.err.Error(), "["+string(tc.wantCode)+"]"))
		})
	}
}

func TestStdlib_ErrorsAs_ExtractsAppError(t *testing.T) {
	err := fmt.Errorf("outer: %w", errors.New(errors.ErrCodeIfThenCycle, "cycle"))
	var ae *errors.AppError
	require.True(t, stderrors.As(err, &ae))
	assert.Equal(t, errors.ErrCodeIfThenCycle, ae.Code)
}

//Personal.AI order the ending
