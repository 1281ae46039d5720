package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_005"
	ErrCodeConflict       ErrorCode = "COMMON_006"
	ErrCodeTimeout        ErrorCode = "COMMON_009"
	ErrCodeValidation     ErrorCode = "COMMON_010"
	ErrCodeSerialization  ErrorCode = "COMMON_011"
	ErrCodeCacheError     ErrorCode = "COMMON_013"
	ErrCodeNotImplemented ErrorCode = "COMMON_016"
)

// Aliases used by the factory helpers.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeTimeout      = ErrCodeTimeout
	CodeCacheError   = ErrCodeCacheError
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Graph Module Error Codes
const (
	ErrCodeVertexNotFound ErrorCode = "GRAPH_001"
	ErrCodeEdgeNotFound   ErrorCode = "GRAPH_002"
	ErrCodeEdgeExists     ErrorCode = "GRAPH_003"
	ErrCodeSelfLoop       ErrorCode = "GRAPH_004"
)

// Matching Module Error Codes
const (
	ErrCodeQueryNotSet         ErrorCode = "MATCH_001"
	ErrCodeCoordinatesRequired ErrorCode = "MATCH_002"
	ErrCodeSearchAborted       ErrorCode = "MATCH_003"
	ErrCodeUnsupportedQuery    ErrorCode = "MATCH_004"
)

// R-group Module Error Codes
const (
	ErrCodeAttachmentPoints ErrorCode = "RGRP_001"
	ErrCodeIfThenCycle      ErrorCode = "RGRP_002"
	ErrCodeRGroupUndefined  ErrorCode = "RGRP_003"
)

// Geometry Module Error Codes
const (
	ErrCodeDegenerateGeometry ErrorCode = "GEOM_001"
	ErrCodeConstraintInvalid  ErrorCode = "GEOM_002"
)

// Tautomer Module Error Codes
const (
	ErrCodeUnknownHydrogenDiff ErrorCode = "TAU_001"
	ErrCodeTautomerRule        ErrorCode = "TAU_002"
)

// Condition DSL Error Codes
const (
	ErrCodeUnknownCondition ErrorCode = "COND_001"
)

// Notation Module Error Codes
const (
	ErrCodeNotationSyntax   ErrorCode = "NOTATION_001"
	ErrCodeNotationRingBond ErrorCode = "NOTATION_002"
	ErrCodeNotationElement  ErrorCode = "NOTATION_003"
)

// Screening Module Error Codes
const (
	ErrCodeScreeningInvalidRequest ErrorCode = "SCREEN_001"
	ErrCodeScreeningCancelled      ErrorCode = "SCREEN_002"
)

// Cache Module Error Codes
const (
	ErrCodeCacheMiss        ErrorCode = "CACHE_001"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:       "internal error",
	ErrCodeBadRequest:     "bad request",
	ErrCodeNotFound:       "resource not found",
	ErrCodeConflict:       "invalid state",
	ErrCodeTimeout:        "operation timed out",
	ErrCodeValidation:     "validation failed",
	ErrCodeSerialization:  "serialization failed",
	ErrCodeCacheError:     "cache error",
	ErrCodeNotImplemented: "not implemented",

	ErrCodeVertexNotFound: "vertex not found",
	ErrCodeEdgeNotFound:   "edge not found",
	ErrCodeEdgeExists:     "edge already exists",
	ErrCodeSelfLoop:       "self loops are not supported",

	ErrCodeQueryNotSet:         "query is not set",
	ErrCodeCoordinatesRequired: "3D matching requires query coordinates",
	ErrCodeSearchAborted:       "search aborted",
	ErrCodeUnsupportedQuery:    "unsupported query feature",

	ErrCodeAttachmentPoints: "R-group fragment has unsupported attachment point count",
	ErrCodeIfThenCycle:      "R-group if/then chain is cyclic",
	ErrCodeRGroupUndefined:  "R-site references an undefined R-group",

	ErrCodeDegenerateGeometry: "degenerate geometry in spatial constraint",
	ErrCodeConstraintInvalid:  "invalid spatial constraint",

	ErrCodeUnknownHydrogenDiff: "unknown hydrogen difference",
	ErrCodeTautomerRule:        "invalid tautomer rule",

	ErrCodeUnknownCondition: "unknown matching condition",

	ErrCodeNotationSyntax:   "invalid line notation",
	ErrCodeNotationRingBond: "unclosed or conflicting ring bond",
	ErrCodeNotationElement:  "unknown element symbol",

	ErrCodeScreeningInvalidRequest: "invalid screening request",
	ErrCodeScreeningCancelled:      "screening cancelled",

	ErrCodeCacheMiss:        "cache miss",
	ErrCodeCacheUnavailable: "cache unavailable",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsContractViolation reports whether code signals a caller mistake (an invalid
// query, option combination or constraint set) rather than an infrastructure fault.
func IsContractViolation(code ErrorCode) bool {
	switch ModuleForCode(code) {
	case "MATCH", "RGRP", "GEOM", "TAU", "COND", "NOTATION", "GRAPH":
		return code != ErrCodeSearchAborted
	}
	return code == ErrCodeBadRequest || code == ErrCodeValidation
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
