// Package diagnostics is the checker's error taxonomy: a typed error code,
// the offending token's position, a human message, and (for checker
// failures) a derivation trail explaining which rule was tried and why it
// did not apply.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/mezzolang/mezzo/internal/token"
)

// ErrorCode classifies a diagnostic by the pipeline stage that raised it.
type ErrorCode string

const (
	ErrLexInvalidCodepoint ErrorCode = "L001"
	ErrLexUnterminatedString ErrorCode = "L002"

	ErrParseUnexpectedToken ErrorCode = "P001"
	ErrParseExpectedExpr    ErrorCode = "P002"
	ErrParseExpectedType    ErrorCode = "P003"
	ErrParseExpectedPattern ErrorCode = "P004"

	ErrKindMismatch    ErrorCode = "K001"
	ErrKindUnknownName ErrorCode = "K002"

	ErrCheckSubtractionFailed ErrorCode = "C001"
	ErrCheckInconsistentAdd   ErrorCode = "C002"
	ErrCheckUnsolvedFlexible  ErrorCode = "C003"
	ErrCheckNoWritablePerm    ErrorCode = "C004"
	ErrCheckAdoptsMismatch    ErrorCode = "C005"
	ErrCheckUnboundVariable   ErrorCode = "C006"
	ErrCheckAnnotationMismatch ErrorCode = "C007"

	ErrModuleCycle           ErrorCode = "M001"
	ErrModuleMissingExport   ErrorCode = "M002"
	ErrModuleInterfaceBroken ErrorCode = "M003"

	ErrTranslateUnknownHead ErrorCode = "T001"
)

// Step is one node of a derivation tree: the rule name tried, whether it
// applied, and any nested sub-proofs it attempted.
type Step struct {
	Rule     string
	Detail   string
	Children []Step
}

// DiagnosticError is the error value threaded through every pipeline
// stage. Pos names the offending source location; Derivation is non-nil
// only for checker failures (§4.7's "derivation (a tree of subproofs)").
type DiagnosticError struct {
	Code       ErrorCode
	Pos        token.Position
	Message    string
	Derivation *Step
}

func (e *DiagnosticError) Error() string {
	if e.Pos.File == "" && e.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
}

// New builds a DiagnosticError with no derivation trail (lexer/parser/
// kind-checker errors: a single point failure, nothing to show a
// derivation for).
func New(code ErrorCode, pos token.Position, format string, args ...any) *DiagnosticError {
	return &DiagnosticError{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// NewWithDerivation builds a checker-stage error carrying the sequence of
// rule attempts that led to the failure.
func NewWithDerivation(code ErrorCode, pos token.Position, message string, derivation Step) *DiagnosticError {
	return &DiagnosticError{Code: code, Pos: pos, Message: message, Derivation: &derivation}
}

// Render renders the derivation tree (if any) as indented text, for the
// CLI's one-line-summary-plus-detail diagnostic output.
func (e *DiagnosticError) Render() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Derivation != nil {
		sb.WriteString("\n")
		renderStep(&sb, *e.Derivation, 1)
	}
	return sb.String()
}

func renderStep(sb *strings.Builder, s Step, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	sb.WriteString(s.Rule)
	if s.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(s.Detail)
	}
	sb.WriteString("\n")
	for _, c := range s.Children {
		renderStep(sb, c, depth+1)
	}
}
