package shlib

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"mvdan.cc/sh/v3/syntax"
)

// ScanMode selects how function definitions are located in the library.
type ScanMode string

const (
	// ScanModeLegacy ends each function at the first line that is exactly "}".
	// A nested block closed by a brace-only line truncates the function.
	ScanModeLegacy ScanMode = "legacy"
	// ScanModeSyntax parses the library as shell and takes each top-level
	// function declaration in full, regardless of nesting.
	ScanModeSyntax ScanMode = "syntax"
)

// ScanModes lists the accepted scan modes.
var ScanModes = []ScanMode{ScanModeLegacy, ScanModeSyntax}

// ParseScanMode converts s into a ScanMode. An empty string means legacy.
func ParseScanMode(s string) (ScanMode, error) {
	switch ScanMode(s) {
	case "", ScanModeLegacy:
		return ScanModeLegacy, nil
	case ScanModeSyntax:
		return ScanModeSyntax, nil
	}
	return "", errors.Errorf("unknown scan mode %q (want legacy or syntax)", s)
}

// DefaultDialect is the shell dialect used when none is configured.
const DefaultDialect = "bash"

// ParseDialect converts a dialect name such as "bash", "posix" or "mksh"
// into a parser language variant. An empty name means bash.
func ParseDialect(s string) (syntax.LangVariant, error) {
	if s == "" {
		s = DefaultDialect
	}
	var lang syntax.LangVariant
	if err := lang.Set(s); err != nil {
		return lang, errors.Wrapf(err, "invalid shell dialect %q", s)
	}
	return lang, nil
}

// functionPattern is the shortest-match definition pattern: identifier,
// optional whitespace, "()", whitespace, "{", newline, then everything up to
// the first line consisting solely of "}".
var functionPattern = regexp.MustCompile(`(?ms)^([A-Za-z0-9_]+)\s*\(\)\s+\{\n.*?^\}$`)

// ExtractFunctions builds the function table with the shortest-match policy.
// When a name is defined more than once the later definition wins.
func ExtractFunctions(source string) Table {
	table := make(Table)
	for _, loc := range functionPattern.FindAllStringSubmatchIndex(source, -1) {
		name := source[loc[2]:loc[3]]
		table[name] = Function{
			Name: name,
			Body: source[loc[0]:loc[1]],
			Line: lineOf(source, loc[0]),
		}
	}
	return table
}

// extractFunctionsSyntax builds the function table from the top-level
// function declarations of the parsed library.
func extractFunctionsSyntax(source string, lang syntax.LangVariant) (Table, error) {
	file, err := syntax.NewParser(syntax.Variant(lang)).Parse(strings.NewReader(source), "library")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse function library")
	}

	table := make(Table)
	for _, stmt := range file.Stmts {
		decl, ok := stmt.Cmd.(*syntax.FuncDecl)
		if !ok || decl.Name == nil || !ValidName(decl.Name.Value) {
			continue
		}
		start, end := int(decl.Pos().Offset()), int(decl.End().Offset())
		if end > len(source) || start >= end {
			continue
		}
		table[decl.Name.Value] = Function{
			Name: decl.Name.Value,
			Body: source[start:end],
			Line: int(decl.Pos().Line()),
		}
	}
	return table, nil
}

// findSuspects reports functions whose body does not parse as a single,
// complete function declaration.
func findSuspects(table Table, lang syntax.LangVariant) []Suspect {
	var suspects []Suspect
	parser := syntax.NewParser(syntax.Variant(lang))
	for _, name := range (&Library{Functions: table}).Names() {
		fn := table[name]
		if reason := checkBody(parser, fn); reason != "" {
			suspects = append(suspects, Suspect{Name: fn.Name, Line: fn.Line, Reason: reason})
		}
	}
	return suspects
}

func checkBody(parser *syntax.Parser, fn Function) string {
	file, err := parser.Parse(strings.NewReader(fn.Body), fn.Name)
	if err != nil {
		return "body does not parse, the definition may be truncated: " + err.Error()
	}
	if len(file.Stmts) != 1 {
		return "body does not end with the function's closing brace"
	}
	if _, ok := file.Stmts[0].Cmd.(*syntax.FuncDecl); !ok {
		return "body is not a function declaration"
	}
	return ""
}
