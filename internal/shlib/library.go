package shlib

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Default marker lines that delimit the boilerplate block
	DefaultBeginMarker = "# BEGIN BOILERPLATE"
	DefaultEndMarker   = "# END BOILERPLATE"
)

// validName is the identifier pattern every function name must match.
var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidName reports whether name can be used as a library function name.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// Markers are the exact lines that open and close the boilerplate block.
type Markers struct {
	Begin string
	End   string
}

// withDefaults fills empty markers with the default marker lines.
func (m Markers) withDefaults() Markers {
	if m.Begin == "" {
		m.Begin = DefaultBeginMarker
	}
	if m.End == "" {
		m.End = DefaultEndMarker
	}
	return m
}

// Function is one named shell function extracted from the library.
type Function struct {
	Name string
	// Body is the definition text from the name through the closing brace.
	Body string
	// Line is the 1-based line of the source where the definition starts.
	Line int
}

// Table maps function names to their definitions.
type Table map[string]Function

// Lookup returns the body of the named function.
func (t Table) Lookup(name string) (string, bool) {
	fn, ok := t[name]
	if !ok {
		return "", false
	}
	return fn.Body, true
}

// Suspect is a function whose extracted body does not look like a complete
// definition. It usually means the shortest-match scanner stopped at an inner
// brace-only line.
type Suspect struct {
	Name   string
	Line   int
	Reason string
}

// Library is the result of extracting a function library.
type Library struct {
	Boilerplate    string
	HasBoilerplate bool
	Functions      Table
	Suspects       []Suspect
}

// Names returns the function names sorted alphabetically.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Functions))
	for name := range l.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options control how a library is extracted.
type Options struct {
	Markers Markers
	Mode    ScanMode
	// Dialect is the shell dialect used by the parser, e.g. bash or posix.
	Dialect string
}

// Extract parses source into its boilerplate block and function table.
// A missing boilerplate block is not an error; HasBoilerplate is false and
// Boilerplate is empty.
func Extract(source string, opts Options) (*Library, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ScanModeLegacy
	}
	lang, err := ParseDialect(opts.Dialect)
	if err != nil {
		return nil, err
	}

	lib := &Library{}
	lib.Boilerplate, lib.HasBoilerplate = ExtractBoilerplate(source, opts.Markers)

	switch mode {
	case ScanModeLegacy:
		lib.Functions = ExtractFunctions(source)
		lib.Suspects = findSuspects(lib.Functions, lang)
	case ScanModeSyntax:
		lib.Functions, err = extractFunctionsSyntax(source, lang)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unknown scan mode: %s", mode)
	}

	return lib, nil
}

// ExtractBoilerplate returns the trimmed text between the first line that is
// exactly the begin marker and the next line that is exactly the end marker.
func ExtractBoilerplate(source string, markers Markers) (string, bool) {
	markers = markers.withDefaults()
	pattern := regexp.MustCompile(`(?ms)^` + regexp.QuoteMeta(markers.Begin) + `$(.*?)^` + regexp.QuoteMeta(markers.End) + `$`)
	m := pattern.FindStringSubmatch(source)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// lineOf returns the 1-based line number of byte offset off in source.
func lineOf(source string, off int) int {
	return strings.Count(source[:off], "\n") + 1
}
