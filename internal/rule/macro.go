package rule

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxExpansionDepth bounds nested macro references, which also catches
// definitions that refer to themselves.
const maxExpansionDepth = 32

// Builtin function macros. The argument replaces each "x".
var builtins = map[string]func(arg string) string{
	"in_any_direction": func(x string) string {
		return fmt.Sprintf("((%s)|R(%s)|R^2(%s)|R^3(%s))", x, x, x, x)
	},
	"colour_swapped": func(x string) string { return "(C(" + x + "))" },
	"color_swapped":  func(x string) string { return "(C(" + x + "))" },
	"flipped":        func(x string) string { return "(F(" + x + "))" },
	"rotated":        func(x string) string { return "(R(" + x + "))" },
}

var (
	macroName       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	definitionLine  = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=(.*)$`)
	onlyMoveLetters = regexp.MustCompile(`^[` + movementLetters + `]+$`)
)

// Macros is a set of named rule fragments substituted into source text
// before parsing. Each use of a name is replaced by its body in
// parentheses; builtin functions such as in_any_direction(x) are expanded
// the same way.
//
//	src, err := rule.NewMacros().
//		Define("step", "P + u. -> . + uP").
//		Expand("step | colour_swapped(step)")
type Macros struct {
	defs map[string]string
	err  error
}

// NewMacros returns an empty macro set.
func NewMacros() *Macros {
	return &Macros{defs: make(map[string]string)}
}

// Define adds or replaces a macro. An invalid name is reported by the next
// Expand.
func (m *Macros) Define(name, body string) *Macros {
	if m.err != nil {
		return m
	}
	if msg := validateMacroName(name); msg != "" {
		m.err = &SyntaxError{Message: msg}
		return m
	}
	m.defs[name] = strings.TrimSpace(body)
	return m
}

// Names returns the defined names in sorted order.
func (m *Macros) Names() []string {
	names := make([]string, 0, len(m.defs))
	for n := range m.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Body returns the definition of name.
func (m *Macros) Body(name string) (string, bool) {
	b, ok := m.defs[name]
	return b, ok
}

// Clone returns an independent copy.
func (m *Macros) Clone() *Macros {
	c := &Macros{defs: make(map[string]string, len(m.defs)), err: m.err}
	for k, v := range m.defs {
		c.defs[k] = v
	}
	return c
}

func validateMacroName(name string) string {
	switch {
	case !macroName.MatchString(name):
		return fmt.Sprintf("invalid macro name %q", name)
	case len(name) < 2:
		return fmt.Sprintf("macro name %q is a single character and would shadow a piece", name)
	case name == "nil":
		return fmt.Sprintf("macro name %q is reserved", name)
	case onlyMoveLetters.MatchString(name):
		return fmt.Sprintf("macro name %q is spelled with movement letters only", name)
	case builtins[name] != nil:
		return fmt.Sprintf("macro name %q is a builtin", name)
	}
	return ""
}

// expandError is a failure at a byte offset of the text being expanded.
type expandError struct {
	off int
	msg string
}

// Expand substitutes every macro and builtin in src. Errors are
// *SyntaxError values positioned in src.
func (m *Macros) Expand(src string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	out, xerr := m.expand(src, 0)
	if xerr != nil {
		return "", &SyntaxError{Message: xerr.msg, Pos: posAt(src, xerr.off)}
	}
	return out, nil
}

func (m *Macros) expand(src string, depth int) (string, *expandError) {
	var out strings.Builder
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			out.WriteString(src[i : i+end])
			i += end

		case c == '\'' && i+2 < len(src):
			// quoted piece, copied as is
			end := strings.IndexByte(src[i+1:], '\'')
			if end < 0 {
				out.WriteString(src[i:])
				i = len(src)
				break
			}
			out.WriteString(src[i : i+end+2])
			i += end + 2

		case isWordStart(c):
			j := i + 1
			for j < len(src) && isWordByte(src[j]) {
				j++
			}
			word := src[i:j]
			if fn := builtins[word]; fn != nil {
				arg, start, next, xerr := callArgument(src, i, j, word)
				if xerr != nil {
					return "", xerr
				}
				expanded, xerr := m.expand(arg, depth)
				if xerr != nil {
					xerr.off += start
					return "", xerr
				}
				out.WriteString(fn(expanded))
				i = next
				continue
			}
			if body, ok := m.defs[word]; ok {
				if depth >= maxExpansionDepth {
					return "", &expandError{off: i, msg: fmt.Sprintf("macro expansion deeper than %d levels (recursive definition?)", maxExpansionDepth)}
				}
				expanded, xerr := m.expand(body, depth+1)
				if xerr != nil {
					return "", &expandError{off: i, msg: fmt.Sprintf("in macro %s: %s", word, xerr.msg)}
				}
				out.WriteString("(" + expanded + ")")
			} else {
				out.WriteString(word)
			}
			i = j

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

// callArgument returns the text between the parentheses that follow the
// builtin name at src[at:from], the offset of that text and the offset
// after the closing parenthesis.
func callArgument(src string, at, from int, name string) (string, int, int, *expandError) {
	i := from
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i >= len(src) || src[i] != '(' {
		return "", 0, 0, &expandError{off: at, msg: fmt.Sprintf("builtin %s needs an argument in parentheses", name)}
	}
	depth := 0
	for j := i; j < len(src); j++ {
		switch src[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return src[i+1 : j], i + 1, j + 1, nil
			}
		}
	}
	return "", 0, 0, &expandError{off: i, msg: fmt.Sprintf("unclosed argument of builtin %s", name)}
}

// posAt converts a byte offset of src to a position, counting columns in
// runes like the lexer does.
func posAt(src string, off int) Pos {
	p := Pos{Line: 1, Column: 1, Offset: off}
	for _, r := range src[:off] {
		if r == '\n' {
			p.Line++
			p.Column = 1
		} else {
			p.Column++
		}
	}
	return p
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

// Source is rule text with its macro definitions separated out.
type Source struct {
	Macros *Macros
	Rule   string
}

// SplitSource reads "name = body" lines as macro definitions and keeps the
// remaining lines as the rule. Definition lines are blanked rather than
// removed so that positions in the rule are positions in src. Definitions
// apply to the whole rule regardless of where they appear.
func SplitSource(src string) (*Source, error) {
	s := &Source{Macros: NewMacros()}
	lines := strings.Split(src, "\n")
	offset := 0
	for n, line := range lines {
		start := offset
		offset += len(line) + 1
		code := line
		if i := strings.Index(code, "//"); i >= 0 {
			code = code[:i]
		}
		match := definitionLine.FindStringSubmatchIndex(code)
		if match == nil {
			continue
		}
		name := code[match[2]:match[3]]
		if msg := validateMacroName(name); msg != "" {
			col := utf8.RuneCountInString(code[:match[2]]) + 1
			return nil, &SyntaxError{Message: msg, Pos: Pos{Line: n + 1, Column: col, Offset: start + match[2]}}
		}
		s.Macros.Define(name, code[match[4]:match[5]])
		lines[n] = ""
	}
	s.Rule = strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace)
	return s, nil
}

// Expand returns the rule with every macro substituted.
func (s *Source) Expand() (string, error) {
	return s.Macros.Expand(s.Rule)
}

// CompileSource splits definitions from src, expands them and compiles the
// rule.
func CompileSource(src string) (Move, error) {
	s, err := SplitSource(src)
	if err != nil {
		return nil, err
	}
	expanded, err := s.Expand()
	if err != nil {
		return nil, err
	}
	return Compile(expanded)
}
