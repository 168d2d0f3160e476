package rule

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota

	// Cells
	TokenPiece    // P, ♖, 'r'
	TokenEmpty    // .
	TokenOffBoard // #
	TokenPOI      // %
	TokenInt      // 0, 3, -1
	TokenNil      // nil

	// Movements
	TokenMove // u d l r R F C, with optional ^n

	// Operators
	TokenPlus     // +
	TokenArrow    // ->
	TokenPipe     // |
	TokenSemi     // ; or ·
	TokenStar     // *
	TokenQuestion // ?
	TokenColon    // :
	TokenComma    // ,
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of rule"
	case TokenPiece:
		return "PIECE"
	case TokenEmpty:
		return "'.'"
	case TokenOffBoard:
		return "'#'"
	case TokenPOI:
		return "'%'"
	case TokenInt:
		return "INT"
	case TokenNil:
		return "nil"
	case TokenMove:
		return "MOVE"
	case TokenPlus:
		return "'+'"
	case TokenArrow:
		return "'->'"
	case TokenPipe:
		return "'|'"
	case TokenSemi:
		return "';'"
	case TokenStar:
		return "'*'"
	case TokenQuestion:
		return "'?'"
	case TokenColon:
		return "':'"
	case TokenComma:
		return "','"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	// Power of a TokenMove, 1 when no ^n follows. Value of a TokenInt.
	Num int
	Pos Pos
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenMove:
		if t.Num != 1 {
			return fmt.Sprintf("%s^%d", t.Value, t.Num)
		}
		return t.Value
	case TokenPiece, TokenInt:
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
	return t.Type.String()
}

// movementLetters are the prefix operators spelled with a single ASCII
// letter.
const movementLetters = "udlrRFC"

func isMovementLetter(r rune) bool {
	for _, m := range movementLetters {
		if r == m {
			return true
		}
	}
	return false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

var singleTokens = map[rune]TokenType{
	'.': TokenEmpty, '#': TokenOffBoard, '%': TokenPOI,
	'+': TokenPlus, '|': TokenPipe, ';': TokenSemi, '·': TokenSemi,
	'*': TokenStar, '?': TokenQuestion, ':': TokenColon, ',': TokenComma,
	'{': TokenLBrace, '}': TokenRBrace, '(': TokenLParen, ')': TokenRParen,
}

// Lexer tokenizes rule source.
type Lexer struct {
	input  string
	pos    int // Current byte offset in input
	line   int // Current line number (1-based)
	col    int // Current column number (1-based)
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		if err := l.scan(); err != nil {
			return l.tokens, err
		}
		if n := len(l.tokens); n > 0 && l.tokens[n-1].Type == TokenEOF {
			return l.tokens, nil
		}
	}
}

func (l *Lexer) currentPos() Pos {
	return Pos{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) peekAt(n int) rune {
	i := l.pos
	for ; n > 0 && i < len(l.input); n-- {
		_, size := utf8.DecodeRuneInString(l.input[i:])
		i += size
	}
	if i >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[i:])
	return r
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) emit(typ TokenType, value string, pos Pos) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Num: 1, Pos: pos})
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// scan appends the tokens starting at the current position. A run of ASCII
// letters may produce several tokens.
func (l *Lexer) scan() error {
	l.skipWhitespaceAndComments()
	start := l.currentPos()
	if l.pos >= len(l.input) {
		l.emit(TokenEOF, "", start)
		return nil
	}

	ch := l.peek()
	if typ, ok := singleTokens[ch]; ok {
		l.advance()
		l.emit(typ, string(ch), start)
		return nil
	}

	switch {
	case ch == '-' && l.peekAt(1) == '>':
		l.advance()
		l.advance()
		l.emit(TokenArrow, "->", start)
		return nil
	case ch == '-' || (ch >= '0' && ch <= '9'):
		return l.scanInt()
	case ch == '\'':
		return l.scanQuoted()
	case isASCIILetter(ch):
		return l.scanLetters()
	case ch == '^' || ch == '=' || ch == '/' || ch == '"' || ch == '\\':
		l.advance()
		return syntaxErrorf(start, "unexpected character %q", ch)
	case unicode.IsControl(ch) || ch == utf8.RuneError:
		l.advance()
		return syntaxErrorf(start, "unexpected character %q", ch)
	}

	// any other symbol is a piece, chess glyphs included
	l.advance()
	l.emit(TokenPiece, string(ch), start)
	return nil
}

func (l *Lexer) scanInt() error {
	start := l.currentPos()
	from := l.pos
	if l.peek() == '-' {
		l.advance()
	}
	digits := 0
	for r := l.peek(); r >= '0' && r <= '9'; r = l.peek() {
		l.advance()
		digits++
	}
	text := l.input[from:l.pos]
	if digits == 0 {
		return syntaxErrorf(start, "unexpected character '-'")
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return syntaxErrorf(start, "invalid number %q", text)
	}
	l.tokens = append(l.tokens, Token{Type: TokenInt, Value: text, Num: n, Pos: start})
	return nil
}

func (l *Lexer) scanQuoted() error {
	start := l.currentPos()
	l.advance() // consume opening '
	if l.pos >= len(l.input) {
		return syntaxErrorf(start, "unterminated quoted piece")
	}
	r := l.advance()
	if l.peek() != '\'' {
		return syntaxErrorf(start, "quoted piece must be a single character")
	}
	l.advance() // consume closing '
	if unicode.IsSpace(r) {
		return syntaxErrorf(start, "quoted piece must not be blank")
	}
	l.emit(TokenPiece, string(r), start)
	return nil
}

// scanLetters splits a run of ASCII letters. Movement letters become
// TokenMove; a final letter that is not a movement is a piece; "nil" is the
// empty move. Anything else is an unknown symbol, which is what an
// undefined macro name looks like after expansion.
func (l *Lexer) scanLetters() error {
	start := l.currentPos()
	from := l.pos
	for isASCIILetter(l.peek()) {
		l.advance()
	}
	word := l.input[from:l.pos]
	if word == "nil" {
		l.emit(TokenNil, word, start)
		return nil
	}

	// rewind and emit letter by letter
	l.pos, l.line, l.col = start.Offset, start.Line, start.Column
	for i := 0; i < len(word); i++ {
		pos := l.currentPos()
		r := l.advance()
		last := i == len(word)-1
		if !isMovementLetter(r) {
			if !last {
				return syntaxErrorf(start, "unknown symbol %q", word)
			}
			l.emit(TokenPiece, string(r), pos)
			break
		}
		tok := Token{Type: TokenMove, Value: string(r), Num: 1, Pos: pos}
		if last && l.peek() == '^' {
			n, err := l.scanPower()
			if err != nil {
				return err
			}
			tok.Num = n
		}
		l.tokens = append(l.tokens, tok)
	}
	return nil
}

// scanPower reads "^n" or "^-n" after a movement letter.
func (l *Lexer) scanPower() (int, error) {
	start := l.currentPos()
	l.advance() // consume ^
	from := l.pos
	if l.peek() == '-' {
		l.advance()
	}
	for r := l.peek(); r >= '0' && r <= '9'; r = l.peek() {
		l.advance()
	}
	n, err := strconv.Atoi(l.input[from:l.pos])
	if err != nil {
		return 0, syntaxErrorf(start, "expected a power after '^'")
	}
	return n, nil
}
