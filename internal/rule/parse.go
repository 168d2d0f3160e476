package rule

import (
	"github.com/hailam/algchess/internal/board"
)

// Expr is a node of the parsed, not yet compiled, rule. Movement prefixes
// are still explicit and glue has not been evaluated.
type Expr interface {
	Pos() Pos
}

type (
	cellExpr struct {
		pos     Pos
		content board.Content
	}
	zeroExpr  struct{ pos Pos }
	nilExpr   struct{ pos Pos }
	transform struct {
		pos Pos
		m   board.Movement
		x   Expr
	}
	glueExpr struct {
		pos         Pos
		left, right Expr
	}
	altExpr struct {
		pos         Pos
		left, right Expr
		move        bool
	}
	seqExpr struct {
		pos         Pos
		first, then Expr
	}
	arrowExpr struct {
		pos      Pos
		lhs, rhs Expr
	}
	repeatExpr struct {
		pos      Pos
		x        Expr
		min, max int
	}
	bindExpr struct {
		pos   Pos
		piece board.Content
		body  Expr
	}
)

func (e *cellExpr) Pos() Pos   { return e.pos }
func (e *zeroExpr) Pos() Pos   { return e.pos }
func (e *nilExpr) Pos() Pos    { return e.pos }
func (e *transform) Pos() Pos  { return e.pos }
func (e *glueExpr) Pos() Pos   { return e.pos }
func (e *altExpr) Pos() Pos    { return e.pos }
func (e *seqExpr) Pos() Pos    { return e.pos }
func (e *arrowExpr) Pos() Pos  { return e.pos }
func (e *repeatExpr) Pos() Pos { return e.pos }
func (e *bindExpr) Pos() Pos   { return e.pos }

// isMove reports whether e denotes a move rather than a pattern.
func isMove(e Expr) bool {
	switch x := e.(type) {
	case *nilExpr, *seqExpr, *arrowExpr, *repeatExpr, *bindExpr:
		return true
	case *altExpr:
		return x.move
	case *transform:
		return isMove(x.x)
	}
	return false
}

func kindName(e Expr) string {
	if isMove(e) {
		return "move"
	}
	return "pattern"
}

// Parser parses rule source into an Expr tree.
//
// Precedence, loosest first: '|', sequence (juxtaposition, ';' or '·'),
// '->', glue '+', postfix quantifiers, prefix movements. A '+' after a move
// is the one-or-more quantifier; after a pattern it is glue. A binder
// "%p: body" extends as far right as possible.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses src into an Expr. The result is always a move.
func Parse(src string) (Expr, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	e, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		if tok.Type == TokenRParen {
			return nil, syntaxErrorf(tok.Pos, "unmatched ')'")
		}
		return nil, syntaxErrorf(tok.Pos, "unexpected %s", tok)
	}
	if !isMove(e) {
		return nil, syntaxErrorf(e.Pos(), "rule is a pattern, not a move (missing '->'?)")
	}
	return e, nil
}

func (p *Parser) peek() Token {
	return p.peekN(0)
}

func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func startsTerm(t TokenType) bool {
	switch t {
	case TokenPiece, TokenEmpty, TokenOffBoard, TokenPOI, TokenInt, TokenNil, TokenLParen, TokenMove:
		return true
	}
	return false
}

func (p *Parser) parseAlt() (Expr, error) {
	left, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPipe {
		op := p.advance()
		right, err := p.parseSeq()
		if err != nil {
			return nil, err
		}
		if isMove(left) != isMove(right) {
			return nil, syntaxErrorf(op.Pos, "'|' between a %s and a %s", kindName(left), kindName(right))
		}
		left = &altExpr{pos: op.Pos, left: left, right: right, move: isMove(left)}
	}
	return left, nil
}

func (p *Parser) parseSeq() (Expr, error) {
	left, err := p.parseArrow()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.Type == TokenSemi:
			p.advance()
		case startsTerm(tok.Type):
		default:
			return left, nil
		}
		right, err := p.parseArrow()
		if err != nil {
			return nil, err
		}
		if !isMove(left) {
			return nil, syntaxErrorf(right.Pos(), "expected '->' after pattern")
		}
		if !isMove(right) {
			return nil, syntaxErrorf(right.Pos(), "pattern in a sequence of moves (missing '->'?)")
		}
		left = &seqExpr{pos: left.Pos(), first: left, then: right}
	}
}

func (p *Parser) parseArrow() (Expr, error) {
	left, err := p.parseGlue()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TokenArrow {
		return left, nil
	}
	op := p.advance()
	if isMove(left) {
		return nil, syntaxErrorf(op.Pos, "left side of '->' is a move, not a pattern")
	}
	right, err := p.parseGlue()
	if err != nil {
		return nil, err
	}
	if isMove(right) {
		return nil, syntaxErrorf(right.Pos(), "right side of '->' is a move, not a pattern")
	}
	return &arrowExpr{pos: op.Pos, lhs: left, rhs: right}, nil
}

func (p *Parser) parseGlue() (Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPlus && !isMove(left) {
		op := p.advance()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		if isMove(right) {
			return nil, syntaxErrorf(right.Pos(), "cannot glue a move onto a pattern")
		}
		left = &glueExpr{pos: op.Pos, left: left, right: right}
	}
	return left, nil
}

func (p *Parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		lo, hi := 0, 0
		switch tok.Type {
		case TokenStar:
			p.advance()
			lo, hi = 0, Unbounded
		case TokenQuestion:
			p.advance()
			lo, hi = 0, 1
		case TokenPlus:
			if !isMove(x) {
				return x, nil
			}
			p.advance()
			lo, hi = 1, Unbounded
		case TokenLBrace:
			if lo, hi, err = p.parseBounds(); err != nil {
				return nil, err
			}
		default:
			return x, nil
		}
		if !isMove(x) {
			return nil, syntaxErrorf(tok.Pos, "quantifier %s applied to a pattern", tok.Type)
		}
		x = &repeatExpr{pos: tok.Pos, x: x, min: lo, max: hi}
	}
}

// parseBounds reads "{i}", "{i,j}" or "{i,}".
func (p *Parser) parseBounds() (int, int, error) {
	open := p.advance()
	first := p.advance()
	if first.Type != TokenInt {
		return 0, 0, syntaxErrorf(first.Pos, "expected a number after '{'")
	}
	lo, hi := first.Num, first.Num
	if p.peek().Type == TokenComma {
		p.advance()
		if tok := p.peek(); tok.Type == TokenInt {
			p.advance()
			hi = tok.Num
			if hi < 0 {
				return 0, 0, &QuantifierRangeError{Min: lo, Max: hi, Pos: open.Pos}
			}
		} else {
			hi = Unbounded
		}
	}
	if tok := p.advance(); tok.Type != TokenRBrace {
		return 0, 0, syntaxErrorf(tok.Pos, "expected '}' to close quantifier")
	}
	if lo < 0 || (hi != Unbounded && (hi < 0 || lo > hi)) {
		return 0, 0, &QuantifierRangeError{Min: lo, Max: hi, Pos: open.Pos}
	}
	return lo, hi, nil
}

func (p *Parser) parsePrefix() (Expr, error) {
	tok := p.peek()
	if tok.Type != TokenMove {
		return p.parsePrimary()
	}
	p.advance()
	x, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	return &transform{pos: tok.Pos, m: movementOf(tok), x: x}, nil
}

func movementOf(tok Token) board.Movement {
	var g board.Movement
	switch tok.Value {
	case "u":
		g = board.Translate(board.Up)
	case "d":
		g = board.Translate(board.Down)
	case "l":
		g = board.Translate(board.Left)
	case "r":
		g = board.Translate(board.Right)
	case "R":
		g = board.Rotate(1)
	case "F":
		g = board.Flip()
	case "C":
		g = board.ColourSwap()
	}
	return g.Pow(tok.Num)
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenPiece:
		return &cellExpr{pos: tok.Pos, content: board.Content([]rune(tok.Value)[0])}, nil
	case TokenEmpty:
		return &cellExpr{pos: tok.Pos, content: board.Empty}, nil
	case TokenOffBoard:
		return &cellExpr{pos: tok.Pos, content: board.OffBoard}, nil
	case TokenInt:
		if tok.Num != 0 || tok.Value != "0" {
			return nil, syntaxErrorf(tok.Pos, "unexpected number %s", tok.Value)
		}
		return &zeroExpr{pos: tok.Pos}, nil
	case TokenNil:
		return &nilExpr{pos: tok.Pos}, nil
	case TokenLParen:
		x, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		if p.peek().Type != TokenRParen {
			return nil, syntaxErrorf(tok.Pos, "unmatched '('")
		}
		p.advance()
		return x, nil
	case TokenPOI:
		return p.parsePOI(tok)
	case TokenRParen:
		return nil, syntaxErrorf(tok.Pos, "unmatched ')'")
	case TokenEOF:
		return nil, syntaxErrorf(tok.Pos, "unexpected end of rule")
	}
	return nil, syntaxErrorf(tok.Pos, "unexpected %s", tok)
}

// parsePOI reads either a binder "%p: body" or the placeholder cell.
func (p *Parser) parsePOI(tok Token) (Expr, error) {
	sym := p.peek()
	isSymbol := sym.Type == TokenPiece || (sym.Type == TokenMove && sym.Num == 1)
	if !isSymbol || p.peekN(1).Type != TokenColon {
		return &cellExpr{pos: tok.Pos, content: board.POI}, nil
	}
	p.advance()
	p.advance()
	body, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if !isMove(body) {
		return nil, syntaxErrorf(body.Pos(), "binder body is a pattern, not a move")
	}
	piece := board.Content([]rune(sym.Value)[0])
	return &bindExpr{pos: tok.Pos, piece: piece, body: body}, nil
}
