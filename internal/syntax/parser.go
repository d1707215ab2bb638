package syntax

import (
	"fmt"
	"io"
)

// SyntaxError describes a parse failure: the file and position at which
// it occurred and a rendering of the expected versus actual token.
type SyntaxError struct {
	File string
	Line uint32
	Col  uint32
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[error: %s: %d:%d] %s", e.File, e.Line, e.Col, e.Msg)
}

// Parser performs syntax analysis on Jack source code.
//
// It is a recursive-descent parser with single-token lookahead and no
// backtracking. Scope tables are populated as declarations are parsed:
// a declaration is inserted into the current scope before its body is
// parsed, so self-references resolve. There is no error recovery; the
// first mismatch aborts the compilation unit.
type Parser struct {
	lex  *Lexer
	file string

	cls *ClassDecl      // current class
	fn  *SubroutineDecl // current subroutine
}

// bailout aborts the parse via panic; Parse recovers it.
type bailout struct {
	err *SyntaxError
}

// NewParser creates a new Parser for the given source.
func NewParser(filename string, src io.Reader) *Parser {
	return &Parser{
		lex:  NewLexer(filename, src),
		file: filename,
	}
}

// Parse parses a complete compilation unit (one class per file) and
// returns the ClassDecl, or a *SyntaxError.
func (p *Parser) Parse() (cls *ClassDecl, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			cls, err = nil, b.err
		}
	}()
	return p.parseClass(), nil
}

// ----------------------------------------------------------------------------
// Error handling

// syntaxErrorf aborts the parse with a formatted message at the current
// token position.
func (p *Parser) syntaxErrorf(format string, args ...interface{}) {
	panic(bailout{&SyntaxError{
		File: p.file,
		Line: p.lex.Line(),
		Col:  p.lex.Col(),
		Msg:  fmt.Sprintf(format, args...),
	}})
}

// expected aborts with a rendering of the expected token set against
// the actual token.
func (p *Parser) expected(want ...Token) {
	msg := "Expected "
	for i, t := range want {
		if i > 0 {
			msg += " or "
		}
		msg += t.String()
	}
	p.syntaxErrorf("%s but found %s", msg, p.lex.Peek())
}

// ----------------------------------------------------------------------------
// Token navigation

// got consumes the current token if it is the given keyword.
func (p *Parser) got(k Keyword) bool {
	if p.lex.Peek().Is(k) {
		p.lex.Advance()
		return true
	}
	return false
}

// gotSym consumes the current token if it is the given symbol.
func (p *Parser) gotSym(s Symbol) bool {
	if p.lex.Peek().IsSym(s) {
		p.lex.Advance()
		return true
	}
	return false
}

// want consumes the given keyword or aborts.
func (p *Parser) want(k Keyword) {
	if !p.got(k) {
		p.expected(KeywordToken(k))
	}
}

// wantSym consumes the given symbol or aborts.
func (p *Parser) wantSym(s Symbol) {
	if !p.gotSym(s) {
		p.expected(SymbolToken(s))
	}
}

// ident consumes an identifier and returns its name, or aborts.
func (p *Parser) ident() string {
	tok := p.lex.Peek()
	if tok.Kind != TokIdent {
		p.syntaxErrorf("Expected token Identifier but found token %s", tok.Kind)
	}
	p.lex.Advance()
	return tok.Text
}

// ----------------------------------------------------------------------------
// Declarations

// parseClass recognizes:
//
//	class := 'class' Ident '{' classVarDec* subroutineDec* '}'
func (p *Parser) parseClass() *ClassDecl {
	pos := p.lex.TokenPos()
	p.want(KwClass)

	cls := NewClassDecl(pos, p.ident())
	p.cls = cls
	p.wantSym(SymLbrace)

	for p.lex.Peek().Is(KwStatic) || p.lex.Peek().Is(KwField) {
		p.parseClassVarDec(cls)
	}

	for {
		tok := p.lex.Peek()
		switch {
		case tok.Is(KwConstructor):
			cls.AddFunc(p.parseSubroutineDec(FuncConstructor))
		case tok.Is(KwFunction):
			cls.AddFunc(p.parseSubroutineDec(FuncStatic))
		case tok.Is(KwMethod):
			cls.AddMethod(p.parseSubroutineDec(FuncMethod))
		default:
			p.wantSym(SymRbrace)
			return cls
		}
	}
}

// parseClassVarDec recognizes:
//
//	classVarDec := ('static'|'field') type Ident (',' Ident)* ';'
//
// Each declared name is inserted into the class scope at its point of
// declaration.
func (p *Parser) parseClassVarDec(cls *ClassDecl) {
	isStatic := p.lex.Peek().Is(KwStatic)
	p.lex.Advance()

	typeName := p.typeName(false)
	for {
		pos := p.lex.TokenPos()
		d := NewVarDecl(pos, p.ident(), typeName)
		cls.Table.Insert(d)
		if isStatic {
			cls.AddStatic(d)
		} else {
			cls.AddField(d)
		}
		if !p.gotSym(SymComma) {
			break
		}
	}
	p.wantSym(SymSemi)
}

// parseSubroutineDec recognizes:
//
//	subDec := ('constructor'|'function'|'method') (type|'void')
//	          Ident '(' paramList ')' body
//
// The declaration is created (and its parameters inserted into its
// scope) before the body is parsed.
func (p *Parser) parseSubroutineDec(kind FuncKind) *SubroutineDecl {
	pos := p.lex.TokenPos()
	p.lex.Advance() // subroutine keyword, matched by caller

	retType := p.typeName(true)
	name := p.ident()

	p.wantSym(SymLparen)
	params := p.parseParamList()
	p.wantSym(SymRparen)

	// The declaration exists before its body is parsed; the class
	// attaches the back-reference (and the receiver type) on adoption,
	// after the body returns to parseClass.
	fn := NewSubroutineDecl(pos, kind, name, retType, params)
	p.fn = fn
	fn.Body = p.parseBody()
	return fn
}

// parseParamList recognizes a possibly empty parameter list:
//
//	paramList := (type Ident (',' type Ident)*)?
func (p *Parser) parseParamList() []*VarDecl {
	var params []*VarDecl
	if p.lex.Peek().IsSym(SymRparen) {
		return params
	}
	for {
		typeName := p.typeName(false)
		pos := p.lex.TokenPos()
		params = append(params, NewVarDecl(pos, p.ident(), typeName))
		if !p.gotSym(SymComma) {
			break
		}
	}
	return params
}

// parseBody recognizes:
//
//	body := '{' varDec* statement* '}'
func (p *Parser) parseBody() *Block {
	b := &Block{}
	b.pos = p.lex.TokenPos()
	p.wantSym(SymLbrace)

	for p.lex.Peek().Is(KwVar) {
		p.parseVarDec(b)
	}

	for p.lex.Peek().Kind == TokKeyword {
		switch p.lex.Peek().Keyword {
		case KwLet:
			b.Stmts = append(b.Stmts, p.parseLet())
		case KwIf:
			b.Stmts = append(b.Stmts, p.parseIf())
		case KwWhile:
			b.Stmts = append(b.Stmts, p.parseWhile())
		case KwDo:
			b.Stmts = append(b.Stmts, p.parseDo())
		case KwReturn:
			b.Stmts = append(b.Stmts, p.parseReturn())
		default:
			p.expected(KeywordToken(KwLet), KeywordToken(KwIf),
				KeywordToken(KwWhile), KeywordToken(KwDo), KeywordToken(KwReturn))
		}
	}

	p.wantSym(SymRbrace)
	return b
}

// parseVarDec recognizes:
//
//	varDec := 'var' type Ident (',' Ident)* ';'
//
// Declarations are appended to the block and inserted into the current
// subroutine's scope at their point of declaration.
func (p *Parser) parseVarDec(b *Block) {
	p.want(KwVar)
	typeName := p.typeName(false)
	for {
		pos := p.lex.TokenPos()
		d := NewVarDecl(pos, p.ident(), typeName)
		p.fn.Table.Insert(d)
		b.Stmts = append(b.Stmts, d)
		if !p.gotSym(SymComma) {
			break
		}
	}
	p.wantSym(SymSemi)
}

// typeName consumes a type: int, char, boolean, a class name, or (when
// allowVoid) void.
func (p *Parser) typeName(allowVoid bool) string {
	tok := p.lex.Peek()
	switch tok.Kind {
	case TokIdent:
		p.lex.Advance()
		return tok.Text
	case TokKeyword:
		switch tok.Keyword {
		case KwInt, KwChar, KwBoolean:
			p.lex.Advance()
			return tok.Keyword.String()
		case KwVoid:
			if allowVoid {
				p.lex.Advance()
				return tok.Keyword.String()
			}
		}
	}
	p.expected(KeywordToken(KwInt), KeywordToken(KwChar), KeywordToken(KwBoolean))
	return ""
}

// ----------------------------------------------------------------------------
// Statements

// parseLet recognizes:
//
//	let := 'let' Ident ('[' expr ']')? '=' expr ';'
func (p *Parser) parseLet() Stmt {
	s := &LetStmt{}
	s.pos = p.lex.TokenPos()
	p.want(KwLet)

	name := p.ident()
	if p.gotSym(SymLbrack) {
		index := p.parseExpr()
		p.wantSym(SymRbrack)
		s.Target = p.namedValue(name, index)
	} else {
		s.Target = p.namedValue(name, nil)
	}

	p.wantSym(SymEq)
	s.Value = p.parseExpr()
	p.wantSym(SymSemi)
	return s
}

// parseIf recognizes:
//
//	if := 'if' '(' expr ')' body ('else' body)?
func (p *Parser) parseIf() Stmt {
	s := &IfStmt{}
	s.pos = p.lex.TokenPos()
	p.want(KwIf)

	p.wantSym(SymLparen)
	s.Cond = p.parseExpr()
	p.wantSym(SymRparen)

	s.Then = p.parseBody()
	if p.got(KwElse) {
		s.Else = p.parseBody()
	}
	return s
}

// parseWhile recognizes:
//
//	while := 'while' '(' expr ')' body
func (p *Parser) parseWhile() Stmt {
	s := &WhileStmt{}
	s.pos = p.lex.TokenPos()
	p.want(KwWhile)

	p.wantSym(SymLparen)
	s.Cond = p.parseExpr()
	p.wantSym(SymRparen)

	s.Body = p.parseBody()
	return s
}

// parseDo recognizes:
//
//	do := 'do' subroutineCall ';'
func (p *Parser) parseDo() Stmt {
	s := &DoStmt{}
	s.pos = p.lex.TokenPos()
	p.want(KwDo)

	name := p.ident()
	var callee NamedValue
	if p.gotSym(SymLbrack) {
		index := p.parseExpr()
		p.wantSym(SymRbrack)
		callee = p.namedValue(name, index)
	} else if p.inScope(name) {
		callee = p.namedValue(name, nil)
	}

	s.Call = p.parseCallTail(name, callee)
	p.wantSym(SymSemi)
	return s
}

// parseReturn recognizes:
//
//	return := 'return' expr? ';'
func (p *Parser) parseReturn() Stmt {
	s := &ReturnStmt{}
	s.pos = p.lex.TokenPos()
	p.want(KwReturn)

	if p.lex.Peek().IsSym(SymSemi) {
		e := &Empty{}
		e.pos = p.lex.TokenPos()
		s.Result = e
	} else {
		s.Result = p.parseExpr()
	}
	p.wantSym(SymSemi)
	return s
}

// ----------------------------------------------------------------------------
// Expressions

// parseExpr recognizes:
//
//	expr := term (op term)*
//
// Operators are reduced left to right with no precedence levels,
// producing a left-leaning tree.
func (p *Parser) parseExpr() Expr {
	e := p.parseTerm()
	for {
		tok := p.lex.Peek()
		if tok.Kind != TokSymbol || !tok.Sym.IsBinaryOp() {
			return e
		}
		p.lex.Advance()
		op := &BinaryOp{Op: tok.Sym, X: e, Y: p.parseTerm()}
		op.pos = e.Pos()
		e = op
	}
}

// parseTerm recognizes:
//
//	term := IntLit | StrLit | KeywordConst | Ident('['expr']')?
//	      | subroutineCall | '(' expr ')' | ('-'|'~') term
func (p *Parser) parseTerm() Expr {
	tok := p.lex.Peek()
	pos := p.lex.TokenPos()

	switch tok.Kind {
	case TokIntLit:
		p.lex.Advance()
		e := &IntConst{Value: tok.Int}
		e.pos = pos
		return e

	case TokStrLit:
		p.lex.Advance()
		e := &StrConst{Value: tok.Text}
		e.pos = pos
		return e

	case TokKeyword:
		switch tok.Keyword {
		case KwTrue, KwFalse:
			p.lex.Advance()
			e := &BoolConst{Value: tok.Keyword == KwTrue}
			e.pos = pos
			return e
		case KwNull:
			p.lex.Advance()
			e := &IntConst{Value: 0}
			e.pos = pos
			return e
		case KwThis:
			p.lex.Advance()
			t := &This{}
			t.pos = pos
			rv := &RValue{X: t}
			rv.pos = pos
			return rv
		}
		p.expected(KeywordToken(KwTrue), KeywordToken(KwFalse),
			KeywordToken(KwNull), KeywordToken(KwThis))

	case TokSymbol:
		switch tok.Sym {
		case SymLparen:
			p.lex.Advance()
			e := p.parseExpr()
			p.wantSym(SymRparen)
			return e
		case SymMinus, SymNot:
			p.lex.Advance()
			e := &UnaryOp{Op: tok.Sym, X: p.parseTerm()}
			e.pos = pos
			return e
		}
		p.expected(SymbolToken(SymLparen), SymbolToken(SymNot), SymbolToken(SymMinus))

	case TokIdent:
		return p.parseIdentTerm()
	}

	p.syntaxErrorf("Expected a term but found %s", tok)
	return nil
}

// parseIdentTerm handles a term beginning with an identifier: a named
// value use, an indexed use, a class-qualified function call, a method
// call on a value, or a same-class call (implicit this).
func (p *Parser) parseIdentTerm() Expr {
	pos := p.lex.TokenPos()
	name := p.ident()

	var named NamedValue
	if p.gotSym(SymLbrack) {
		index := p.parseExpr()
		p.wantSym(SymRbrack)
		named = p.namedValue(name, index)
	} else if p.inScope(name) {
		named = p.namedValue(name, nil)
	}

	switch {
	case p.lex.Peek().IsSym(SymDot), p.lex.Peek().IsSym(SymLparen):
		return p.parseCallTail(name, named)

	case named != nil:
		rv := &RValue{X: named}
		rv.pos = pos
		return rv

	default:
		p.syntaxErrorf("undefined identifier %q", name)
		return nil
	}
}

// parseCallTail completes a subroutine call whose leading identifier
// (and optional index) has been consumed. If the identifier is in scope
// it is the callee of a method call; otherwise it is a class name and
// the call is a static function call. An identifier followed directly
// by '(' is a same-class method call (implicit this).
func (p *Parser) parseCallTail(name string, callee NamedValue) Expr {
	pos := p.lex.TokenPos()

	if p.gotSym(SymDot) {
		routine := p.ident()
		p.wantSym(SymLparen)
		args := p.parseExprList()
		p.wantSym(SymRparen)

		if callee != nil {
			c := &MethodCall{Callee: callee, Fn: routine, Args: args}
			c.pos = pos
			return c
		}
		c := &FunctionCall{Class: name, Fn: routine, Args: args}
		c.pos = pos
		return c
	}

	p.wantSym(SymLparen)
	args := p.parseExprList()
	p.wantSym(SymRparen)

	c := &MethodCall{Callee: nil, Fn: name, Args: args}
	c.pos = pos
	return c
}

// parseExprList recognizes a possibly empty comma-separated expression
// list terminated by ')' (not consumed).
func (p *Parser) parseExprList() []Expr {
	var list []Expr
	if p.lex.Peek().IsSym(SymRparen) {
		return list
	}
	list = append(list, p.parseExpr())
	for p.gotSym(SymComma) {
		list = append(list, p.parseExpr())
	}
	return list
}

// ----------------------------------------------------------------------------
// Named values

// namedValue creates an Identifier or IndexExpr bound to the current
// subroutine, verifying that the name resolves in the subroutine scope
// or the class scope.
func (p *Parser) namedValue(name string, index Expr) NamedValue {
	if !p.inScope(name) {
		p.syntaxErrorf("undefined identifier %q", name)
	}
	pos := p.lex.TokenPos()
	if index != nil {
		return NewIndexExpr(pos, name, index, p.fn)
	}
	return NewIdentifier(pos, name, p.fn)
}

// inScope reports whether name resolves in the current subroutine's
// scope or the current class's scope.
func (p *Parser) inScope(name string) bool {
	if p.fn != nil && p.fn.Table.Lookup(name) != nil {
		return true
	}
	return p.cls != nil && p.cls.Table.Lookup(name) != nil
}
