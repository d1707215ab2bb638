// Package syntax implements lexical and syntactic analysis for the Jack
// programming language.
package syntax

import (
	"fmt"
	"strconv"
)

// Keyword identifies one of the reserved words of Jack.
type Keyword uint

const (
	KwClass Keyword = iota
	KwConstructor
	KwFunction
	KwMethod
	KwField
	KwStatic
	KwVar
	KwInt
	KwChar
	KwBoolean
	KwVoid
	KwTrue
	KwFalse
	KwNull
	KwThis
	KwLet
	KwDo
	KwIf
	KwElse
	KwWhile
	KwReturn

	keywordCount
)

// keywordNames maps keywords to their source spelling.
var keywordNames = [...]string{
	KwClass:       "class",
	KwConstructor: "constructor",
	KwFunction:    "function",
	KwMethod:      "method",
	KwField:       "field",
	KwStatic:      "static",
	KwVar:         "var",
	KwInt:         "int",
	KwChar:        "char",
	KwBoolean:     "boolean",
	KwVoid:        "void",
	KwTrue:        "true",
	KwFalse:       "false",
	KwNull:        "null",
	KwThis:        "this",
	KwLet:         "let",
	KwDo:          "do",
	KwIf:          "if",
	KwElse:        "else",
	KwWhile:       "while",
	KwReturn:      "return",
}

// String returns the source spelling of the keyword.
func (k Keyword) String() string {
	if k < keywordCount {
		return keywordNames[k]
	}
	return fmt.Sprintf("keyword(%d)", uint(k))
}

// keywords maps keyword spellings to their Keyword value.
var keywords = func() map[string]Keyword {
	m := make(map[string]Keyword, keywordCount)
	for k, name := range keywordNames {
		m[name] = Keyword(k)
	}
	return m
}()

// LookupKeyword reports whether ident is a reserved word and returns
// the matching Keyword if so.
func LookupKeyword(ident string) (Keyword, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// Keywords returns the reserved words of Jack in declaration order.
func Keywords() []string {
	return keywordNames[:]
}

// Symbol identifies one of the 19 punctuation characters of Jack.
type Symbol uint

const (
	SymPlus Symbol = iota // +
	SymMinus
	SymMul
	SymDiv
	SymEq
	SymLt
	SymGt
	SymLparen
	SymRparen
	SymLbrack
	SymRbrack
	SymLbrace
	SymRbrace
	SymAnd
	SymOr
	SymSemi
	SymComma
	SymNot
	SymDot

	symbolCount
)

// symbolChars maps symbols to their single source character.
var symbolChars = [...]rune{
	SymPlus:   '+',
	SymMinus:  '-',
	SymMul:    '*',
	SymDiv:    '/',
	SymEq:     '=',
	SymLt:     '<',
	SymGt:     '>',
	SymLparen: '(',
	SymRparen: ')',
	SymLbrack: '[',
	SymRbrack: ']',
	SymLbrace: '{',
	SymRbrace: '}',
	SymAnd:    '&',
	SymOr:     '|',
	SymSemi:   ';',
	SymComma:  ',',
	SymNot:    '~',
	SymDot:    '.',
}

// String returns the source character of the symbol.
func (s Symbol) String() string {
	if s < symbolCount {
		return string(symbolChars[s])
	}
	return fmt.Sprintf("symbol(%d)", uint(s))
}

// LookupSymbol reports whether r is a symbol character and returns the
// matching Symbol if so.
func LookupSymbol(r rune) (Symbol, bool) {
	for s, c := range symbolChars {
		if c == r {
			return Symbol(s), true
		}
	}
	return 0, false
}

// IsBinaryOp reports whether the symbol is one of the nine binary
// operators admitted by the expression grammar.
func (s Symbol) IsBinaryOp() bool {
	switch s {
	case SymPlus, SymMinus, SymMul, SymDiv, SymAnd, SymOr, SymLt, SymGt, SymEq:
		return true
	}
	return false
}

// TokenKind discriminates the variants of Token.
type TokenKind uint

const (
	TokEnd TokenKind = iota // end of input
	TokKeyword
	TokSymbol
	TokIntLit
	TokStrLit
	TokIdent
)

// tokenKindNames maps token kinds to their display name.
var tokenKindNames = [...]string{
	TokEnd:     "End",
	TokKeyword: "Keyword",
	TokSymbol:  "Symbol",
	TokIntLit:  "IntegerConstant",
	TokStrLit:  "StringConstant",
	TokIdent:   "Identifier",
}

// String returns the display name of the token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", uint(k))
}

// Token is a single lexical token. Tokens compare structurally with ==
// except for the position, which is carried separately by the lexer.
type Token struct {
	Kind    TokenKind
	Keyword Keyword // valid when Kind == TokKeyword
	Sym     Symbol  // valid when Kind == TokSymbol
	Int     int64   // valid when Kind == TokIntLit
	Text    string  // literal text for TokStrLit and TokIdent
}

// Convenience constructors, used pervasively by the parser and tests.

func EndToken() Token               { return Token{Kind: TokEnd} }
func KeywordToken(k Keyword) Token  { return Token{Kind: TokKeyword, Keyword: k} }
func SymbolToken(s Symbol) Token    { return Token{Kind: TokSymbol, Sym: s} }
func IntToken(i int64) Token        { return Token{Kind: TokIntLit, Int: i} }
func StrToken(s string) Token       { return Token{Kind: TokStrLit, Text: s} }
func IdentToken(name string) Token  { return Token{Kind: TokIdent, Text: name} }

// Is reports whether the token is the given keyword.
func (t Token) Is(k Keyword) bool {
	return t.Kind == TokKeyword && t.Keyword == k
}

// IsSym reports whether the token is the given symbol.
func (t Token) IsSym(s Symbol) bool {
	return t.Kind == TokSymbol && t.Sym == s
}

// IsEnd reports whether the token marks the end of input.
func (t Token) IsEnd() bool { return t.Kind == TokEnd }

// String renders the token for diagnostics ("Keyword: let", "Symbol: ;").
func (t Token) String() string {
	switch t.Kind {
	case TokEnd:
		return "End"
	case TokKeyword:
		return "Keyword: " + t.Keyword.String()
	case TokSymbol:
		return "Symbol: " + t.Sym.String()
	case TokIntLit:
		return "IntegerConstant: " + strconv.FormatInt(t.Int, 10)
	case TokStrLit:
		return "StringConstant: " + t.Text
	case TokIdent:
		return "Identifier: " + t.Text
	}
	return "InvalidToken"
}
