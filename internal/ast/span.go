package ast

import "github.com/vaislang/vais-sub013/internal/diagnostics"

// Span is a half-open byte range [Start, End) into the original source
// text (spec §3). Spans are purely informational: node equality must
// ignore them, which is why no AST node embeds Span in anything other
// than a plain field a Visitor can skip.
type Span struct {
	Start, End     int
	Line, Column   int // 1-based, of Start; carried for diagnostics only
}

// Token is the minimal position-carrying unit the external parser
// attaches to AST nodes. The lexer/parser that produces these is out of
// scope for this module (spec §1); only the shape consumed here matters.
type Token struct {
	Lexeme string
	Span   Span
}

func (t Token) Line() int   { return t.Span.Line }
func (t Token) Column() int { return t.Span.Column }

// Diag converts to the diagnostics package's decoupled position type.
func (s Span) Diag() diagnostics.Span {
	return diagnostics.Span{Line: s.Line, Column: s.Column}
}
