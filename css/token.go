// Package css implements selector compilation and matching, declaration
// normalization, at-rules (@media, @keyframes, @font-face) and the cascade.
// Reference: https://www.w3.org/TR/css-syntax-3/
package css

import (
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	csslex "github.com/tdewolff/parse/v2/css"
)

// Token is a single lexed CSS token.
type Token struct {
	Type csslex.TokenType
	Data string
}

var eofToken = Token{Type: csslex.ErrorToken}

// tokenize lexes s into tokens, dropping comments. Runs of whitespace are
// kept as one WhitespaceToken.
func tokenize(s string) []Token {
	l := csslex.NewLexer(parse.NewInputString(s))
	var out []Token
	for {
		tt, data := l.Next()
		if tt == csslex.ErrorToken {
			return out
		}
		if tt == csslex.CommentToken {
			continue
		}
		out = append(out, Token{Type: tt, Data: string(data)})
	}
}

// fromParserTokens converts grammar-parser values into Tokens.
func fromParserTokens(vals []csslex.Token) []Token {
	out := make([]Token, 0, len(vals))
	for _, v := range vals {
		out = append(out, Token{Type: v.TokenType, Data: string(v.Data)})
	}
	return out
}

// joinTokens rebuilds source text from tokens.
func joinTokens(toks []Token) string {
	var sb strings.Builder
	for _, t := range toks {
		if t.Type == csslex.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

func (t Token) isDelim(c byte) bool {
	return t.Type == csslex.DelimToken && len(t.Data) == 1 && t.Data[0] == c
}

func (t Token) isIdent(name string) bool {
	return t.Type == csslex.IdentToken && strings.EqualFold(t.Data, name)
}

// functionName returns the lowercased name of a FunctionToken ("rgb(" -> "rgb").
func (t Token) functionName() string {
	return strings.ToLower(strings.TrimSuffix(t.Data, "("))
}

// number parses the numeric prefix of a Number/Percentage/Dimension token
// and returns the unit ("%" for percentages).
func (t Token) number() (float64, string, bool) {
	switch t.Type {
	case csslex.NumberToken:
		v, err := strconv.ParseFloat(t.Data, 64)
		return v, "", err == nil
	case csslex.PercentageToken:
		v, err := strconv.ParseFloat(strings.TrimSuffix(t.Data, "%"), 64)
		return v, "%", err == nil
	case csslex.DimensionToken:
		i := numericPrefixLen(t.Data)
		v, err := strconv.ParseFloat(t.Data[:i], 64)
		return v, strings.ToLower(t.Data[i:]), err == nil
	}
	return 0, "", false
}

// numericPrefixLen returns the length of the leading CSS number in s.
func numericPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i+1 < len(s) && s[i] == '.' && s[i+1] >= '0' && s[i+1] <= '9' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i+1 < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	return i
}

// unquote strips matching quotes and resolves backslash escapes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return unescape(s)
}

// unescape resolves CSS backslash escapes, including hex code points.
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		j := i
		for j < len(s) && j-i < 6 && isHex(s[j]) {
			j++
		}
		if j > i {
			cp, err := strconv.ParseUint(s[i:j], 16, 32)
			if err == nil {
				sb.WriteRune(rune(cp))
			}
			if j < len(s) && s[j] == ' ' {
				j++
			}
			i = j - 1
			continue
		}
		if s[i] == '\n' {
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// splitCommas splits tokens on top-level commas, trimming whitespace.
func splitCommas(toks []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	depth := 0
	for _, t := range toks {
		switch t.Type {
		case csslex.FunctionToken, csslex.LeftParenthesisToken, csslex.LeftBracketToken:
			depth++
		case csslex.RightParenthesisToken, csslex.RightBracketToken:
			depth--
		case csslex.CommaToken:
			if depth == 0 {
				groups = append(groups, trimWhitespace(cur))
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
	return append(groups, trimWhitespace(cur))
}

func trimWhitespace(toks []Token) []Token {
	for len(toks) > 0 && toks[0].Type == csslex.WhitespaceToken {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].Type == csslex.WhitespaceToken {
		toks = toks[:len(toks)-1]
	}
	return toks
}
