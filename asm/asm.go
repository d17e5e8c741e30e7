// Package asm implements the textual assembler front-end: a line-oriented
// lexer/parser that produces the same operator stream the binary codec
// consumes (spec §4.3).
package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stalfos/stalfos/op"
)

var (
	ErrUnknownMnemonic   = errors.New("asm: unknown mnemonic")
	ErrBadNumericLiteral = errors.New("asm: bad numeric literal")
	ErrBadBooleanLiteral = errors.New("asm: bad boolean literal")
	ErrUnterminatedString = errors.New("asm: unterminated string literal")
	ErrMissingOperand    = errors.New("asm: missing operand")
)

// Parse tokenizes and parses source into a namespace (empty if no `#name`
// header line is present) and the operator list it names.
func Parse(source string) (string, []op.Operator, error) {
	lines, err := tokenizeLines(source)
	if err != nil {
		return "", nil, err
	}

	namespace := ""
	if len(lines) > 0 && len(lines[0]) == 1 && strings.HasPrefix(lines[0][0], "#") {
		namespace = strings.TrimPrefix(lines[0][0], "#")
		lines = lines[1:]
	}

	program := make([]op.Operator, 0, len(lines))
	for _, tokens := range lines {
		o, err := parseLine(tokens)
		if err != nil {
			return "", nil, err
		}
		program = append(program, o)
	}
	return namespace, program, nil
}

// tokenizeLines splits source into lines of whitespace-separated tokens,
// skipping `;`-to-end-of-line comments (LF/CR/CRLF aware) and treating a
// double-quoted span as a single token, escapes resolved.
//
// Deviation from the Rust original: `\"` inside a string literal unescapes
// to a literal `"` in the token's content. The original's lexer only uses
// the backslash to avoid ending the literal early and leaves the backslash
// itself in the resulting string (`asm_parser.rs::get_segments_from_line`);
// spec.md §4.3's wording ("a backslash before a quote escapes it") is taken
// to mean proper escaping, so this repo fixes it rather than replicates it.
func tokenizeLines(source string) ([][]string, error) {
	runes := []rune(source)
	n := len(runes)

	var lines [][]string
	var tokens []string
	var cur strings.Builder

	flushToken := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	flushLine := func() {
		flushToken()
		if len(tokens) > 0 {
			lines = append(lines, tokens)
			tokens = nil
		}
	}

	i := 0
	for i < n {
		ch := runes[i]
		switch {
		case ch == ';':
			for i < n && runes[i] != '\n' && runes[i] != '\r' {
				i++
			}
		case ch == '\r' || ch == '\n':
			flushLine()
			i++
			if i < n && ((ch == '\r' && runes[i] == '\n') || (ch == '\n' && runes[i] == '\r')) {
				i++
			}
		case ch == ' ' || ch == '\t':
			flushToken()
			i++
		case ch == '"':
			start := i
			i++
			var sb strings.Builder
			closed := false
			for i < n {
				c := runes[i]
				if c == '\\' && i+1 < n && runes[i+1] == '"' {
					sb.WriteByte('"')
					i += 2
					continue
				}
				if c == '"' {
					closed = true
					i++
					break
				}
				sb.WriteRune(c)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("%w: starting at offset %d", ErrUnterminatedString, start)
			}
			text := sb.String()
			text = strings.ReplaceAll(text, `\n`, "\n")
			text = strings.ReplaceAll(text, `\r`, "\r")
			cur.WriteByte('"')
			cur.WriteString(text)
			cur.WriteByte('"')
			flushToken()
		default:
			cur.WriteRune(ch)
			i++
		}
	}
	flushLine()
	return lines, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func arg(tokens []string, i int) (string, error) {
	if i >= len(tokens) {
		return "", fmt.Errorf("%w: operand %d", ErrMissingOperand, i)
	}
	return tokens[i], nil
}

func stripNumeric(s string) string {
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, ",", "")
	return s
}

func parseUint(s string) (uint64, error) {
	s = stripNumeric(s)
	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0b"):
		v, err = strconv.ParseUint(s[2:], 2, 64)
	case strings.HasPrefix(s, "0x"):
		v, err = strconv.ParseUint(s[2:], 16, 64)
	default:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumericLiteral, s)
	}
	return v, nil
}

func parseWord(s string) (uint32, error) {
	v, err := parseUint(s)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func parseByte(s string) (byte, error) {
	v, err := parseUint(s)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// parseInt32 does NOT strip a trailing "f" suffix. The Rust original's
// str_to_i32 strips one via the same code path str_to_f32 uses (an apparent
// copy-paste from the float parser); spec.md §4.3 only documents the `f`
// suffix for float operands, so int operands here reject a trailing `f`
// rather than silently drop it.
func parseInt32(s string) (int32, error) {
	s = stripNumeric(s)
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumericLiteral, s)
	}
	return int32(v), nil
}

func parseFloat32(s string) (float32, error) {
	s = stripNumeric(s)
	s = strings.TrimSuffix(s, "f")
	s = strings.TrimSuffix(s, "F")
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumericLiteral, s)
	}
	return float32(v), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "t", "true":
		return true, nil
	case "0", "f", "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrBadBooleanLiteral, s)
	}
}
