package codec

import (
	"strings"

	"github.com/stalfos/stalfos/op"
)

// Disassemble renders a decoded operator list back to assembly text, one
// operator per line, `LABEL x` collapsed to the `.x` shorthand. It is the
// inverse of what asm.Parse produces (modulo the label shorthand and
// comments, which the binary form carries no record of).
func Disassemble(namespace string, program []op.Operator) string {
	var sb strings.Builder
	if namespace != "" {
		sb.WriteString("#")
		sb.WriteString(namespace)
		sb.WriteByte('\n')
	}
	for _, o := range program {
		if o.Code == op.LABEL {
			sb.WriteByte('.')
			sb.WriteString(o.Str)
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(o.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
