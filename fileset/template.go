package fileset

import (
	"fmt"
	"strconv"
	"strings"
)

// template is a pattern with exactly one integer slot.
type template struct {
	prefix, suffix string
	verb           string // Go format for the slot
	str            bool   // the slot is %s
}

// HasSlot reports whether pattern holds at least one substitution slot.
// "%%" is a literal percent sign and does not count.
func HasSlot(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '%' {
			i++
			continue
		}
		return true
	}
	return false
}

// parseTemplate accepts %d, %i, %u and %s slots with optional flags,
// width and precision, as in "%02d" or "%.3i".
func parseTemplate(pattern string) (*template, error) {
	var t *template
	var lit strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '%' {
			lit.WriteByte('%')
			i++
			continue
		}

		j := i + 1
		for j < len(pattern) && strings.IndexByte("-+ 0#", pattern[j]) >= 0 {
			j++
		}
		for j < len(pattern) && isDigit(pattern[j]) {
			j++
		}
		if j < len(pattern) && pattern[j] == '.' {
			j++
			for j < len(pattern) && isDigit(pattern[j]) {
				j++
			}
		}
		if j >= len(pattern) {
			return nil, &SpecError{Reason: fmt.Sprintf("pattern %q ends inside a slot", pattern)}
		}
		spec := pattern[i+1 : j]
		var slot template
		switch pattern[j] {
		case 'd', 'i', 'u':
			slot.verb = "%" + spec + "d"
		case 's':
			slot.verb = "%" + spec + "s"
			slot.str = true
		default:
			return nil, &SpecError{Reason: fmt.Sprintf("pattern %q has unsupported conversion %q", pattern, pattern[i:j+1])}
		}
		if t != nil {
			return nil, &SpecError{Reason: fmt.Sprintf("pattern %q has more than one slot", pattern)}
		}
		slot.prefix = lit.String()
		lit.Reset()
		t = &slot
		i = j
	}
	if t == nil {
		return nil, &SpecError{Reason: fmt.Sprintf("pattern %q has no slot for the file index", pattern)}
	}
	t.suffix = lit.String()
	return t, nil
}

func (t *template) format(i int) string {
	if t.str {
		return t.prefix + fmt.Sprintf(t.verb, strconv.Itoa(i)) + t.suffix
	}
	return t.prefix + fmt.Sprintf(t.verb, i) + t.suffix
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
