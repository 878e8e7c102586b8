// Package inspect renders value graphs as indented text for debugging and
// CLI output. Values that can be shared through back-references are numbered
// in visit order, matching the slot they would occupy in the stream's object
// table; a repeated occurrence prints as ^N instead of expanding again, which
// also keeps cyclic graphs finite.
package inspect

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/marshal"
)

// Render renders the graph rooted at the arena's root handle.
func Render(arena *marshal.ValueArena) (string, error) {
	return RenderHandle(arena, arena.Root())
}

// RenderHandle renders the graph rooted at h.
func RenderHandle(arena *marshal.ValueArena, h marshal.ValueHandle) (string, error) {
	r := &renderer{
		arena: arena,
		seen:  make(map[marshal.ValueHandle]int),
	}
	if err := r.render(h, 0); err != nil {
		return "", err
	}
	r.sb.WriteByte('\n')

	out := r.sb.String()
	Logger().Debug("rendered value graph",
		zap.Int("shared_values", len(r.seen)),
		zap.Int("bytes", len(out)))
	return out, nil
}

type renderer struct {
	arena *marshal.ValueArena
	sb    strings.Builder
	seen  map[marshal.ValueHandle]int
}

// mark numbers a shareable value on first visit. The second return is true
// when the value was already rendered and only its number should appear.
func (r *renderer) mark(h marshal.ValueHandle) (int, bool) {
	if n, ok := r.seen[h]; ok {
		return n, true
	}
	n := len(r.seen)
	r.seen[h] = n
	return n, false
}

func (r *renderer) indent(depth int) {
	for i := 0; i < depth; i++ {
		r.sb.WriteString("  ")
	}
}

func (r *renderer) render(h marshal.ValueHandle, depth int) error {
	value, ok := r.arena.Value(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseInspect, h.Index())
	}

	switch value := value.(type) {
	case *marshal.NilValue:
		r.sb.WriteString("nil")
	case *marshal.BoolValue:
		fmt.Fprintf(&r.sb, "%t", value.Value)
	case *marshal.FixnumValue:
		fmt.Fprintf(&r.sb, "Fixnum(%d)", value.Value)
	case *marshal.SymbolValue:
		fmt.Fprintf(&r.sb, "Symbol(:%s)", value.Name)

	case *marshal.FloatValue:
		if n, back := r.mark(h); back {
			fmt.Fprintf(&r.sb, "^%d", n)
			return nil
		}
		fmt.Fprintf(&r.sb, "Float(%v)", value.Value)

	case *marshal.StringValue:
		n, back := r.mark(h)
		if back {
			fmt.Fprintf(&r.sb, "^%d", n)
			return nil
		}
		fmt.Fprintf(&r.sb, "String#%d %q", n, value.Data)
		if value.IVars != nil {
			return r.renderIVars(*value.IVars, depth)
		}

	case *marshal.ClassValue:
		n, back := r.mark(h)
		if back {
			fmt.Fprintf(&r.sb, "^%d", n)
			return nil
		}
		fmt.Fprintf(&r.sb, "Class#%d %s", n, value.Name)

	case *marshal.UserDefinedValue:
		n, back := r.mark(h)
		if back {
			fmt.Fprintf(&r.sb, "^%d", n)
			return nil
		}
		name, ok := marshal.Deref(r.arena, value.Name)
		if !ok {
			return errors.InvalidHandle(errors.PhaseInspect, value.Name.Raw().Index())
		}
		fmt.Fprintf(&r.sb, "UserDefined#%d %s (%d bytes)", n, name.Name, len(value.Data))
		if value.IVars != nil {
			return r.renderIVars(*value.IVars, depth)
		}

	case *marshal.ArrayValue:
		n, back := r.mark(h)
		if back {
			fmt.Fprintf(&r.sb, "^%d", n)
			return nil
		}
		fmt.Fprintf(&r.sb, "Array#%d (%d)", n, len(value.Elements))
		for i, element := range value.Elements {
			r.sb.WriteByte('\n')
			r.indent(depth + 1)
			fmt.Fprintf(&r.sb, "[%d] ", i)
			if err := r.render(element, depth+1); err != nil {
				return err
			}
		}

	case *marshal.HashValue:
		n, back := r.mark(h)
		if back {
			fmt.Fprintf(&r.sb, "^%d", n)
			return nil
		}
		fmt.Fprintf(&r.sb, "Hash#%d (%d)", n, len(value.Pairs))
		for _, pair := range value.Pairs {
			r.sb.WriteByte('\n')
			r.indent(depth + 1)
			if err := r.render(pair.Key, depth+1); err != nil {
				return err
			}
			r.sb.WriteString(" => ")
			if err := r.render(pair.Value, depth+1); err != nil {
				return err
			}
		}
		if value.Default != nil {
			r.sb.WriteByte('\n')
			r.indent(depth + 1)
			r.sb.WriteString("default: ")
			if err := r.render(*value.Default, depth+1); err != nil {
				return err
			}
		}

	case *marshal.ObjectValue:
		n, back := r.mark(h)
		if back {
			fmt.Fprintf(&r.sb, "^%d", n)
			return nil
		}
		name, ok := marshal.Deref(r.arena, value.Name)
		if !ok {
			return errors.InvalidHandle(errors.PhaseInspect, value.Name.Raw().Index())
		}
		fmt.Fprintf(&r.sb, "Object#%d %s", n, name.Name)
		return r.renderIVars(value.IVars, depth)

	default:
		return errors.Unsupported(errors.PhaseInspect, value.Kind().String())
	}
	return nil
}

func (r *renderer) renderIVars(table marshal.IVarTable, depth int) error {
	for _, pair := range table {
		name, ok := marshal.Deref(r.arena, pair.Name)
		if !ok {
			return errors.InvalidHandle(errors.PhaseInspect, pair.Name.Raw().Index())
		}
		r.sb.WriteByte('\n')
		r.indent(depth + 1)
		fmt.Fprintf(&r.sb, "%s: ", name.Name)
		if err := r.render(pair.Value, depth+1); err != nil {
			return err
		}
	}
	return nil
}
