package script

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// preprocessSource rewrites console source before zygomys sees it:
//
//  1. :keyword becomes the string "__kw_keyword", so keywords need no
//     global symbols.
//  2. kebab-case identifiers become snake_case (toggle-paths ->
//     toggle_paths); zygomys reads a bare hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are left alone.
func preprocessSource(source string) string {
	out := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch c := b[i]; {
		case c == '"':
			out = append(out, c)
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					out = append(out, b[i], b[i+1])
					i += 2
					continue
				}
				out = append(out, b[i])
				i++
			}
			if i < len(b) {
				out = append(out, b[i])
				i++
			}
		case c == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			out = append(out, b[i:j]...)
			i = j
		case c == ';':
			out = append(out, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// kwPrefix marks keyword strings produced by preprocessSource.
const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs is an argument list split into keyword and positional parts.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword pairs from positional arguments. A keyword
// in last position gets a null value.
func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", s.SexpString(nil))
}

var axisNames = [3]string{"x", "y", "z"}

// vectorArgs reads an optional leading object id, then either three
// positional components or any of the :x :y :z keywords. Keywords win
// over positional values.
func vectorArgs(op Op, args []zygo.Sexp) (Action, error) {
	a := Action{Op: op}
	p := parseArgs(args)
	pos := p.positional
	if len(pos) > 0 {
		if id, ok := pos[0].(*zygo.SexpStr); ok {
			a.UUID = id.S
			pos = pos[1:]
		}
	}
	switch len(pos) {
	case 0:
	case 3:
		for i, s := range pos {
			f, err := toFloat64(s)
			if err != nil {
				return a, fmt.Errorf("%s: %s: %w", op, axisNames[i], err)
			}
			a.set(i, f)
		}
	default:
		return a, fmt.Errorf("%s takes three components, got %d", op, len(pos))
	}
	for i, name := range axisNames {
		s, ok := p.kw[name]
		if !ok {
			continue
		}
		f, err := toFloat64(s)
		if err != nil {
			return a, fmt.Errorf("%s: %s: %w", op, name, err)
		}
		a.set(i, f)
	}
	if a.Set == [3]bool{} {
		return a, fmt.Errorf("%s needs at least one component", op)
	}
	return a, nil
}

// registerBuiltins installs the console commands. Each appends to *out
// and returns the id it acted on.
func registerBuiltins(env *zygo.Zlisp, out *[]Action) {
	vector := func(op Op) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			a, err := vectorArgs(op, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			*out = append(*out, a)
			return &zygo.SexpStr{S: a.UUID}, nil
		}
	}
	env.AddFunction("translate", vector(OpTranslate))
	env.AddFunction("rotate", vector(OpRotate))
	env.AddFunction("scale", vector(OpScale))

	// (select "id") selects; (select) clears the selection.
	env.AddFunction("select", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a := Action{Op: OpSelect}
		switch len(args) {
		case 0:
		case 1:
			id, err := toString(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("select: %w", err)
			}
			a.UUID = id
		default:
			return zygo.SexpNull, fmt.Errorf("select takes at most one id, got %d", len(args))
		}
		*out = append(*out, a)
		return &zygo.SexpStr{S: a.UUID}, nil
	})

	env.AddFunction("remove", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("remove requires an object id")
		}
		id, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("remove: %w", err)
		}
		*out = append(*out, Action{Op: OpRemove, UUID: id})
		return &zygo.SexpStr{S: id}, nil
	})

	env.AddFunction("toggle_paths", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("toggle-paths takes no arguments")
		}
		*out = append(*out, Action{Op: OpTogglePaths})
		return zygo.SexpNull, nil
	})
}
