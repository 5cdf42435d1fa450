package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/motheye/pkg/config"
	"github.com/chazu/motheye/pkg/ommatidium"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites script source before zygomys sees it:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global registration and cannot collide with user variables.
//
//  2. kebab-case identifiers become snake_case (moth-eye -> moth_eye),
//     since zygomys reads a hyphen as the subtraction operator.
//
//  3. ; line comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i, '"', true)
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == '`':
			j := skipQuoted(b, i, '`', false)
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
			continue
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue
		case b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// A hyphen between identifier characters, not a minus operator.
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// skipQuoted returns the index just past the literal opened at b[start].
func skipQuoted(b []byte, start int, quote byte, escapes bool) int {
	i := start + 1
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' && i+1 < len(b) {
			i += 2
			continue
		}
		i++
	}
	if i < len(b) {
		i++
	}
	return i
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

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpRange wraps a config.Range so it can be returned from `interval`
// and consumed by `moth-eye`.
type sexpRange struct {
	r config.Range
}

func (r *sexpRange) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(interval %g %g)", r.r.Min, r.r.Max)
}
func (r *sexpRange) Type() *zygo.RegisteredType { return nil }

// sexpConfig is the value of a `moth-eye` call.
type sexpConfig struct {
	cfg config.Config
}

func (c *sexpConfig) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(moth-eye :output %q :policy :%s)", c.cfg.Output, c.cfg.Policy)
}
func (c *sexpConfig) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports the keyword name behind a preprocessed keyword string.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknown returns the keywords in pa that are not in known, sorted.
func (pa kwArgs) unknown(known map[string]bool) []string {
	var out []string
	for k := range pa.kw {
		if !known[k] {
			out = append(out, ":"+k)
		}
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer, accepting floats with no fractional part.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) && math.Abs(v.Val) < math.MaxInt32 {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_fixed) and plain strings ("fixed").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toRange accepts (interval lo hi) or a two-element list or array.
func toRange(s zygo.Sexp) (config.Range, error) {
	if r, ok := s.(*sexpRange); ok {
		return r.r, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return config.Range{}, fmt.Errorf("expected (interval lo hi): %w", err)
	}
	if len(items) != 2 {
		return config.Range{}, fmt.Errorf("expected two bounds, got %d", len(items))
	}
	return rangeOf(items[0], items[1])
}

func rangeOf(lo, hi zygo.Sexp) (config.Range, error) {
	from, err := toFloat64(lo)
	if err != nil {
		return config.Range{}, fmt.Errorf("lower bound: %w", err)
	}
	to, err := toFloat64(hi)
	if err != nil {
		return config.Range{}, fmt.Errorf("upper bound: %w", err)
	}
	return config.Range{Min: from, Max: to}, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// scriptState collects the outcome of one script run.
type scriptState struct {
	base config.Config
	cfg  *config.Config // set by the last moth-eye call
}

// mothEyeKeywords lists the keywords moth-eye accepts.
var mothEyeKeywords = map[string]bool{
	"output":       true,
	"segments":     true,
	"outer-radius": true,
	"inner-radius": true,
	"angle":        true,
	"thickness":    true,
	"policy":       true,
	"elevation":    true,
	"azimuth":      true,
	"modules":      true,
}

// registerBuiltins installs the configuration builtins into env.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *scriptState) {

	// -----------------------------------------------------------------------
	// (interval -45 45)
	// -----------------------------------------------------------------------
	env.AddFunction("interval", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("interval requires exactly 2 arguments, got %d", len(args))
		}
		r, err := rangeOf(args[0], args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("interval: %w", err)
		}
		return &sexpRange{r: r}, nil
	})

	// -----------------------------------------------------------------------
	// (footprint-radius 5 35) => tan(5°)·35
	// -----------------------------------------------------------------------
	env.AddFunction("footprint_radius", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("footprint-radius requires an angle and a sphere radius")
		}
		angle, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("footprint-radius: angle: %w", err)
		}
		radius, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("footprint-radius: radius: %w", err)
		}
		return &zygo.SexpFloat{Val: ommatidium.FootprintRadius(angle, radius)}, nil
	})

	// -----------------------------------------------------------------------
	// (moth-eye :output "goggles.scad" :segments 20 :outer-radius 35
	//           :inner-radius 20 :angle 5 :thickness 0.25 :policy :adaptive
	//           :elevation (interval -45 45) :azimuth (interval 0 180))
	//
	// Registered as "moth_eye"; the preprocessor rewrites moth-eye.
	// Omitted keywords keep the base value. The last call wins.
	// -----------------------------------------------------------------------
	env.AddFunction("moth_eye", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("moth-eye: unexpected positional argument %s",
				pa.positional[0].SexpString(nil))
		}
		if bad := pa.unknown(mothEyeKeywords); len(bad) > 0 {
			return zygo.SexpNull, fmt.Errorf("moth-eye: unknown keyword %s", strings.Join(bad, ", "))
		}

		cfg := st.base

		if v, ok := pa.kw["output"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("moth-eye: output: %w", err)
			}
			cfg.Output = s
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("moth-eye: segments: %w", err)
			}
			cfg.Segments = n
		}
		for _, f := range []struct {
			kw  string
			dst *float64
		}{
			{"outer-radius", &cfg.OuterSphereRadius},
			{"inner-radius", &cfg.InnerSphereRadius},
			{"angle", &cfg.OmmatidiumAngle},
			{"thickness", &cfg.Thickness},
		} {
			v, ok := pa.kw[f.kw]
			if !ok {
				continue
			}
			x, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("moth-eye: %s: %w", f.kw, err)
			}
			*f.dst = x
		}
		if v, ok := pa.kw["policy"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("moth-eye: policy: %w", err)
			}
			cfg.Policy = s
		}
		if v, ok := pa.kw["elevation"]; ok {
			r, err := toRange(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("moth-eye: elevation: %w", err)
			}
			cfg.Elevation = r
		}
		if v, ok := pa.kw["azimuth"]; ok {
			r, err := toRange(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("moth-eye: azimuth: %w", err)
			}
			cfg.Azimuth = r
		}
		if v, ok := pa.kw["modules"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("moth-eye: modules: %w", err)
			}
			cfg.Modules = b
		}

		st.cfg = &cfg
		return &sexpConfig{cfg: cfg}, nil
	})
}
