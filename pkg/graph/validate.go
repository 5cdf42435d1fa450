package graph

import (
	"fmt"
	"math"
)

// ValidationSeverity indicates whether a validation finding blocks
// serialization or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks serialization
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Kind     NodeKind           // kind of the offending node
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Kind, e.Message)
}

// Validate runs the structural checks on the tree rooted at root and
// returns every finding. An empty slice means the tree is valid. The tree
// is never mutated.
func Validate(root *Node) []ValidationError {
	if root == nil {
		return []ValidationError{{Message: "tree is empty", Severity: SeverityError}}
	}
	var errs []ValidationError
	Walk(root, func(n *Node) bool {
		errs = append(errs, validateArity(n)...)
		errs = append(errs, validateData(n)...)
		return true
	})
	return errs
}

// Errors filters findings down to the blocking ones.
func Errors(findings []ValidationError) []ValidationError {
	var out []ValidationError
	for _, f := range findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

func fail(n *Node, format string, args ...interface{}) ValidationError {
	return ValidationError{Kind: n.Kind, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warn(n *Node, format string, args ...interface{}) ValidationError {
	return ValidationError{Kind: n.Kind, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// validateArity checks the number of children each kind expects.
func validateArity(n *Node) []ValidationError {
	c := len(n.Children)
	switch n.Kind {
	case NodePolyhedron, NodeSphere:
		if c != 0 {
			return []ValidationError{fail(n, "primitive has %d children", c)}
		}
	case NodeRotate:
		if c != 1 {
			return []ValidationError{fail(n, "rotate needs exactly 1 child, has %d", c)}
		}
	case NodeHull, NodeUnion:
		if c == 0 {
			return []ValidationError{fail(n, "no children")}
		}
		if c == 1 && n.Kind == NodeUnion {
			return []ValidationError{warn(n, "union of a single child")}
		}
	case NodeDifference:
		if c == 0 {
			return []ValidationError{fail(n, "difference has no base")}
		}
		if c == 1 {
			return []ValidationError{warn(n, "difference has nothing to subtract")}
		}
	default:
		return []ValidationError{fail(n, "unknown node kind %d", int(n.Kind))}
	}
	for i, child := range n.Children {
		if child == nil {
			return []ValidationError{fail(n, "child %d is nil", i)}
		}
	}
	return nil
}

// validateData checks kind-specific payloads.
func validateData(n *Node) []ValidationError {
	var errs []ValidationError
	switch n.Kind {
	case NodePolyhedron:
		d, ok := n.Data.(PolyhedronData)
		if !ok {
			return []ValidationError{fail(n, "unexpected data type %T", n.Data)}
		}
		for i, p := range d.Points {
			if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
				errs = append(errs, fail(n, "point %d is not finite", i))
			}
		}
		for i, f := range d.Faces {
			if len(f) < 3 {
				errs = append(errs, fail(n, "face %d has %d indices", i, len(f)))
			}
			for _, idx := range f {
				if idx < 0 || idx >= len(d.Points) {
					errs = append(errs, fail(n, "face %d references point %d of %d", i, idx, len(d.Points)))
				}
			}
		}
	case NodeSphere:
		d, ok := n.Data.(SphereData)
		if !ok {
			return []ValidationError{fail(n, "unexpected data type %T", n.Data)}
		}
		if !finite(d.Radius) || d.Radius <= 0 {
			errs = append(errs, fail(n, "radius is %.4f, must be positive", d.Radius))
		}
	case NodeRotate:
		d, ok := n.Data.(RotateData)
		if !ok {
			return []ValidationError{fail(n, "unexpected data type %T", n.Data)}
		}
		if !finite(d.Angles.X) || !finite(d.Angles.Y) || !finite(d.Angles.Z) {
			errs = append(errs, fail(n, "angles %+v are not finite", d.Angles))
		}
	}
	return errs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
