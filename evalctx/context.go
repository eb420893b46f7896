// Package evalctx implements the forkable, hierarchical evaluation Context
// of §3/§4.6: a tree of scopes (never a graph — forks are created on block
// entry and either merged back into the parent on join, or discarded) that
// holds defines, an enabled/disabled flag, a parent pointer, and references
// to the shared logging sink and File Registry. Named evalctx rather than
// context to avoid colliding with the standard library package of that name.
//
// Grounded on gazelle_cc's own flat macro-cloning in
// language/internal/cc/parser/source_info.go's CollectReachableIncludes
// (maps.Clone(platformMacros) per traversal branch), generalized into a
// real parent-pointer tree since this spec needs per-branch define scoping
// a single cloned flat map cannot express (see DESIGN.md).
package evalctx

import (
	"strconv"
	"strings"

	"github.com/blockpp/blockpp/expr"
	"github.com/blockpp/blockpp/logsink"
	"github.com/blockpp/blockpp/pperrors"
	"github.com/blockpp/blockpp/registry"
)

// maxSubstitutionDepth bounds recursive identifier resolution inside a
// define's stored expression text (§4.7). Overflowing it raises
// SubstitutionLoop. The Expander's iterative fixed-point substitution
// (§4.9) is capped by its own constant of the same value in package expand.
const maxSubstitutionDepth = 32

// Context is one scope in the evaluation tree. Defines are stored as raw
// expression text at registration (§4.6) and evaluated lazily, in the
// context active at the point of use.
type Context struct {
	parent  *Context
	locals  map[string]string
	enabled bool
	files   *registry.Files
	sink    logsink.Sink
}

// NewRoot returns the top-level Context an Expander forks everything else
// from. It starts enabled with no defines.
func NewRoot(files *registry.Files, sink logsink.Sink) *Context {
	return &Context{locals: make(map[string]string), enabled: true, files: files, sink: sink}
}

// Fork creates a child scope whose parent is c and whose Enabled is the
// conjunction of c's own Enabled and blockEnabled — the block's own gating
// decision (§4.6). The child starts with no local defines of its own.
func (c *Context) Fork(blockEnabled bool) *Context {
	return &Context{
		parent:  c,
		locals:  make(map[string]string),
		enabled: c.enabled && blockEnabled,
		files:   c.files,
		sink:    c.sink,
	}
}

// Join merges child's own local defines/undefs into c, as if they had been
// performed directly against c (§4.6 conditional join rule). Only child's
// own local map is merged — undef's removal of an ancestor's binding (see
// Undef) has already mutated that ancestor directly and needs no further
// propagation here.
func (c *Context) Join(child *Context) {
	for name, text := range child.locals {
		c.locals[name] = text
	}
}

// Enabled reports whether output is currently emitted in this scope.
func (c *Context) Enabled() bool { return c.enabled }

// Files returns the shared File Registry, for include/import resolution.
func (c *Context) Files() *registry.Files { return c.files }

// Sink returns the shared logging sink, for info/warn directive delivery.
func (c *Context) Sink() logsink.Sink { return c.sink }

// Define binds name to raw expression text in c's own local scope (§4.6:
// "bind into the innermost context"). An empty exprText is the
// empty-but-defined marker a bare `#define NAME` produces.
func (c *Context) Define(name, exprText string) {
	c.locals[name] = exprText
}

// Undef removes the binding of name from the nearest ancestor (starting at
// c) that owns it. A name with no binding anywhere is a silent no-op.
func (c *Context) Undef(name string) {
	for cur := c; cur != nil; cur = cur.parent {
		if _, ok := cur.locals[name]; ok {
			delete(cur.locals, name)
			return
		}
	}
}

// IsDefined reports whether name is bound anywhere in c's ancestor chain,
// for the `ifdef`/`ifndef` definedness test.
func (c *Context) IsDefined(name string) bool {
	_, ok := c.rawText(name)
	return ok
}

// RawText returns the raw expression text bound to name, without evaluating
// it, for the Expander's implicit (bare-word) substitution (§4.9), which
// substitutes textually rather than via expression evaluation.
func (c *Context) RawText(name string) (string, bool) {
	return c.rawText(name)
}

func (c *Context) rawText(name string) (string, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if text, ok := cur.locals[name]; ok {
			return text, true
		}
	}
	return "", false
}

// Eval parses and evaluates src — a boolean/integer/string mini-expression
// (package expr) — against c. Nested identifier references resolve through
// c's ancestor chain recursively, up to maxSubstitutionDepth, raising
// SubstitutionLoop on overflow instead of recursing forever.
func (c *Context) Eval(src string) (expr.Value, error) {
	tree, err := expr.Parse(src)
	if err != nil {
		return expr.Value{}, err
	}
	var cause error
	v, err := tree.Eval(lookupEnv{ctx: c, depth: 0, cause: &cause})
	if cause != nil {
		return expr.Value{}, cause
	}
	if err != nil {
		return expr.Value{}, err
	}
	return v, nil
}

// EvalBool is the `if`/`elif` convenience form of Eval, returning the
// resulting value's truthiness.
func (c *Context) EvalBool(src string) (bool, error) {
	v, err := c.Eval(src)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// lookupEnv adapts Context lookups to expr.Env, tracking the recursion
// depth of nested define resolution and capturing the first real failure
// (parse error, substitution loop, or a nested evaluation error) so it can
// be surfaced instead of the generic UndefinedIdentifier that Ident.Eval
// raises whenever Lookup merely reports ok=false.
type lookupEnv struct {
	ctx   *Context
	depth int
	cause *error
}

func (e lookupEnv) Lookup(name string) (expr.Value, bool) {
	if *e.cause != nil {
		return expr.Value{}, false
	}
	text, ok := e.ctx.rawText(name)
	if !ok {
		return expr.Value{}, false
	}
	if text == "" {
		return expr.StringValue(""), true
	}
	if e.depth+1 > maxSubstitutionDepth {
		*e.cause = pperrors.Newf(pperrors.SubstitutionLoop,
			"substitution recursion exceeded depth %d resolving %q", maxSubstitutionDepth, name)
		return expr.Value{}, false
	}
	tree, err := expr.Parse(text)
	if err != nil {
		*e.cause = err
		return expr.Value{}, false
	}
	v, err := tree.Eval(lookupEnv{ctx: e.ctx, depth: e.depth + 1, cause: e.cause})
	if err != nil {
		*e.cause = err
		return expr.Value{}, false
	}
	return v, true
}

// Literal renders v back into expr syntax text that re-parses to an
// equivalent value — used to bind a `for` loop variable to a concrete
// iteration value as a define (§4.8).
func Literal(v expr.Value) string {
	switch v.Kind {
	case expr.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case expr.KindBool:
		return strconv.FormatBool(v.Bool)
	case expr.KindString:
		return strconv.Quote(v.Str)
	case expr.KindList:
		parts := make([]string, len(v.List))
		for i, el := range v.List {
			parts[i] = Literal(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return `""`
	}
}
