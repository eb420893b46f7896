// Package expand implements the Expander (§4.8/§9): a depth-first walk of a
// Block tree under a Context that yields the final lazy sequence of output
// lines, performing constant substitution and dispatching directive
// handlers (define/undef/include/import/info/warn/error).
//
// Grounded on gazelle_cc's CollectIncludes/CollectReachableIncludes
// walk-with-environment pattern in
// language/internal/cc/parser/source_info.go, generalized from "collect a
// set of transitively reachable header paths" into "produce a lazy sequence
// of output lines", using the standard library's iter.Seq2[string, error]
// range-over-func iterator.
package expand

import (
	"fmt"
	"iter"
	"path"
	"strings"

	"github.com/blockpp/blockpp/block"
	"github.com/blockpp/blockpp/evalctx"
	"github.com/blockpp/blockpp/expr"
	"github.com/blockpp/blockpp/logsink"
	"github.com/blockpp/blockpp/pperrors"
	"github.com/blockpp/blockpp/reader"
	"github.com/blockpp/blockpp/registry"
)

// maxSubstitutionDepth bounds the iterative fixed-point substitution pass
// of §4.9, mirroring evalctx's identifier-recursion cap of the same value.
const maxSubstitutionDepth = 32

// Expander drives the whole pipeline of §2's data flow — File → Line Reader
// → Recognizer → Block Assembler → Block Tree → Expander(Context) — for a
// root file and every file it include/imports.
type Expander struct {
	dirs   *registry.Directives
	files  *registry.Files
	prefix byte
}

// New returns an Expander dispatching directive roles via dirs and
// resolving include/import targets via files. prefix is the configured
// directive prefix character (default '#').
func New(dirs *registry.Directives, files *registry.Files, prefix byte) *Expander {
	return &Expander{dirs: dirs, files: files, prefix: prefix}
}

// Expand is the entry point: it streams the fully expanded output of
// rootFile under ctx. Each yielded (line, nil) is one output line in
// textual source order (§5); a yielded (_, err) terminates the sequence —
// the caller's range loop should stop consuming on a non-nil error.
func (e *Expander) Expand(ctx *evalctx.Context, rootFile string) iter.Seq2[string, error] {
	return e.expandFile(ctx, rootFile, "")
}

// expandFile resolves name, fully parses it into a Block tree (§4.5's
// documented Root-boundary pipelining relaxation: the whole file is read
// and parsed before its expansion begins, but expansion itself, and every
// nested include/import, still streams output lines lazily), and walks it
// under ctx.
func (e *Expander) expandFile(ctx *evalctx.Context, name, originDir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		entry, err := e.files.Resolve(name, originDir)
		if err != nil {
			yield("", err)
			return
		}
		rc, err := entry.Open()
		if err != nil {
			yield("", err)
			return
		}
		defer rc.Close()

		rd := reader.New(rc, entry.Name, e.prefix, ctx.Sink())
		asm := block.NewAssembler(e.dirs, entry.Name)
		for {
			line, ok, err := rd.Next()
			if err != nil {
				yield("", err)
				return
			}
			if !ok {
				break
			}
			for _, item := range block.Recognize(line, e.prefix, e.dirs) {
				if ferr := asm.Feed(item); ferr != nil {
					yield("", ferr)
					return
				}
			}
		}
		root, err := asm.Finish()
		if err != nil {
			yield("", err)
			return
		}

		fileDir := path.Dir(filepathToSlash(entry.Name))
		if fileDir == "." {
			fileDir = ""
		}
		for line, lerr := range e.expandNodes(ctx, root.Children, fileDir) {
			if !yield(line, lerr) {
				return
			}
			if lerr != nil {
				return
			}
		}
	}
}

func filepathToSlash(p string) string { return strings.ReplaceAll(p, "\\", "/") }

// expandNodes walks nodes in order, dispatching by concrete Block type.
func (e *Expander) expandNodes(ctx *evalctx.Context, nodes []block.Node, fileDir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, n := range nodes {
			var inner iter.Seq2[string, error]
			var nodeFile string
			var nodeLine int
			switch node := n.(type) {
			case block.Text:
				inner = e.expandText(ctx, node)
				nodeFile, nodeLine = node.File, node.Line
			case block.Single:
				inner = e.expandSingle(ctx, node, fileDir)
				nodeFile, nodeLine = node.File, node.Line
			case block.Conditional:
				inner = e.expandConditional(ctx, node, fileDir)
				nodeFile, nodeLine = node.File, node.Line
			case block.Loop:
				inner = e.expandLoop(ctx, node, fileDir)
				nodeFile, nodeLine = node.File, node.Line
			default:
				inner = func(yield func(string, error) bool) {
					yield("", pperrors.Newf(pperrors.UnknownDirective, "unrecognized block node %T", n))
				}
			}
			for line, err := range inner {
				// Errors raised without an origin (e.g. expression evaluation)
				// take the origin of the node being expanded.
				if pe, ok := err.(*pperrors.Error); ok && pe.File == "" {
					err = pe.At(nodeFile, nodeLine)
				}
				if !yield(line, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}

func (e *Expander) expandText(ctx *evalctx.Context, n block.Text) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !ctx.Enabled() {
			return
		}
		for _, ln := range n.Lines {
			out, err := e.substitute(ctx, ln.Text, ln.File, ln.StartLine)
			if err != nil {
				yield("", err)
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

func (e *Expander) expandSingle(ctx *evalctx.Context, n block.Single, fileDir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !ctx.Enabled() {
			return
		}
		switch n.Tag {
		case "define":
			name, exprText := splitDefineArg(n.Arg)
			ctx.Define(name, exprText)

		case "undef":
			ctx.Undef(strings.TrimSpace(n.Arg))

		case "info", "warn":
			msg, err := e.substitute(ctx, n.Arg, n.File, n.Line)
			if err != nil {
				yield("", err)
				return
			}
			level := logsink.Info
			if n.Tag == "warn" {
				level = logsink.Warn
			}
			ctx.Sink().Logf(level, fmt.Sprintf("%s:%d", n.File, n.Line), "%s", msg)

		case "error":
			msg, err := e.substitute(ctx, n.Arg, n.File, n.Line)
			if err != nil {
				yield("", err)
				return
			}
			yield("", pperrors.Newf(pperrors.UserError, "%s", msg).At(n.File, n.Line))

		case "include":
			target := unquote(n.Arg)
			for line, err := range e.expandFile(ctx, target, fileDir) {
				if !yield(line, err) {
					return
				}
				if err != nil {
					return
				}
			}

		case "import":
			target := unquote(n.Arg)
			entry, err := e.files.Resolve(target, fileDir)
			if err != nil {
				yield("", err)
				return
			}
			if ctx.Files().WasImported(entry.Name) {
				return
			}
			ctx.Files().MarkImported(entry.Name)
			for line, err := range e.expandFile(ctx, target, fileDir) {
				if !yield(line, err) {
					return
				}
				if err != nil {
					return
				}
			}

		default:
			yield("", pperrors.Newf(pperrors.UnknownDirective, "no handler for directive %q", n.Tag).At(n.File, n.Line).WithTag(n.Tag))
		}
	}
}

func (e *Expander) expandConditional(ctx *evalctx.Context, n block.Conditional, fileDir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !ctx.Enabled() {
			return
		}
		for _, br := range n.Branches {
			truthy, err := branchTruthy(ctx, br)
			if err != nil {
				yield("", err)
				return
			}
			if !truthy {
				continue
			}
			child := ctx.Fork(true)
			for line, lerr := range e.expandNodes(child, br.Children, fileDir) {
				if !yield(line, lerr) {
					ctx.Join(child)
					return
				}
				if lerr != nil {
					ctx.Join(child)
					return
				}
			}
			ctx.Join(child)
			return
		}
	}
}

func branchTruthy(ctx *evalctx.Context, br block.Branch) (bool, error) {
	switch br.Kind {
	case block.If, block.Elif:
		return ctx.EvalBool(br.Arg)
	case block.Ifdef, block.Elifdef:
		return ctx.IsDefined(strings.TrimSpace(br.Arg)), nil
	case block.Ifndef, block.Elifndef:
		return !ctx.IsDefined(strings.TrimSpace(br.Arg)), nil
	case block.Else:
		return true, nil
	default:
		return false, pperrors.Newf(pperrors.ExpressionSyntax, "unrecognized branch kind %d", br.Kind)
	}
}

func (e *Expander) expandLoop(ctx *evalctx.Context, n block.Loop, fileDir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !ctx.Enabled() {
			return
		}
		vars, iterExpr, err := parseLoopHeader(n.HeaderArg)
		if err != nil {
			yield("", pperrors.Wrap(pperrors.ExpressionSyntax, err, "invalid for header "+n.HeaderArg).At(n.File, n.Line))
			return
		}
		iterable, err := ctx.Eval(iterExpr)
		if err != nil {
			yield("", err)
			return
		}
		if iterable.Kind != expr.KindList {
			yield("", pperrors.Newf(pperrors.TypeMismatch, "for loop expression must be an iterable, got %s", iterable.Kind).At(n.File, n.Line))
			return
		}
		for _, v := range iterable.List {
			child := ctx.Fork(true)
			if err := bindLoopVars(child, vars, v, n.File, n.Line); err != nil {
				yield("", err)
				return
			}
			for line, lerr := range e.expandNodes(child, n.Children, fileDir) {
				if !yield(line, lerr) {
					return
				}
				if lerr != nil {
					return
				}
			}
			// Loop iterations never join: their defines are transient (§4.6/§9).
		}
	}
}

// parseLoopHeader splits a for-header "VAR[, VAR2] in EXPR:" into its bound
// variable names and the (still-raw) iterable expression text.
func parseLoopHeader(header string) (vars []string, iterExpr string, err error) {
	h := strings.TrimSpace(header)
	h = strings.TrimSuffix(h, ":")
	idx := strings.Index(h, " in ")
	if idx < 0 {
		return nil, "", pperrors.Newf(pperrors.ExpressionSyntax, "expected \"VAR in EXPR\", got %q", header)
	}
	varsPart := strings.TrimSpace(h[:idx])
	iterExpr = strings.TrimSpace(h[idx+len(" in "):])
	for _, v := range strings.Split(varsPart, ",") {
		name := strings.TrimSpace(v)
		if name == "" {
			return nil, "", pperrors.Newf(pperrors.ExpressionSyntax, "empty loop variable name in %q", header)
		}
		vars = append(vars, name)
	}
	return vars, iterExpr, nil
}

func bindLoopVars(ctx *evalctx.Context, vars []string, v expr.Value, file string, line int) error {
	if len(vars) == 1 {
		ctx.Define(vars[0], evalctx.Literal(v))
		return nil
	}
	if v.Kind != expr.KindList || len(v.List) != len(vars) {
		return pperrors.Newf(pperrors.TypeMismatch,
			"for %s in ...: expected a %d-element tuple per iteration, got %s", strings.Join(vars, ", "), len(vars), v.Kind).At(file, line)
	}
	for i, name := range vars {
		ctx.Define(name, evalctx.Literal(v.List[i]))
	}
	return nil
}

// splitDefineArg splits "NAME" or "NAME EXPR" into the identifier and its
// (possibly empty) expression text.
func splitDefineArg(arg string) (name, exprText string) {
	arg = strings.TrimSpace(arg)
	idx := strings.IndexAny(arg, " \t")
	if idx < 0 {
		return arg, ""
	}
	return arg[:idx], strings.TrimSpace(arg[idx+1:])
}

// unquote strips one layer of surrounding double quotes from an
// include/import path argument, e.g. `"foo/bar.bpp"` -> `foo/bar.bpp`.
func unquote(arg string) string {
	s := strings.TrimSpace(arg)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// substitute applies the §4.9 substitution rules — explicit $(NAME)
// expression evaluation and implicit bare-word textual replacement — to a
// fixed point, capped at maxSubstitutionDepth passes.
func (e *Expander) substitute(ctx *evalctx.Context, text, file string, line int) (string, error) {
	cur := text
	for i := 0; i < maxSubstitutionDepth; i++ {
		next, err := substituteOnce(ctx, cur)
		if err != nil {
			return "", err
		}
		if next == cur {
			return next, nil
		}
		cur = next
	}
	return "", pperrors.Newf(pperrors.SubstitutionLoop,
		"substitution did not reach a fixed point within %d passes", maxSubstitutionDepth).At(file, line)
}

func substituteOnce(ctx *evalctx.Context, text string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '$' && i+1 < len(text) && text[i+1] == '(' {
			end := matchingParen(text[i+2:])
			if end < 0 {
				b.WriteByte(text[i])
				i++
				continue
			}
			name := strings.TrimSpace(text[i+2 : i+2+end])
			v, err := ctx.Eval(name)
			if err != nil {
				return "", err
			}
			b.WriteString(v.String())
			i = i + 2 + end + 1
			continue
		}
		if isIdentStart(text[i]) {
			j := i + 1
			for j < len(text) && isIdentPart(text[j]) {
				j++
			}
			word := text[i:j]
			if raw, ok := ctx.RawText(word); ok {
				b.WriteString(raw)
			} else {
				b.WriteString(word)
			}
			i = j
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String(), nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
func isIdentPart(b byte) bool { return isIdentStart(b) || (b >= '0' && b <= '9') }

// matchingParen scans s (the text immediately after a `$(`) for the index of
// the ')' that closes that opening paren, honoring nested parentheses (e.g.
// `$(1 + (2 * 3))`, explicitly permitted by §4.7's expression grammar) and
// skipping over parens inside string literals. Returns -1 if no balanced
// close is found, the same "leave it alone" signal the caller used for a
// bare unmatched '('.
func matchingParen(s string) int {
	depth := 1
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
				continue
			}
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Collect drains seq into a slice of lines, returning the first error
// encountered (if any). It is for tests and small inputs; the CLI (package
// cmd/blockpp) never calls it — it ranges over Expand directly so output
// stays streaming all the way to the process boundary (§5/§10.3).
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for line, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, line)
	}
	return out, nil
}
