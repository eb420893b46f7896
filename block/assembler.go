package block

import (
	"github.com/blockpp/blockpp/pperrors"
	"github.com/blockpp/blockpp/reader"
	"github.com/blockpp/blockpp/registry"
)

// frame is one open block on the Assembler's stack. It accumulates the
// in-progress branch's children and, for the conditional family, the
// branches already closed by a prior BlockTransition.
type frame struct {
	family   string
	opener   string
	arg      string // the opening directive's argument text (loop family: "VAR in EXPR:")
	file     string
	line     int
	branches []Branch // closed conditional branches, in order
	current  Branch   // the branch currently being filled (conditional only)
	children []Node   // loop/root children accumulator (loop family)
	text     []reader.Line
}

func (f *frame) flushText() {
	if len(f.text) == 0 {
		return
	}
	t := Text{originInfo: originInfo{File: f.text[0].File, Line: f.text[0].StartLine}, Lines: append([]reader.Line(nil), f.text...)}
	f.append(t)
	f.text = nil
}

func (f *frame) append(n Node) {
	if f.family == "conditional" {
		f.current.Children = append(f.current.Children, n)
		return
	}
	f.children = append(f.children, n)
}

// Assembler builds a Block tree from a stream of recognized Items, applying
// the stack discipline of §4.5: Content accumulates, Single directives flush
// and append, BlockOpen pushes a frame, BlockTransition closes the current
// branch and opens the next inside the same frame, BlockClose pops and
// attaches. Grounded on gazelle_cc's parseIfBlock/parseDirectivesUntil stack
// walk in language/internal/cc/parser/parser.go, generalized from a
// hardcoded directive switch to registry-driven dispatch and extended with
// a loop family the teacher's C preprocessor subset never needed.
type Assembler struct {
	dirs  *registry.Directives
	root  frame
	stack []*frame
}

// NewAssembler returns an Assembler producing a tree rooted at the given
// file name, dispatching directive roles via dirs.
func NewAssembler(dirs *registry.Directives, file string) *Assembler {
	a := &Assembler{dirs: dirs, root: frame{family: "root", file: file, line: 1}}
	a.stack = []*frame{&a.root}
	return a
}

func (a *Assembler) top() *frame { return a.stack[len(a.stack)-1] }

// Feed consumes one recognized Item, mutating the tree under construction.
func (a *Assembler) Feed(item Item) error {
	top := a.top()

	if item.Kind == ItemContent {
		top.text = append(top.text, reader.Line{Text: item.Text, File: item.File, StartLine: item.Line})
		return nil
	}

	desc, found := a.dirs.Lookup(item.Tag)
	if !found {
		return pperrors.Newf(pperrors.UnknownDirective, "unknown directive %q", item.Tag).At(item.File, item.Line).WithTag(item.Tag)
	}

	switch desc.Role {
	case registry.Single:
		top.flushText()
		top.append(Single{originInfo: originInfo{File: item.File, Line: item.Line}, Tag: item.Tag, Arg: item.Arg})
		return nil

	case registry.BlockOpen:
		top.flushText()
		nf := &frame{family: desc.Family, opener: item.Tag, arg: item.Arg, file: item.File, line: item.Line}
		if desc.Family == "conditional" {
			nf.current = Branch{Kind: branchKindFor(item.Tag, desc.Condition, false), Tag: item.Tag, Arg: item.Arg}
		}
		a.stack = append(a.stack, nf)
		return nil

	case registry.BlockTransition:
		if top.family != desc.Family {
			return blockMismatch(item.File, item.Line, item.Tag,
				"directive \""+item.Tag+"\" does not belong to the currently open block")
		}
		top.flushText()
		top.branches = append(top.branches, top.current)
		top.current = Branch{Kind: branchKindFor(item.Tag, desc.Condition, true), Tag: item.Tag, Arg: item.Arg}
		return nil

	case registry.BlockClose:
		if top.family != desc.Family {
			return blockMismatch(item.File, item.Line, item.Tag,
				"directive \""+item.Tag+"\" does not close the currently open block")
		}
		top.flushText()
		if len(a.stack) == 1 {
			return blockMismatch(item.File, item.Line, item.Tag, "directive \""+item.Tag+"\" has no matching opener")
		}
		a.stack = a.stack[:len(a.stack)-1]
		parent := a.top()
		parent.append(top.closedNode())
		return nil

	default:
		return pperrors.Newf(pperrors.UnknownDirective, "directive %q has unsupported role", item.Tag).At(item.File, item.Line).WithTag(item.Tag)
	}
}

// closedNode converts a just-popped frame into the Node it represents.
func (f *frame) closedNode() Node {
	switch f.family {
	case "conditional":
		f.branches = append(f.branches, f.current)
		return Conditional{originInfo: originInfo{File: f.file, Line: f.line}, Branches: f.branches}
	case "loop":
		return Loop{originInfo: originInfo{File: f.file, Line: f.line}, HeaderArg: f.arg, Children: f.children}
	default:
		return Root{originInfo: originInfo{File: f.file, Line: f.line}, Children: f.children}
	}
}

// Finish flushes any trailing text and returns the completed Root. It fails
// with UnterminatedBlock if any non-root frame is still open.
func (a *Assembler) Finish() (*Root, error) {
	if len(a.stack) != 1 {
		top := a.top()
		return nil, pperrors.Newf(pperrors.UnterminatedBlock, "unterminated %q block", top.opener).At(top.file, top.line).WithTag(top.opener)
	}
	a.root.flushText()
	return &Root{originInfo: originInfo{File: a.root.file, Line: a.root.line}, Children: a.root.children}, nil
}
