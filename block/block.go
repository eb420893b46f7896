// Package block classifies logical lines into directive/content items
// (the Recognizer) and assembles them into a tree of Block nodes (the
// Assembler). It is grounded on gazelle_cc's own directive/parser split at
// language/internal/cc/parser/{directive.go,parser.go} — in particular
// parseIfBlock's branch accumulation and parseDirectivesUntil's stop-token
// recursion — generalized from a hardcoded `#if`/`#ifdef`/`#ifndef` switch
// to registry-driven dispatch over arbitrary families (conditional, loop),
// and restructured from recursive descent into an explicit frame stack
// since this package receives lines one at a time from a lazy reader
// instead of owning its own token stream.
package block

import (
	"github.com/blockpp/blockpp/pperrors"
	"github.com/blockpp/blockpp/reader"
	"github.com/blockpp/blockpp/registry"
)

// Node is one element of the assembled Block tree.
type Node interface {
	origin() (file string, line int)
}

type originInfo struct {
	File string
	Line int
}

func (o originInfo) origin() (string, int) { return o.File, o.Line }

// Root is the top-level container for a single source file's Block tree.
type Root struct {
	originInfo
	Children []Node
}

// Text is a run of contiguous content lines.
type Text struct {
	originInfo
	Lines []reader.Line
}

// Single is a one-line directive: define, undef, include, import, info,
// warn, error, or any Single-role extension.
type Single struct {
	originInfo
	Tag string
	Arg string
}

// BranchKind identifies which kind of branch opened or transitioned a
// Conditional.
type BranchKind int

const (
	If BranchKind = iota
	Elif
	Else
	Ifdef
	Elifdef
	Ifndef
	Elifndef
)

// Branch is one arm of a Conditional.
type Branch struct {
	Kind     BranchKind
	Tag      string
	Arg      string
	Children []Node
}

// Conditional is an if/ifdef/ifndef .. elif/elifdef/elifndef .. else ..
// endif block.
type Conditional struct {
	originInfo
	Branches []Branch
}

// Loop is a for .. endfor block.
type Loop struct {
	originInfo
	HeaderArg string
	Children  []Node
}

func branchKindFor(tag string, cond registry.ConditionMode, transition bool) BranchKind {
	switch {
	case cond == registry.ConditionAlways:
		return Else
	case cond == registry.ConditionDefined && transition:
		return Elifdef
	case cond == registry.ConditionDefined:
		return Ifdef
	case cond == registry.ConditionNotDefined && transition:
		return Elifndef
	case cond == registry.ConditionNotDefined:
		return Ifndef
	case transition:
		return Elif
	default:
		return If
	}
}

func blockMismatch(file string, line int, tag, msg string) error {
	return pperrors.Newf(pperrors.BlockMismatch, "%s", msg).At(file, line).WithTag(tag)
}
