package registry

import "github.com/blockpp/blockpp/pperrors"

// Role classifies how a directive participates in block assembly (package
// block). It mirrors the BranchKind/Directive tagged-variant split gazelle_cc
// uses in language/internal/cc/parser/directive.go — a tagged descriptor
// lets the Block Assembler reason about structure without a type switch over
// concrete tag names (see DESIGN.md "Directive polymorphism").
type Role int

const (
	// Single directives produce exactly one Block.Single node: define, undef,
	// include, import, info, warn, error.
	Single Role = iota
	// BlockOpen starts a new block frame: if, ifdef, ifndef, for.
	BlockOpen
	// BlockTransition closes the current branch and opens the next one
	// inside the same frame, without changing the frame's family: elif,
	// elifdef, elifndef, else.
	BlockTransition
	// BlockClose ends the current frame: endif, endfor.
	BlockClose
	// BlockChild names a directive that neither opens, transitions nor
	// closes a block. No built-in directive uses this role, and the Block
	// Assembler does not accept it: a directive registered with it fails
	// assembly with UnknownDirective ("unsupported role") wherever it
	// appears.
	BlockChild
)

func (r Role) String() string {
	switch r {
	case Single:
		return "Single"
	case BlockOpen:
		return "BlockOpen"
	case BlockTransition:
		return "BlockTransition"
	case BlockClose:
		return "BlockClose"
	case BlockChild:
		return "BlockChild"
	default:
		return "Unknown"
	}
}

// ConditionMode tells the Block Assembler how to interpret the argument text
// of a BlockOpen/BlockTransition directive in the "conditional" family,
// without the assembler needing to know concrete tag names.
type ConditionMode int

const (
	// ConditionNone means the argument is a boolean expression (if, elif).
	ConditionNone ConditionMode = iota
	// ConditionDefined means the argument is a bare identifier tested for
	// definedness (ifdef, elifdef).
	ConditionDefined
	// ConditionNotDefined is the negation of ConditionDefined (ifndef,
	// elifndef).
	ConditionNotDefined
	// ConditionAlways takes no argument and is always truthy (else).
	ConditionAlways
)

// Descriptor is immutable once registered. Condition only matters to
// directives in the "conditional" family; Single/loop directives leave it at
// its zero value. Floating applies to a directive of any role.
type Descriptor struct {
	Tag  string
	Role Role
	// Family groups a BlockOpen with the BlockTransition/BlockClose
	// directives legal inside it. Every directive belonging to the same
	// conceptual block (e.g. if/ifdef/ifndef/elif/elifdef/elifndef/else/endif
	// all share Family "conditional") carries the same string; the Block
	// Assembler validates transitions/closes against the family of the frame
	// they appear in, equivalent to gazelle_cc's parser.go linking elif/else/
	// endif back to whichever of if/ifdef/ifndef opened the block.
	Family string
	// Condition only applies to BlockOpen/BlockTransition in family
	// "conditional".
	Condition ConditionMode
	// Floating enables floating (mid-line) recognition for this tag (§4.4).
	// No built-in directive enables this; it exists for extensions.
	Floating bool
}

// Directives is a registry of directive descriptors, keyed by tag. It
// becomes read-only once Lock is called — mirroring gazelle_cc's own
// "configure once, then read-only" plugin lifecycle (language/cc/config.go's
// Configurer pattern) — so a directive cannot be registered mid-expansion.
type Directives struct {
	byTag  map[string]Descriptor
	locked bool
}

// NewDirectives returns an empty registry. Use RegisterBuiltins to populate
// it with the tags fixed by spec §6, then Register any extensions before
// calling Lock.
func NewDirectives() *Directives {
	return &Directives{byTag: make(map[string]Descriptor)}
}

// Register adds a descriptor. Fails with RegistryLocked if called after Lock.
func (d *Directives) Register(desc Descriptor) error {
	if d.locked {
		return pperrors.Newf(pperrors.RegistryLocked, "cannot register directive %q: registry is locked", desc.Tag)
	}
	d.byTag[desc.Tag] = desc
	return nil
}

// Lookup returns the descriptor for tag, or ok=false if unregistered.
func (d *Directives) Lookup(tag string) (Descriptor, bool) {
	desc, ok := d.byTag[tag]
	return desc, ok
}

// Lock prevents further registration. Idempotent.
func (d *Directives) Lock() { d.locked = true }

// Locked reports whether the registry has been locked.
func (d *Directives) Locked() bool { return d.locked }

// RegisterBuiltins populates d with the fixed built-in directive set of
// spec §6, plus the elifdef/elifndef supplement of SPEC_FULL.md §10.3.
func RegisterBuiltins(d *Directives) error {
	builtins := []Descriptor{
		{Tag: "define", Role: Single},
		{Tag: "undef", Role: Single},

		{Tag: "if", Role: BlockOpen, Family: "conditional", Condition: ConditionNone},
		{Tag: "ifdef", Role: BlockOpen, Family: "conditional", Condition: ConditionDefined},
		{Tag: "ifndef", Role: BlockOpen, Family: "conditional", Condition: ConditionNotDefined},
		{Tag: "elif", Role: BlockTransition, Family: "conditional", Condition: ConditionNone},
		{Tag: "elifdef", Role: BlockTransition, Family: "conditional", Condition: ConditionDefined},
		{Tag: "elifndef", Role: BlockTransition, Family: "conditional", Condition: ConditionNotDefined},
		{Tag: "else", Role: BlockTransition, Family: "conditional", Condition: ConditionAlways},
		{Tag: "endif", Role: BlockClose, Family: "conditional"},

		{Tag: "for", Role: BlockOpen, Family: "loop"},
		{Tag: "endfor", Role: BlockClose, Family: "loop"},

		{Tag: "include", Role: Single},
		{Tag: "import", Role: Single},
		{Tag: "info", Role: Single},
		{Tag: "warn", Role: Single},
		{Tag: "error", Role: Single},
	}
	for _, desc := range builtins {
		if err := d.Register(desc); err != nil {
			return err
		}
	}
	return nil
}
