package hierarchy

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is one leaf contribution: an amount plus its resolved ancestor
// chain, outermost group first. Ref identifies the source record in
// error messages, typically the account code.
type Entry struct {
	Labels []string
	Amount decimal.Decimal
	Ref    string
}

// IntegrityError reports an entry whose ancestor chain cannot be fully
// resolved. The whole report fails rather than silently dropping the
// entry, so an out-of-balance statement never goes undetected.
type IntegrityError struct {
	Ref   string
	Level string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("hierarchy: account %s: unresolved %s in ancestor chain", e.Ref, e.Level)
}

// Builder incrementally constructs a rollup tree of fixed depth. Depth
// counts the group levels below the root: a chart-of-accounts section
// uses depth 3 (element, sub-element, detailed group).
type Builder struct {
	root       *Node
	depth      int
	levelNames []string
}

// NewBuilder creates a builder whose root carries rootLabel. levelNames
// names each level below the root and fixes the expected chain length;
// the names only appear in integrity errors.
func NewBuilder(rootLabel string, levelNames ...string) *Builder {
	return &Builder{
		root:       newNode(rootLabel, LevelSection),
		depth:      len(levelNames),
		levelNames: levelNames,
	}
}

// Add folds one entry into the tree. Entries with a zero amount are
// skipped entirely: they contribute to no node and produce no row.
// Every ancestor node on the chain accumulates the amount; the deepest
// node absorbs the entry directly and becomes a leaf.
func (b *Builder) Add(e Entry) error {
	if err := b.checkChain(e); err != nil {
		return err
	}
	if e.Amount.IsZero() {
		return nil
	}
	b.root.Amount = b.root.Amount.Add(e.Amount)
	node := b.root
	for _, label := range e.Labels {
		node = node.child(label)
		node.Amount = node.Amount.Add(e.Amount)
	}
	node.leaf = true
	return nil
}

// AddGroup registers a group chain with no contributing entries, so
// metadata-supplied empty groups still emit a header and a zero total.
// Partial chains are allowed; existing nodes are left untouched.
func (b *Builder) AddGroup(labels ...string) error {
	if len(labels) == 0 || len(labels) > b.depth {
		return &IntegrityError{Ref: strings.Join(labels, "/"), Level: b.levelName(len(labels))}
	}
	node := b.root
	for i, label := range labels {
		if strings.TrimSpace(label) == "" {
			return &IntegrityError{Ref: strings.Join(labels, "/"), Level: b.levelName(i)}
		}
		node = node.child(label)
	}
	return nil
}

// Root returns the completed tree.
func (b *Builder) Root() *Node {
	return b.root
}

// Build runs a builder over all entries and returns the finished root.
// The first unresolvable chain aborts the build.
func Build(rootLabel string, levelNames []string, entries []Entry) (*Node, error) {
	b := NewBuilder(rootLabel, levelNames...)
	for _, e := range entries {
		if err := b.Add(e); err != nil {
			return nil, err
		}
	}
	return b.Root(), nil
}

func (b *Builder) checkChain(e Entry) error {
	if len(e.Labels) != b.depth {
		return &IntegrityError{Ref: e.Ref, Level: b.levelName(len(e.Labels))}
	}
	for i, label := range e.Labels {
		if strings.TrimSpace(label) == "" {
			return &IntegrityError{Ref: e.Ref, Level: b.levelName(i)}
		}
	}
	return nil
}

func (b *Builder) levelName(i int) string {
	if i >= 0 && i < len(b.levelNames) {
		return b.levelNames[i]
	}
	return fmt.Sprintf("level %d", i)
}
