// Package accounttree maintains the chart of accounts as an explicit
// forest: a flat store of accounts keyed by id, with parent links and
// per-level ordering by account code.
package accounttree

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/model"
)

// CycleError reports a reparent that would make an account its own
// ancestor.
type CycleError struct {
	AccountID uuid.UUID
	ParentID  uuid.UUID
}

func (e CycleError) Error() string {
	return fmt.Sprintf("moving account %s under %s would create a cycle", e.AccountID, e.ParentID)
}

// NonRootTypeError reports a type assignment on a non-root account.
// Only root accounts carry a type; children inherit it.
type NonRootTypeError struct {
	AccountID uuid.UUID
}

func (e NonRootTypeError) Error() string {
	return fmt.Sprintf("account %s is not a root account and cannot have a type", e.AccountID)
}

// DuplicateCodeError reports two siblings sharing one code.
type DuplicateCodeError struct {
	ParentID uuid.UUID
	Code     string
}

func (e DuplicateCodeError) Error() string {
	if e.ParentID == uuid.Nil {
		return fmt.Sprintf("a root account with code %q already exists", e.Code)
	}
	return fmt.Sprintf("account %s already has a child with code %q", e.ParentID, e.Code)
}

type node struct {
	account  model.Account
	children []uuid.UUID // ordered by code
}

// Tree is the account forest. Multiple roots are allowed; each root
// carries an account type which all of its descendants inherit.
type Tree struct {
	nodes map[uuid.UUID]*node
	roots []uuid.UUID // ordered by code
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: make(map[uuid.UUID]*node)}
}

// Load builds a tree from stored accounts. Parents may appear in any
// order relative to their children.
func Load(accounts []model.Account) (*Tree, error) {
	t := New()
	pending := append([]model.Account(nil), accounts...)
	for len(pending) > 0 {
		progressed := false
		var next []model.Account
		for _, a := range pending {
			if a.IsRoot() || t.Has(a.ParentID) {
				if err := t.Register(a); err != nil {
					return nil, err
				}
				progressed = true
			} else {
				next = append(next, a)
			}
		}
		if !progressed {
			return nil, fmt.Errorf("%d accounts reference missing parents", len(next))
		}
		pending = next
	}
	return t, nil
}

// Register attaches an account. The parent must already be registered,
// or be absent (uuid.Nil) for a root account. Non-root accounts may
// not carry a type of their own.
func (t *Tree) Register(a model.Account) error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("account %q has no id", a.Name)
	}
	if _, ok := t.nodes[a.ID]; ok {
		return fmt.Errorf("account %s already registered", a.ID)
	}
	if a.IsRoot() {
		if !a.Type.Valid() {
			return fmt.Errorf("root account %q has invalid type %q", a.Name, a.Type)
		}
	} else {
		if _, ok := t.nodes[a.ParentID]; !ok {
			return fmt.Errorf("parent account %s not registered", a.ParentID)
		}
		if a.Type != "" {
			return NonRootTypeError{AccountID: a.ID}
		}
	}
	if t.siblingCodeTaken(a.ParentID, a.Code, uuid.Nil) {
		return DuplicateCodeError{ParentID: a.ParentID, Code: a.Code}
	}

	t.nodes[a.ID] = &node{account: a}
	t.attach(a.ID, a.ParentID)
	return nil
}

// Has reports whether id is registered.
func (t *Tree) Has(id uuid.UUID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Get returns the account for id.
func (t *Tree) Get(id uuid.UUID) (model.Account, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return model.Account{}, false
	}
	return n.account, true
}

// Roots returns all root accounts ordered by code.
func (t *Tree) Roots() []model.Account {
	out := make([]model.Account, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nodes[id].account)
	}
	return out
}

// Ancestors returns the chain from root down to id.
func (t *Tree) Ancestors(id uuid.UUID, includeSelf bool) ([]model.Account, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("account %s not registered", id)
	}
	var chain []model.Account
	if includeSelf {
		chain = append(chain, n.account)
	}
	cur := n.account.ParentID
	for cur != uuid.Nil {
		p := t.nodes[cur]
		chain = append(chain, p.account)
		cur = p.account.ParentID
	}
	// Walked child-to-root; callers get root-to-child.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Descendants returns the subtree under id in depth-first order,
// children visited in code order. The order is deterministic so
// aggregation and display are reproducible.
func (t *Tree) Descendants(id uuid.UUID, includeSelf bool) ([]model.Account, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("account %s not registered", id)
	}
	var out []model.Account
	if includeSelf {
		out = append(out, n.account)
	}
	var walk func(*node)
	walk = func(cur *node) {
		for _, childID := range cur.children {
			child := t.nodes[childID]
			out = append(out, child.account)
			walk(child)
		}
	}
	walk(n)
	return out, nil
}

// Root returns the top ancestor of id (id itself for roots).
func (t *Tree) Root(id uuid.UUID) (model.Account, error) {
	n, ok := t.nodes[id]
	if !ok {
		return model.Account{}, fmt.Errorf("account %s not registered", id)
	}
	cur := n
	for cur.account.ParentID != uuid.Nil {
		cur = t.nodes[cur.account.ParentID]
	}
	return cur.account, nil
}

// EffectiveType resolves the account's type through its root ancestor.
func (t *Tree) EffectiveType(id uuid.UUID) (model.AccountType, error) {
	root, err := t.Root(id)
	if err != nil {
		return "", err
	}
	return root.Type, nil
}

// Sign returns the display sign for the account: -1 for asset and
// expense accounts, +1 otherwise.
func (t *Tree) Sign(id uuid.UUID) (int64, error) {
	typ, err := t.EffectiveType(id)
	if err != nil {
		return 0, err
	}
	return typ.Sign(), nil
}

// FullCode concatenates the codes from root down to id.
func (t *Tree) FullCode(id uuid.UUID) (string, error) {
	chain, err := t.Ancestors(id, true)
	if err != nil {
		return "", err
	}
	code := ""
	for _, a := range chain {
		code += a.Code
	}
	return code, nil
}

// ByFullCode finds the account whose full code matches exactly.
func (t *Tree) ByFullCode(code string) (model.Account, bool) {
	for _, rootID := range t.roots {
		if a, ok := t.findByCode(rootID, "", code); ok {
			return a, true
		}
	}
	return model.Account{}, false
}

// SetType assigns an account type. Allowed on root accounts only.
func (t *Tree) SetType(id uuid.UUID, typ model.AccountType) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("account %s not registered", id)
	}
	if !n.account.IsRoot() {
		return NonRootTypeError{AccountID: id}
	}
	if !typ.Valid() {
		return fmt.Errorf("invalid account type %q", typ)
	}
	n.account.Type = typ
	return nil
}

// Reparent moves id (and its whole subtree) under newParent, or makes
// it a root when newParent is uuid.Nil. Fails with a CycleError if the
// new parent lies inside the moved subtree. Full codes and inherited
// types are derived, so the move re-resolves them for every
// descendant.
func (t *Tree) Reparent(id, newParent uuid.UUID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("account %s not registered", id)
	}
	if newParent != uuid.Nil {
		if _, ok := t.nodes[newParent]; !ok {
			return fmt.Errorf("parent account %s not registered", newParent)
		}
		if id == newParent || t.isDescendant(newParent, id) {
			return CycleError{AccountID: id, ParentID: newParent}
		}
	}
	if t.siblingCodeTaken(newParent, n.account.Code, id) {
		return DuplicateCodeError{ParentID: newParent, Code: n.account.Code}
	}
	if newParent == uuid.Nil && !n.account.IsRoot() {
		// Promoting to root: the node must carry a type of its own.
		typ, err := t.EffectiveType(id)
		if err != nil {
			return err
		}
		n.account.Type = typ
	}
	if newParent != uuid.Nil && n.account.IsRoot() {
		// Demoting a root: the inherited type takes over.
		n.account.Type = ""
	}

	t.detach(id, n.account.ParentID)
	n.account.ParentID = newParent
	t.attach(id, newParent)
	return nil
}

// Remove deletes an account that has no children. Callers are
// responsible for checking that no legs reference it.
func (t *Tree) Remove(id uuid.UUID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("account %s not registered", id)
	}
	if len(n.children) > 0 {
		return fmt.Errorf("account %s has %d children", id, len(n.children))
	}
	t.detach(id, n.account.ParentID)
	delete(t.nodes, id)
	return nil
}

// Len returns the number of registered accounts.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) findByCode(id uuid.UUID, prefix, want string) (model.Account, bool) {
	n := t.nodes[id]
	code := prefix + n.account.Code
	if code == want {
		return n.account, true
	}
	if len(code) >= len(want) {
		return model.Account{}, false
	}
	for _, childID := range n.children {
		if a, ok := t.findByCode(childID, code, want); ok {
			return a, true
		}
	}
	return model.Account{}, false
}

func (t *Tree) isDescendant(id, ancestor uuid.UUID) bool {
	cur := t.nodes[id].account.ParentID
	for cur != uuid.Nil {
		if cur == ancestor {
			return true
		}
		cur = t.nodes[cur].account.ParentID
	}
	return false
}

func (t *Tree) siblingCodeTaken(parentID uuid.UUID, code string, exclude uuid.UUID) bool {
	for _, sibID := range t.childIDs(parentID) {
		if sibID == exclude {
			continue
		}
		if t.nodes[sibID].account.Code == code {
			return true
		}
	}
	return false
}

func (t *Tree) childIDs(parentID uuid.UUID) []uuid.UUID {
	if parentID == uuid.Nil {
		return t.roots
	}
	if n, ok := t.nodes[parentID]; ok {
		return n.children
	}
	return nil
}

func (t *Tree) attach(id, parentID uuid.UUID) {
	ids := append(t.childIDs(parentID), id)
	sort.Slice(ids, func(i, j int) bool {
		return t.nodes[ids[i]].account.Code < t.nodes[ids[j]].account.Code
	})
	if parentID == uuid.Nil {
		t.roots = ids
	} else {
		t.nodes[parentID].children = ids
	}
}

func (t *Tree) detach(id, parentID uuid.UUID) {
	ids := t.childIDs(parentID)
	for i, cur := range ids {
		if cur == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if parentID == uuid.Nil {
		t.roots = ids
	} else {
		t.nodes[parentID].children = ids
	}
}
