package compiler

import orderedmap "github.com/wk8/go-ordered-map/v2"

// scopeStack implements the name-resolution algorithm from
// _examples/original_source/mwel/compiler.py's _scopes/_closures quartet
// verbatim (see DESIGN.md): scopes[0] is always the innermost lexical
// scope, growing as functions and compound-call clauses are entered.
type scopeStack struct {
	scopes   []map[string]bool
	closures []*closureFrame
}

type closureFrame struct {
	level int // len(scopes)-1 at the moment this closure was opened
	names *orderedmap.OrderedMap[string, int]
}

func newScopeStack() *scopeStack {
	return &scopeStack{}
}

func (s *scopeStack) pushScope() {
	s.scopes = append([]map[string]bool{{}}, s.scopes...)
}

func (s *scopeStack) popScope() {
	s.scopes = s.scopes[1:]
}

func (s *scopeStack) addLocal(name string) {
	s.scopes[0][name] = true
}

func (s *scopeStack) pushClosure() *closureFrame {
	cf := &closureFrame{
		level: len(s.scopes) - 1,
		names: orderedmap.New[string, int](),
	}
	s.closures = append(s.closures, cf)
	return cf
}

func (s *scopeStack) popClosure() *closureFrame {
	n := len(s.closures) - 1
	cf := s.closures[n]
	s.closures = s.closures[:n]
	return cf
}

// nameDepth returns the innermost scope depth (0 = local) at which name
// is defined, or ok=false if it is not defined in any open scope (i.e.
// it is a global).
func (s *scopeStack) nameDepth(name string) (depth int, ok bool) {
	for d, scope := range s.scopes {
		if scope[name] {
			return d, true
		}
	}
	return 0, false
}

// inClosure decides whether a name found at depth must be captured as
// a closure variable rather than read directly as a non-local, and
// records the relative depth into every intervening open function's
// closure map when it does. This is a direct port of _in_closure,
// including its dropwhile-based prefix trim and the sign flip applied
// to every closure frame after the first.
func (s *scopeStack) inClosure(name string, depth int) bool {
	if len(s.closures) == 0 {
		return false
	}
	innermost := s.closures[len(s.closures)-1]
	if _, ok := innermost.names.Get(name); ok {
		return true
	}

	nameLevel := len(s.scopes) - depth - 1

	type rel struct {
		relDepth int
		names    *orderedmap.OrderedMap[string, int]
	}
	var rels []rel
	dropping := true
	for _, cf := range s.closures {
		r := cf.level - nameLevel - 1
		if dropping && r < 0 {
			continue
		}
		dropping = false
		rels = append(rels, rel{r, cf.names})
	}
	if len(rels) == 0 {
		return false
	}

	for index, r := range rels {
		sign := 1
		if index > 0 {
			sign = -1
		}
		r.names.Set(name, r.relDepth*sign)
	}
	return true
}

// loadName resolves an identifier read per spec.md §4.3's four-way
// dispatch: global, local, closure, or nonlocal.
func (c *Compiler) loadName(line, col int, name string) {
	depth, found := c.scopes.nameDepth(name)
	switch {
	case !found:
		c.emit(LOAD_GLOBAL, line, col, name)
	case depth == 0:
		c.emit(LOAD_LOCAL, line, col, name)
	case c.scopes.inClosure(name, depth):
		c.emit(LOAD_CLOSURE, line, col, name)
	default:
		c.emit(LOAD_NONLOCAL, line, col, name, depth)
	}
}

func (c *Compiler) storeName(line, col int, name string) {
	depth, found := c.scopes.nameDepth(name)
	switch {
	case !found:
		c.emit(STORE_GLOBAL, line, col, name)
	case depth == 0:
		c.emit(STORE_LOCAL, line, col, name)
	case c.scopes.inClosure(name, depth):
		c.emit(STORE_CLOSURE, line, col, name)
	default:
		c.emit(STORE_NONLOCAL, line, col, name, depth)
	}
}

// newLocal installs name as a local of the innermost scope and emits
// INIT_LOCAL, consuming the value already on top of the stack.
func (c *Compiler) newLocal(line, col int, name string) {
	c.scopes.addLocal(name)
	c.emit(INIT_LOCAL, line, col, name)
}
