package yangmodel

// identityGraph is a directed graph over identity qualified names: per
// node, the set of base identities and the set of directly-derived
// identities. Transitive derivation is computed
// on demand; cycles are illegal and are caught at insertion time.
type identityGraph struct {
	bases   map[QName][]QName
	derived map[QName][]QName
}

func newIdentityGraph() *identityGraph {
	return &identityGraph{bases: map[QName][]QName{}, derived: map[QName][]QName{}}
}

// addIdentity registers id (introducing it if new) with the given base
// identities, wiring both directions. Returns a CyclicImportsError-shaped
// error (reused generically as a cycle report) if doing so would create a
// cycle.
func (g *identityGraph) addIdentity(id QName, bases []QName) error {
	g.bases[id] = append(g.bases[id], bases...)
	for _, b := range bases {
		g.derived[b] = append(g.derived[b], id)
	}
	if g.hasCycleFrom(id, map[QName]bool{}) {
		return &CyclicImportsError{Cycle: []string{id.String()}}
	}
	return nil
}

func (g *identityGraph) hasCycleFrom(start QName, visiting map[QName]bool) bool {
	if visiting[start] {
		return true
	}
	visiting[start] = true
	for _, b := range g.bases[start] {
		if g.hasCycleFrom(b, visiting) {
			return true
		}
	}
	delete(visiting, start)
	return false
}

// isDerivedFrom implements is_derived_from: a transitive derivation test,
// strict (child != ancestor unless reached via a base edge).
func (g *identityGraph) isDerivedFrom(child, ancestor QName) bool {
	for _, b := range g.bases[child] {
		if b == ancestor {
			return true
		}
		if g.isDerivedFrom(b, ancestor) {
			return true
		}
	}
	return false
}

// isDerivedFromOrSelf additionally accepts child == ancestor.
func (g *identityGraph) isDerivedFromOrSelf(child, ancestor QName) bool {
	return child == ancestor || g.isDerivedFrom(child, ancestor)
}

// IsDerivedFrom is the exported form used by the XPath derived-from()
// function and by identityref type-checking.
func (r *Registry) IsDerivedFrom(child, ancestor QName) bool {
	return r.identities.isDerivedFrom(child, ancestor)
}

// IsDerivedFromOrSelf is the exported form used by derived-from-or-self().
func (r *Registry) IsDerivedFromOrSelf(child, ancestor QName) bool {
	return r.identities.isDerivedFromOrSelf(child, ancestor)
}

// collectIdentities walks every implemented module's "identity"
// statements and registers them in the registry's identity graph. Must run
// before any leaf of type identityref is compiled (schema build step 1).
func (r *Registry) collectIdentities(implemented []ModuleID) error {
	for _, mid := range implemented {
		entry, ok := r.modules[mid]
		if !ok {
			continue
		}
		for _, id := range entry.Stmt.FindAll("identity") {
			ok, err := r.IfFeatures(id, mid)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			self := QName{Local: id.Argument, Module: mid.Module}
			var bases []QName
			for _, b := range id.FindAll("base") {
				loc, bmid, err := r.ResolvePName(b.Argument, mid)
				if err != nil {
					return err
				}
				bases = append(bases, QName{Local: loc, Module: bmid.Module})
			}
			if err := r.identities.addIdentity(self, bases); err != nil {
				return err
			}
		}
	}
	return nil
}
