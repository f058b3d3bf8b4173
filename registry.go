package yangmodel

import (
	"fmt"

	"github.com/golang/glog"
)

// moduleEntry is the registry's record for one (module, revision).
type moduleEntry struct {
	ID         ModuleID
	Stmt       *Statement
	Features   []QName // supported features
	MainModule ModuleID
	Prefixes   map[string]ModuleID
	Submodules map[string]bool
	Implement  bool
}

// Registry is the schema-data & name-resolution component. It
// is not a singleton: every RegisterModules call constructs a fresh
// Registry (see Design Notes: "Singleton data model").
type Registry struct {
	modules    map[ModuleID]*moduleEntry
	byName     map[string][]ModuleID // all known revisions per module name
	identities *identityGraph
}

// RegisterModules implements register_modules: for each module listed in
// the yang-library entry set, locate "name[@revision].yang" in the search
// directories, parse it, and stage it in the registry. Submodules listed
// under a module are recorded by name only; their files are not located or
// parsed. Import-cycle detection and the multiple-implemented-revisions
// check run after all listed modules are staged.
func RegisterModules(lib *YangLibrary, searchDirs []string) (*Registry, error) {
	r := &Registry{
		modules: map[ModuleID]*moduleEntry{},
		byName:  map[string][]ModuleID{},
	}
	implementedRevisions := map[string][]string{}

	for _, m := range lib.Modules {
		mid := ModuleID{Module: m.Name, Revision: m.Revision}
		_, data, err := findModuleFile(m.Name, m.Revision, searchDirs)
		if err != nil {
			return nil, err
		}
		stmt, err := ParseStatement(m.Name, string(data), m.Name, m.Revision)
		if err != nil {
			return nil, err
		}
		entry := &moduleEntry{
			ID: mid, Stmt: stmt, MainModule: mid,
			Prefixes:   map[string]ModuleID{},
			Submodules: map[string]bool{},
			Implement:  m.ConformanceType == "implement",
		}
		for _, feat := range m.Feature {
			entry.Features = append(entry.Features, QName{Local: feat, Module: m.Name})
		}
		for _, sub := range m.Submodule {
			entry.Submodules[sub.Name] = true
		}
		if entry.Implement {
			implementedRevisions[m.Name] = append(implementedRevisions[m.Name], m.Revision)
		}
		r.modules[mid] = entry
		r.byName[m.Name] = append(r.byName[m.Name], mid)
		glog.V(1).Infof("yangmodel: staged module %s (implement=%v)", mid, entry.Implement)
	}

	for name, revs := range implementedRevisions {
		if len(revs) > 1 {
			return nil, &MultipleImplementedRevisionsError{Module: name, Revisions: revs}
		}
	}

	// Resolve submodule belongs-to, and build each module's prefix map
	// from its own "prefix" statement plus import/include substatements.
	for mid, entry := range r.modules {
		if bt := entry.Stmt.Find("belongs-to"); bt != nil {
			entry.MainModule = ModuleID{Module: bt.Argument, Revision: r.lastRevisionLocked(bt.Argument)}
		}
		if err := r.buildPrefixMap(mid, entry); err != nil {
			return nil, err
		}
	}

	if err := r.checkImportCycles(); err != nil {
		return nil, err
	}

	r.identities = newIdentityGraph()
	return r, nil
}

func (r *Registry) buildPrefixMap(self ModuleID, entry *moduleEntry) error {
	if p := entry.Stmt.Find("prefix"); p != nil {
		entry.Prefixes[p.Argument] = self
	}
	for _, imp := range entry.Stmt.FindAll("import") {
		prefix := ""
		if p := imp.Find("prefix"); p != nil {
			prefix = p.Argument
		}
		rev := ""
		if rd := imp.Find("revision-date"); rd != nil {
			rev = rd.Argument
		} else {
			rev = r.lastRevisionLocked(imp.Argument)
		}
		target := ModuleID{Module: imp.Argument, Revision: rev}
		if _, ok := r.modules[target]; !ok {
			return &ModuleNotFoundError{Module: imp.Argument, Revision: rev}
		}
		if prefix != "" {
			entry.Prefixes[prefix] = target
		}
	}
	for _, inc := range entry.Stmt.FindAll("include") {
		rev := ""
		if rd := inc.Find("revision-date"); rd != nil {
			rev = rd.Argument
		} else {
			rev = r.lastRevisionLocked(inc.Argument)
		}
		entry.Submodules[inc.Argument] = true
		if sub, ok := r.modules[ModuleID{Module: inc.Argument, Revision: rev}]; ok {
			for k, v := range sub.Prefixes {
				if _, exists := entry.Prefixes[k]; !exists {
					entry.Prefixes[k] = v
				}
			}
		}
	}
	return nil
}

func (r *Registry) checkImportCycles() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var stack []string
	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			cycle := append(append([]string{}, stack...), name)
			return &CyclicImportsError{Cycle: cycle}
		}
		color[name] = gray
		stack = append(stack, name)
		mid := ModuleID{Module: name, Revision: r.lastRevisionLocked(name)}
		if entry, ok := r.modules[mid]; ok {
			for _, imp := range entry.Stmt.FindAll("import") {
				if err := visit(imp.Argument); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}
	for name := range r.byName {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// lastRevisionLocked implements last_revision without locking (the
// registry is built single-threaded and immutable thereafter, per spec
// §5).
func (r *Registry) lastRevisionLocked(module string) string {
	best := ""
	for _, mid := range r.byName[module] {
		if mid.Revision > best {
			best = mid.Revision
		}
	}
	return best
}

// LastRevision returns the most recent revision known for module, or ""
// if none or if it has no revision date.
func (r *Registry) LastRevision(module string) string { return r.lastRevisionLocked(module) }

// prefixToModuleID implements prefix_to_module_id.
func (r *Registry) prefixToModuleID(prefix string, context ModuleID) (ModuleID, error) {
	entry, ok := r.modules[context]
	if !ok {
		return ModuleID{}, &UnknownPrefixError{Prefix: prefix, Context: context.Module}
	}
	mid, ok := entry.Prefixes[prefix]
	if !ok {
		return ModuleID{}, &UnknownPrefixError{Prefix: prefix, Context: context.Module}
	}
	return mid, nil
}

// PrefixToModuleID is the exported form of prefix_to_module_id.
func (r *Registry) PrefixToModuleID(prefix string, context ModuleID) (ModuleID, error) {
	return r.prefixToModuleID(prefix, context)
}

// ResolvePName implements resolve_pname: returns (local_name,
// defining_module_id) for a "[prefix:]local" name evaluated in context.
func (r *Registry) ResolvePName(prefixed string, context ModuleID) (local string, mid ModuleID, err error) {
	prefix, loc := SplitPrefixed(prefixed)
	if prefix == "" {
		return loc, context, nil
	}
	mid, err = r.prefixToModuleID(prefix, context)
	if err != nil {
		return "", ModuleID{}, err
	}
	return loc, mid, nil
}

// TranslatePName implements translate_pname: returns the qualified name
// for a "[prefix:]local" name evaluated in context.
func (r *Registry) TranslatePName(prefixed string, context ModuleID) (QName, error) {
	loc, mid, err := r.ResolvePName(prefixed, context)
	if err != nil {
		return QName{}, err
	}
	return QName{Local: loc, Module: mid.Module}, nil
}

// GetDefinition implements get_definition: finds the grouping/typedef
// statement named by a uses/type statement, searching the lexically
// enclosing scope chain of context outward, then imported modules.
func (r *Registry) GetDefinition(kind, name string, context *Statement, contextModule ModuleID) (*Statement, ModuleID, error) {
	wantKeyword := "typedef"
	if kind == "grouping" {
		wantKeyword = "grouping"
	}
	prefix, local := SplitPrefixed(name)
	if prefix == "" {
		for s := context; s != nil; s = s.Parent {
			for _, c := range s.Sub {
				if c.Keyword == wantKeyword && c.Argument == local {
					return c, contextModule, nil
				}
			}
		}
		return nil, ModuleID{}, &DefinitionNotFoundError{Kind: kind, Name: name}
	}
	mid, err := r.prefixToModuleID(prefix, contextModule)
	if err != nil {
		return nil, ModuleID{}, err
	}
	entry, ok := r.modules[mid]
	if !ok {
		return nil, ModuleID{}, &DefinitionNotFoundError{Kind: kind, Name: name}
	}
	if d := entry.Stmt.Find(wantKeyword); d != nil && d.Argument == local {
		return d, mid, nil
	}
	for _, c := range entry.Stmt.Sub {
		if c.Keyword == wantKeyword && c.Argument == local {
			return c, mid, nil
		}
	}
	return nil, ModuleID{}, &DefinitionNotFoundError{Kind: kind, Name: name}
}

// IfFeatures implements if_features: evaluates all if-feature
// substatements of stmt and returns true iff all hold.
func (r *Registry) IfFeatures(stmt *Statement, contextModule ModuleID) (bool, error) {
	for _, iff := range stmt.FindAll("if-feature") {
		expr, err := parseFeatureExpr(iff.Argument)
		if err != nil {
			if fe, ok := err.(*InvalidFeatureExpressionError); ok {
				fe.Expr = iff.Argument
			}
			return false, err
		}
		if !expr.eval(featureSupported(r, contextModule)) {
			return false, nil
		}
	}
	return true, nil
}

// ValidateFeaturePrerequisites checks that every feature's own if-feature
// substatements reference already-supported features.
func (r *Registry) ValidateFeaturePrerequisites() error {
	for mid, entry := range r.modules {
		for _, feat := range entry.Stmt.FindAll("feature") {
			for _, iff := range feat.FindAll("if-feature") {
				expr, err := parseFeatureExpr(iff.Argument)
				if err != nil {
					return err
				}
				if !expr.eval(featureSupported(r, mid)) {
					return &FeaturePrerequisiteError{Feature: feat.Argument, Prerequisite: iff.Argument}
				}
			}
		}
	}
	return nil
}

// ImplementedModules returns the ModuleIDs of all modules staged with
// conformance-type "implement", in registration order as given to
// RegisterModules.
func (r *Registry) ImplementedModules(lib *YangLibrary) []ModuleID {
	var out []ModuleID
	for _, m := range lib.Modules {
		if m.ConformanceType == "implement" {
			out = append(out, ModuleID{Module: m.Name, Revision: m.Revision})
		}
	}
	return out
}

// Module returns the parsed statement tree for mid, or an error.
func (r *Registry) Module(mid ModuleID) (*Statement, error) {
	entry, ok := r.modules[mid]
	if !ok {
		return nil, fmt.Errorf("yangmodel: module %s not registered", mid)
	}
	return entry.Stmt, nil
}

func (r *Registry) mainModuleOf(mid ModuleID) ModuleID {
	if e, ok := r.modules[mid]; ok {
		return e.MainModule
	}
	return mid
}
