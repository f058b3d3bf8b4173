package yangmodel

import "fmt"

// Validate implements a single traversal driven by the schema
// tree, dispatched by SchemaNode.Kind, raising the first SchemaError
// (scope=syntax) or SemanticError (scope=semantics) encountered. Both
// root-level and subtree validation call validateNode directly, so the two
// are definitionally identical.
func Validate(focus *Focus, scope ValidationScope, content ContentType) error {
	return validateNode(focus, scope, content)
}

// contentVisits reports whether a schema node's content classification
// participates in the requested content-type filter.
func contentVisits(n *SchemaNode, content ContentType) bool {
	switch content {
	case ContentConfig:
		return n.Content == ContentConfig || n.Content == ContentAll
	case ContentNonConfig:
		return n.Content == ContentNonConfig || n.Content == ContentAll
	default:
		return true
	}
}

func validateNode(f *Focus, scope ValidationScope, content ContentType) error {
	n := f.Schema
	if !contentVisits(n, content) {
		return nil
	}
	if n.When != nil && !whenHolds(n.When, f) {
		// A when-gated node with a value present is itself the violation;
		// absent is simply treated as absent.
		return &SchemaError{Path: f.FormatRoute(), Tag: TagMissingData, Message: "when condition is false"}
	}

	n.IncrementValidationCount()

	switch n.Kind {
	case SNContainer, SNSchemaRoot, SNGroup:
		if err := validateContainer(f, scope, content); err != nil {
			return err
		}
	case SNList:
		if err := validateList(f, scope, content); err != nil {
			return err
		}
	case SNLeafList:
		if err := validateLeafList(f, scope, content); err != nil {
			return err
		}
	case SNLeaf:
		if err := validateLeaf(f, scope, content); err != nil {
			return err
		}
	case SNChoice:
		if err := validateChoice(f, scope, content); err != nil {
			return err
		}
	case SNAnydata, SNAnyxml:
		// accept any value structure
	}

	if scope == ScopeSemantics || scope == ScopeAll {
		for _, m := range n.Must {
			ok, err := mustHolds(m, f)
			if err != nil {
				return err
			}
			if !ok {
				tag, msg := m.ErrorTag, m.ErrorMessage
				if tag == "" {
					tag = TagMustViolation
				}
				if msg == "" {
					msg = fmt.Sprintf("must condition %q failed", m.Source)
				}
				return &SemanticError{Path: f.FormatRoute(), Tag: tag, Message: msg}
			}
		}
	}
	return nil
}

func validateContainer(f *Focus, scope ValidationScope, content ContentType) error {
	if f.Value.Kind != ValObject {
		return &SchemaError{Path: f.FormatRoute(), Tag: TagInvalidType, Message: "expected an object"}
	}
	if scope == ScopeSyntax || scope == ScopeAll {
		for _, name := range f.Value.Object.Names() {
			if resolveDataChildByInstanceName(f.Schema, name) == nil {
				return &SchemaError{Path: f.FormatRoute(), Tag: TagMemberNotAllowed, Message: fmt.Sprintf("member %q is not allowed here", name)}
			}
		}
	}
	for _, child := range f.Schema.DataChildren() {
		if !contentVisits(child, content) {
			continue
		}
		_, present := f.Value.Object.Get(child.Name.Local)
		if present {
			cf, err := f.Member(child.Name.Local)
			if err != nil {
				return err
			}
			if err := validateNode(cf, scope, content); err != nil {
				return err
			}
			continue
		}
		if (scope == ScopeSyntax || scope == ScopeAll) && isMandatory(child) && whenHolds(child.When, f) {
			return &SchemaError{Path: f.FormatRoute(), Tag: TagMissingData, Message: fmt.Sprintf("mandatory node %q is missing", child.Name)}
		}
	}
	return nil
}

func resolveDataChildByInstanceName(n *SchemaNode, instanceName string) *SchemaNode {
	prefix, local := SplitPrefixed(instanceName)
	for _, c := range n.DataChildren() {
		if c.Name.Local != local {
			continue
		}
		if prefix == "" || prefix == c.Name.Module {
			return c
		}
	}
	return nil
}

func isMandatory(n *SchemaNode) bool {
	switch n.Kind {
	case SNLeaf:
		return n.Leaf.Mandatory
	case SNList:
		return n.List.MinElements > 0
	case SNLeafList:
		return n.LeafList.MinElements > 0
	case SNChoice:
		return n.Choice.Mandatory
	case SNContainer:
		return n.Container != nil && !n.Container.Presence && hasMandatoryDescendant(n)
	default:
		return false
	}
}

// hasMandatoryDescendant reports whether a non-presence container has a
// mandatory descendant, which makes the container itself effectively
// mandatory per YANG §7.5.7.
func hasMandatoryDescendant(n *SchemaNode) bool {
	for _, c := range n.DataChildren() {
		if isMandatory(c) {
			return true
		}
	}
	return false
}

func validateList(f *Focus, scope ValidationScope, content ContentType) error {
	if f.Value.Kind != ValArray {
		return &SchemaError{Path: f.FormatRoute(), Tag: TagInvalidType, Message: "expected an array"}
	}
	n := f.Value.Array.Len()
	if scope == ScopeSemantics || scope == ScopeAll {
		if f.Schema.List.MinElements > 0 && n < f.Schema.List.MinElements {
			return &SemanticError{Path: f.FormatRoute(), Tag: TagTooFewElements, Message: "too few list entries"}
		}
		if f.Schema.List.MaxElements >= 0 && n > f.Schema.List.MaxElements {
			return &SemanticError{Path: f.FormatRoute(), Tag: TagTooManyElements, Message: "too many list entries"}
		}
	}

	seenKeys := map[string]bool{}
	uniqueSeen := make([]map[string]bool, len(f.Schema.List.UniqueGroups))
	for i := range uniqueSeen {
		uniqueSeen[i] = map[string]bool{}
	}

	for i := 0; i < n; i++ {
		e, err := f.Entry(i)
		if err != nil {
			return err
		}
		if e.Value.Kind != ValObject {
			return &SchemaError{Path: e.FormatRoute(), Tag: TagInvalidType, Message: "expected a list entry object"}
		}
		if scope == ScopeSyntax || scope == ScopeAll {
			for _, k := range f.Schema.List.Keys {
				if _, ok := e.Value.Object.Get(k.Local); !ok {
					return &SchemaError{Path: e.FormatRoute(), Tag: TagListKeyMissing, Message: fmt.Sprintf("key %q is missing", k.Local)}
				}
			}
		}
		if scope == ScopeSemantics || scope == ScopeAll {
			key := canonicalKeyString(f.Schema, e)
			if seenKeys[key] {
				return &SemanticError{Path: f.FormatRoute(), Tag: TagNonUniqueKey, Message: key}
			}
			seenKeys[key] = true

			for gi, group := range f.Schema.List.UniqueGroups {
				val, complete := uniqueGroupValue(f.Schema, e, group)
				if !complete {
					// vacuously satisfied: the value is missing because its
					// governing case is not instantiated.
					continue
				}
				if uniqueSeen[gi][val] {
					return &SemanticError{Path: f.FormatRoute(), Tag: TagDataNotUnique, Message: val}
				}
				uniqueSeen[gi][val] = true
			}
		}
		if err := validateContainer(e, scope, content); err != nil {
			return err
		}
	}
	return nil
}

func canonicalKeyString(n *SchemaNode, e *Focus) string {
	s := ""
	for _, k := range n.List.Keys {
		v, _ := e.Value.Object.Get(k.Local)
		child := n.Child(k)
		s += child.Leaf.Type.CanonicalString(v) + "\x00"
	}
	return s
}

func uniqueGroupValue(listSchema *SchemaNode, e *Focus, group []DataRoute) (string, bool) {
	s := ""
	for _, route := range group {
		v, ok := peekRoute(listSchema, e, route)
		if !ok {
			return "", false
		}
		s += v + "\x01"
	}
	return s, true
}

// peekRoute walks a data route (which may pass through choice/case
// boundaries transparently in the schema but must be followed explicitly
// in the instance tree) from e, returning the canonical string of the
// leaf at the end.
func peekRoute(schema *SchemaNode, e *Focus, route DataRoute) (string, bool) {
	cur := e
	sn := schema
	for _, q := range route {
		child := sn.Child(q)
		if child == nil {
			return "", false
		}
		if cur.Value.Kind != ValObject {
			return "", false
		}
		_, ok := cur.Value.Object.Get(q.Local)
		if !ok {
			return "", false
		}
		nf, err := cur.Member(q.Local)
		if err != nil {
			return "", false
		}
		cur, sn = nf, child
	}
	if sn.Kind != SNLeaf {
		return "", false
	}
	return sn.Leaf.Type.CanonicalString(cur.Value), true
}

func validateLeafList(f *Focus, scope ValidationScope, content ContentType) error {
	if f.Value.Kind != ValArray {
		return &SchemaError{Path: f.FormatRoute(), Tag: TagInvalidType, Message: "expected an array"}
	}
	n := f.Value.Array.Len()
	if scope == ScopeSemantics || scope == ScopeAll {
		if f.Schema.LeafList.MinElements > 0 && n < f.Schema.LeafList.MinElements {
			return &SemanticError{Path: f.FormatRoute(), Tag: TagTooFewElements, Message: "too few leaf-list entries"}
		}
		if f.Schema.LeafList.MaxElements >= 0 && n > f.Schema.LeafList.MaxElements {
			return &SemanticError{Path: f.FormatRoute(), Tag: TagTooManyElements, Message: "too many leaf-list entries"}
		}
		if f.Schema.Content == ContentConfig || f.Schema.Content == ContentAll {
			seen := map[string]bool{}
			for _, v := range f.Value.Array.Entries() {
				s := f.Schema.LeafList.Type.CanonicalString(v)
				if seen[s] {
					return &SemanticError{Path: f.FormatRoute(), Tag: TagRepeatedLeafListValues, Message: s}
				}
				seen[s] = true
			}
		}
	}
	for i := 0; i < n; i++ {
		e, err := f.Entry(i)
		if err != nil {
			return err
		}
		if err := checkLeafType(e, f.Schema.LeafList.Type); err != nil {
			return err
		}
		if scope == ScopeSemantics || scope == ScopeAll {
			if err := checkInstanceIntegrity(e, f.Schema.LeafList.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLeaf(f *Focus, scope ValidationScope, content ContentType) error {
	dt := f.Schema.Leaf.Type
	if scope == ScopeSyntax || scope == ScopeAll {
		if err := checkLeafType(f, dt); err != nil {
			return err
		}
	}
	if scope == ScopeSemantics || scope == ScopeAll {
		if err := checkInstanceIntegrity(f, dt); err != nil {
			return err
		}
	}
	return nil
}

func checkLeafType(f *Focus, dt *DataType) error {
	if !dt.Contains(f.Value) {
		tag, msg := dt.ErrorTag, dt.ErrorMessage
		if tag == "" {
			tag = TagInvalidType
		}
		if msg == "" {
			msg = fmt.Sprintf("value does not satisfy type %s", dt.Kind)
		}
		return &SchemaError{Path: f.FormatRoute(), Tag: tag, Message: msg}
	}
	return nil
}

// checkInstanceIntegrity implements the leafref/instance-identifier
// require-instance check, including through
// a union's leafref/instance-identifier members.
func checkInstanceIntegrity(f *Focus, dt *DataType) error {
	switch dt.Kind {
	case KindLeafref:
		return checkLeafrefIntegrity(f, dt)
	case KindInstanceIdentifier:
		return checkInstanceIdentifierIntegrity(f, dt)
	case KindUnion:
		for _, m := range dt.UnionMembers {
			if m.Contains(f.Value) {
				return checkInstanceIntegrity(f, m)
			}
		}
	}
	return nil
}

func checkLeafrefIntegrity(f *Focus, dt *DataType) error {
	if !dt.RequireInstance || dt.LeafrefCompiledPath == nil {
		return nil
	}
	targetType := dt.LeafrefResolvedType
	if targetType == nil {
		targetType = dt
	}
	want := targetType.CanonicalString(f.Value)
	nodeset, err := dt.LeafrefCompiledPath.Evaluate(f)
	if err != nil {
		return err
	}
	for _, n := range nodeset.Nodes {
		if targetType.CanonicalString(n.Value) == want {
			return nil
		}
	}
	return &SemanticError{Path: f.FormatRoute(), Tag: TagInstanceRequired, Message: "leafref target does not exist"}
}

func checkInstanceIdentifierIntegrity(f *Focus, dt *DataType) error {
	if !dt.RequireInstance || f.Value.Kind != ValInstanceID {
		return nil
	}
	root := f.Top(f.Timestamp)
	if _, ok := root.Peek(f.Value.Route); !ok {
		return &SemanticError{Path: f.FormatRoute(), Tag: TagInstanceRequired, Message: "instance-identifier target does not exist"}
	}
	return nil
}

func validateChoice(f *Focus, scope ValidationScope, content ContentType) error {
	var activeCase *SchemaNode
	for _, c := range f.Schema.Children {
		if c.Kind != SNCase {
			continue
		}
		if caseIsActive(c, f) {
			if activeCase != nil && (scope == ScopeSyntax || scope == ScopeAll) {
				return &SchemaError{Path: f.FormatRoute(), Tag: TagMemberNotAllowed, Message: "more than one case of a choice is instantiated"}
			}
			activeCase = c
		}
	}
	if activeCase == nil {
		if (scope == ScopeSyntax || scope == ScopeAll) && f.Schema.Choice.Mandatory {
			return &SchemaError{Path: f.FormatRoute(), Tag: TagMissingData, Message: fmt.Sprintf("mandatory choice %q has no active case", f.Schema.Name)}
		}
		return nil
	}
	for _, child := range activeCase.DataChildren() {
		present := false
		if f.Value.Kind == ValObject {
			_, present = f.Value.Object.Get(child.Name.Local)
		}
		if present {
			cf, err := f.Member(child.Name.Local)
			if err != nil {
				return err
			}
			if err := validateNode(cf, scope, content); err != nil {
				return err
			}
		}
	}
	return nil
}

// caseIsActive reports whether any of c's descendant data nodes has an
// instance present under f.
func caseIsActive(c *SchemaNode, f *Focus) bool {
	if f.Value.Kind != ValObject {
		return false
	}
	for _, child := range c.DataChildren() {
		if _, ok := f.Value.Object.Get(child.Name.Local); ok {
			return true
		}
	}
	return false
}
