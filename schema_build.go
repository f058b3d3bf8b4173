package yangmodel

import "strings"

// BuildSchema implements the schema tree builder of spec §4.3, walking the
// implemented modules in the order given and producing one SchemaRoot tree
// over all of them, the way the teacher's buildRootSchema synthesizes a
// single fake root entry over every loaded module.
func (r *Registry) BuildSchema(implemented []ModuleID) (*SchemaNode, error) {
	if err := r.collectIdentities(implemented); err != nil {
		return nil, err
	}

	root := &SchemaNode{Kind: SNSchemaRoot, Name: QName{Local: "/"}}
	b := &schemaBuilder{registry: r}

	for _, mid := range implemented {
		stmt, err := r.Module(mid)
		if err != nil {
			return nil, err
		}
		if err := b.buildDataDefinitions(root, stmt.Sub, mid); err != nil {
			return nil, err
		}
	}

	for _, mid := range implemented {
		stmt, err := r.Module(mid)
		if err != nil {
			return nil, err
		}
		for _, aug := range stmt.FindAll("augment") {
			if err := b.applyAugment(root, aug, mid); err != nil {
				return nil, err
			}
		}
	}

	for _, mid := range implemented {
		stmt, err := r.Module(mid)
		if err != nil {
			return nil, err
		}
		for _, dev := range stmt.FindAll("deviation") {
			if err := b.applyDeviation(root, dev, mid); err != nil {
				return nil, err
			}
		}
	}

	if err := b.resolveLeafrefs(root); err != nil {
		return nil, err
	}
	return root, nil
}

// schemaBuilder carries the registry plus the module-scoped state threaded
// through one schema-tree construction pass.
type schemaBuilder struct {
	registry *Registry
}

// buildDataDefinitions appends schema children for a run of sibling
// statements (module top-level, or a container/list/etc.'s own
// substatements) under parent, in document order step 2.
func (b *schemaBuilder) buildDataDefinitions(parent *SchemaNode, stmts []*Statement, contextModule ModuleID) error {
	for _, s := range stmts {
		if !dataDefinitionKeywords[s.Keyword] {
			continue
		}
		ok, err := b.registry.IfFeatures(s, contextModule)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if s.Keyword == "uses" {
			if err := b.expandUses(parent, s, contextModule); err != nil {
				return err
			}
			continue
		}
		if _, err := b.buildNode(parent, s, contextModule); err != nil {
			return err
		}
	}
	return nil
}

// buildNode constructs one schema node (and recursively its own children)
// from a single data-definition statement, grounded in the teacher's
// buildSchemaNode (parent linking, config inheritance, recursive descent
// over substatements), re-targeted at our own Statement input.
func (b *schemaBuilder) buildNode(parent *SchemaNode, s *Statement, contextModule ModuleID) (*SchemaNode, error) {
	local := s.Argument
	n := &SchemaNode{
		Name:   QName{Local: local, Module: contextModule.Module},
		Parent: parent,
	}
	if d := s.Find("description"); d != nil {
		n.Description = d.Argument
	}
	if rf := s.Find("reference"); rf != nil {
		n.Reference = rf.Argument
	}
	n.Status = StatusCurrent
	if st := s.Find("status"); st != nil {
		n.Status = ParseStatus(st.Argument)
	}
	n.Content = b.inheritedContent(parent, s)

	switch s.Keyword {
	case "container":
		n.Kind = SNContainer
		n.Container = &ContainerInfo{Presence: s.Find("presence") != nil}
	case "list":
		n.Kind = SNList
		info := &ListInfo{MaxElements: -1}
		if k := s.Find("key"); k != nil {
			for _, kw := range ArgWords(k.Argument) {
				_, loc := SplitPrefixed(kw)
				info.Keys = append(info.Keys, QName{Local: loc, Module: contextModule.Module})
			}
		}
		for _, u := range s.FindAll("unique") {
			var group []DataRoute
			for _, arg := range ArgWords(u.Argument) {
				group = append(group, b.parseSchemaNodeIDToRoute(arg, contextModule))
			}
			info.UniqueGroups = append(info.UniqueGroups, group)
		}
		parseMinMax(s, &info.MinElements, &info.MaxElements)
		if ob := s.Find("ordered-by"); ob != nil {
			info.UserOrdered = ob.Argument == "user"
		}
		n.List = info
	case "leaf-list":
		n.Kind = SNLeafList
		info := &LeafListInfo{MaxElements: -1}
		parseMinMax(s, &info.MinElements, &info.MaxElements)
		if ob := s.Find("ordered-by"); ob != nil {
			info.UserOrdered = ob.Argument == "user"
		}
		typeStmt := s.Find("type")
		if typeStmt == nil {
			return nil, &InvalidStatementError{Pos: s.Pos, Reason: "leaf-list without type"}
		}
		dt, err := b.registry.CompileType(typeStmt, contextModule)
		if err != nil {
			return nil, err
		}
		info.Type = dt
		for _, d := range s.FindAll("default") {
			v, err := dt.ParseValue(d.Argument)
			if err != nil {
				return nil, err
			}
			info.Defaults = append(info.Defaults, v)
		}
		if u := s.Find("units"); u != nil {
			info.Units = u.Argument
		}
		n.LeafList = info
	case "leaf":
		n.Kind = SNLeaf
		typeStmt := s.Find("type")
		if typeStmt == nil {
			return nil, &InvalidStatementError{Pos: s.Pos, Reason: "leaf without type"}
		}
		dt, err := b.registry.CompileType(typeStmt, contextModule)
		if err != nil {
			return nil, err
		}
		info := &LeafInfo{Type: dt}
		if d := s.Find("default"); d != nil {
			v, err := dt.ParseValue(d.Argument)
			if err != nil {
				return nil, err
			}
			info.Default, info.HasDefault = v, true
		} else if dt.HasDefault {
			info.Default, info.HasDefault = dt.Default, true
		}
		if m := s.Find("mandatory"); m != nil {
			info.Mandatory = m.Argument == "true"
		}
		if u := s.Find("units"); u != nil {
			info.Units = u.Argument
		}
		n.Leaf = info
	case "choice":
		n.Kind = SNChoice
		info := &ChoiceInfo{}
		if d := s.Find("default"); d != nil {
			_, loc := SplitPrefixed(d.Argument)
			info.DefaultCase, info.HasDefaultCase = QName{Local: loc, Module: contextModule.Module}, true
		}
		if m := s.Find("mandatory"); m != nil {
			info.Mandatory = m.Argument == "true"
		}
		n.Choice = info
	case "case":
		n.Kind = SNCase
	case "anydata":
		n.Kind = SNAnydata
	case "anyxml":
		n.Kind = SNAnyxml
	case "rpc", "action":
		n.Kind = SNRpcAction
	case "notification":
		n.Kind = SNNotification
	default:
		return nil, &InvalidStatementError{Pos: s.Pos, Reason: "unsupported data-definition keyword " + s.Keyword}
	}

	if w := s.Find("when"); w != nil {
		expr, err := CompileXPath(w.Argument, b.registry, contextModule)
		if err != nil {
			return nil, err
		}
		n.When = expr
	}
	for _, m := range s.FindAll("must") {
		expr, err := CompileXPath(m.Argument, b.registry, contextModule)
		if err != nil {
			return nil, err
		}
		mc := MustConstraint{Expr: expr, Source: m.Argument}
		if t := m.Find("error-app-tag"); t != nil {
			mc.ErrorTag = ErrorTag(t.Argument)
		}
		if msg := m.Find("error-message"); msg != nil {
			mc.ErrorMessage = msg.Argument
		}
		n.Must = append(n.Must, mc)
	}

	parent.Children = append(parent.Children, n)

	switch s.Keyword {
	case "container", "list", "choice", "case", "rpc", "action", "notification":
		if err := b.buildNode2Children(n, s, contextModule); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// buildNode2Children descends into a structural node's own substatements,
// including the synthetic input/output wrapping of rpc/action.
func (b *schemaBuilder) buildNode2Children(n *SchemaNode, s *Statement, contextModule ModuleID) error {
	switch n.Kind {
	case SNRpcAction:
		if in := s.Find("input"); in != nil {
			inNode := &SchemaNode{Kind: SNInput, Name: QName{Local: "input", Module: contextModule.Module}, Parent: n, Content: ContentConfig}
			n.Children = append(n.Children, inNode)
			if err := b.buildDataDefinitions(inNode, in.Sub, contextModule); err != nil {
				return err
			}
		}
		if out := s.Find("output"); out != nil {
			outNode := &SchemaNode{Kind: SNOutput, Name: QName{Local: "output", Module: contextModule.Module}, Parent: n, Content: ContentConfig}
			n.Children = append(n.Children, outNode)
			if err := b.buildDataDefinitions(outNode, out.Sub, contextModule); err != nil {
				return err
			}
		}
		return nil
	default:
		return b.buildDataDefinitions(n, s.Sub, contextModule)
	}
}

// inheritedContent implements spec §4.3's config-inheritance rule: choice
// and case nodes have no config status of their own and simply inherit,
// everything else defaults to the parent's content type unless its own
// "config" substatement overrides it.
func (b *schemaBuilder) inheritedContent(parent *SchemaNode, s *Statement) ContentType {
	parentContent := ContentConfig
	if parent != nil {
		parentContent = parent.Content
	}
	if s.Keyword == "choice" || s.Keyword == "case" {
		return parentContent
	}
	if c := s.Find("config"); c != nil {
		if c.Argument == "false" {
			return ContentNonConfig
		}
		return ContentConfig
	}
	return parentContent
}

// expandUses inlines a grouping's data-definition substatements as
// children of parent, applying any refine/augment/if-feature substatements
// of the uses statement itself uses rule.
func (b *schemaBuilder) expandUses(parent *SchemaNode, uses *Statement, contextModule ModuleID) error {
	def, defModule, err := b.registry.GetDefinition("grouping", uses.Argument, uses, contextModule)
	if err != nil {
		return err
	}

	target := parent
	if w := uses.Find("when"); w != nil {
		expr, err := CompileXPath(w.Argument, b.registry, contextModule)
		if err != nil {
			return err
		}
		group := &SchemaNode{Kind: SNGroup, Name: QName{Local: "uses:" + uses.Argument}, Parent: parent, Content: parent.Content, When: expr}
		parent.Children = append(parent.Children, group)
		target = group
	}

	if err := b.buildDataDefinitions(target, def.Sub, defModule); err != nil {
		return err
	}
	for _, aug := range uses.FindAll("augment") {
		if err := b.applyAugment(target, aug, contextModule); err != nil {
			return err
		}
	}
	for _, refine := range uses.FindAll("refine") {
		if err := b.applyRefine(target, refine, contextModule); err != nil {
			return err
		}
	}
	return nil
}

// applyRefine implements the "refine" substatement of "uses": locate the
// named descendant relative to the uses's insertion point and narrow its
// default/description/min/max-elements/presence/mandatory/config, per
// YANG's per-property refine validity rules.
func (b *schemaBuilder) applyRefine(root *SchemaNode, refine *Statement, contextModule ModuleID) error {
	target := resolveDescendantPath(root, refine.Argument)
	if target == nil {
		return &NonexistentSchemaNodeError{Path: refine.Argument}
	}
	if d := refine.Find("description"); d != nil {
		target.Description = d.Argument
	}
	if c := refine.Find("config"); c != nil {
		if c.Argument == "false" {
			target.Content = ContentNonConfig
		} else {
			target.Content = ContentConfig
		}
	}
	switch target.Kind {
	case SNLeaf:
		if d := refine.Find("default"); d != nil {
			v, err := target.Leaf.Type.ParseValue(d.Argument)
			if err != nil {
				return err
			}
			target.Leaf.Default, target.Leaf.HasDefault = v, true
		}
		if m := refine.Find("mandatory"); m != nil {
			target.Leaf.Mandatory = m.Argument == "true"
		}
	case SNContainer:
		if refine.Find("presence") != nil {
			target.Container.Presence = true
		}
	case SNList:
		parseMinMax(refine, &target.List.MinElements, &target.List.MaxElements)
	case SNLeafList:
		parseMinMax(refine, &target.LeafList.MinElements, &target.LeafList.MaxElements)
	case SNChoice:
		if d := refine.Find("default"); d != nil {
			_, loc := SplitPrefixed(d.Argument)
			target.Choice.DefaultCase, target.Choice.HasDefaultCase = QName{Local: loc, Module: contextModule.Module}, true
		}
		if m := refine.Find("mandatory"); m != nil {
			target.Choice.Mandatory = m.Argument == "true"
		}
	}
	return nil
}

// applyAugment locates the absolute or uses-relative target path and
// inserts the augment's children there, wrapping them in a synthetic
// Group node when the augment itself carries a "when"
func (b *schemaBuilder) applyAugment(root *SchemaNode, aug *Statement, contextModule ModuleID) error {
	ok, err := b.registry.IfFeatures(aug, contextModule)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	target := resolveAbsoluteSchemaPath(root, aug.Argument, b.registry, contextModule)
	if target == nil {
		return &NonexistentSchemaNodeError{Path: aug.Argument}
	}
	insertionPoint := target
	if w := aug.Find("when"); w != nil {
		expr, err := CompileXPath(w.Argument, b.registry, contextModule)
		if err != nil {
			return err
		}
		group := &SchemaNode{Kind: SNGroup, Name: QName{Local: "augment:" + aug.Argument}, Parent: target, Content: target.Content, When: expr}
		target.Children = append(target.Children, group)
		insertionPoint = group
	}
	return b.buildDataDefinitions(insertionPoint, aug.Sub, contextModule)
}

// applyDeviation implements the subset of deviate actions that manipulate
// the schema tree shape and leaf/list/leaf-list properties: add, delete,
// replace, and not-supported (which removes the node outright), per spec
// §4.3 step 4 (deviations always applied last, registration order).
func (b *schemaBuilder) applyDeviation(root *SchemaNode, dev *Statement, contextModule ModuleID) error {
	target := resolveAbsoluteSchemaPath(root, dev.Argument, b.registry, contextModule)
	if target == nil {
		return &NonexistentSchemaNodeError{Path: dev.Argument}
	}
	for _, deviate := range dev.FindAll("deviate") {
		switch deviate.Argument {
		case "not-supported":
			removeSchemaChild(target)
			return nil
		case "add", "replace":
			if err := applyDeviateProperties(target, deviate); err != nil {
				return err
			}
		case "delete":
			clearDeviateProperties(target, deviate)
		}
	}
	return nil
}

func applyDeviateProperties(n *SchemaNode, deviate *Statement) error {
	if mx := deviate.Find("max-elements"); mx != nil {
		setMaxElements(n, parseMaxElementsArg(mx.Argument))
	}
	if mn := deviate.Find("min-elements"); mn != nil {
		setMinElements(n, parseIntArg(mn.Argument))
	}
	if n.Kind == SNLeaf {
		if d := deviate.Find("default"); d != nil {
			v, err := n.Leaf.Type.ParseValue(d.Argument)
			if err != nil {
				return err
			}
			n.Leaf.Default, n.Leaf.HasDefault = v, true
		}
		if m := deviate.Find("mandatory"); m != nil {
			n.Leaf.Mandatory = m.Argument == "true"
		}
	}
	if c := deviate.Find("config"); c != nil {
		if c.Argument == "false" {
			n.Content = ContentNonConfig
		} else {
			n.Content = ContentConfig
		}
	}
	return nil
}

func clearDeviateProperties(n *SchemaNode, deviate *Statement) {
	if deviate.Find("default") != nil && n.Kind == SNLeaf {
		n.Leaf.HasDefault = false
	}
	if deviate.Find("mandatory") != nil && n.Kind == SNLeaf {
		n.Leaf.Mandatory = false
	}
}

func setMaxElements(n *SchemaNode, v int) {
	switch n.Kind {
	case SNList:
		n.List.MaxElements = v
	case SNLeafList:
		n.LeafList.MaxElements = v
	}
}

func setMinElements(n *SchemaNode, v int) {
	switch n.Kind {
	case SNList:
		n.List.MinElements = v
	case SNLeafList:
		n.LeafList.MinElements = v
	}
}

func removeSchemaChild(n *SchemaNode) {
	p := n.Parent
	if p == nil {
		return
	}
	out := p.Children[:0]
	for _, c := range p.Children {
		if c != n {
			out = append(out, c)
		}
	}
	p.Children = out
}

// resolveLeafrefs walks the full tree after it is built, resolving every
// leafref type's compiled path and target node/type step 5.
func (b *schemaBuilder) resolveLeafrefs(root *SchemaNode) error {
	var walk func(n *SchemaNode) error
	walk = func(n *SchemaNode) error {
		switch n.Kind {
		case SNLeaf:
			if err := b.resolveLeafrefType(n.Leaf.Type, n); err != nil {
				return err
			}
		case SNLeafList:
			if err := b.resolveLeafrefType(n.LeafList.Type, n); err != nil {
				return err
			}
		}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

func (b *schemaBuilder) resolveLeafrefType(dt *DataType, owner *SchemaNode) error {
	if dt == nil {
		return nil
	}
	if dt.Kind == KindUnion {
		for _, m := range dt.UnionMembers {
			if err := b.resolveLeafrefType(m, owner); err != nil {
				return err
			}
		}
		return nil
	}
	if dt.Kind != KindLeafref || dt.LeafrefPath == "" {
		return nil
	}
	expr, err := CompileXPath(dt.LeafrefPath, b.registry, dt.DeclaringModule)
	if err != nil {
		return err
	}
	dt.LeafrefCompiledPath = expr
	target := resolveLeafrefTargetNode(owner, dt.LeafrefPath, b.registry, dt.DeclaringModule)
	if target == nil {
		return &NonexistentSchemaNodeError{Path: dt.LeafrefPath}
	}
	dt.LeafrefResolvedTarget = target
	switch target.Kind {
	case SNLeaf:
		dt.LeafrefResolvedType = target.Leaf.Type
	case SNLeafList:
		dt.LeafrefResolvedType = target.LeafList.Type
	}
	return nil
}

// --- path / argument parsing helpers ---

func parseMinMax(s *Statement, min, max *int) {
	if m := s.Find("min-elements"); m != nil {
		*min = parseIntArg(m.Argument)
	}
	if m := s.Find("max-elements"); m != nil {
		*max = parseMaxElementsArg(m.Argument)
	}
}

func parseIntArg(s string) int {
	n := 0
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func parseMaxElementsArg(s string) int {
	if s == "unbounded" {
		return -1
	}
	return parseIntArg(s)
}

// parseSchemaNodeIDToRoute parses a "unique" argument's descendant schema
// node id (a slash-separated, unprefixed-or-prefixed relative path) into a
// DataRoute. Each step is qualified with its defining module: the prefix's
// module if the step carries one, otherwise the list's own context module,
// so the route matches the QNames SchemaNode.Child compares against.
func (b *schemaBuilder) parseSchemaNodeIDToRoute(arg string, contextModule ModuleID) DataRoute {
	var route DataRoute
	for _, part := range splitSlashPath(arg) {
		prefix, loc := SplitPrefixed(part)
		module := contextModule.Module
		if prefix != "" {
			if mid, err := b.registry.PrefixToModuleID(prefix, contextModule); err == nil {
				module = mid.Module
			}
		}
		route = append(route, QName{Local: loc, Module: module})
	}
	return route
}

func splitSlashPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveDescendantPath walks a refine/uses-relative slash path ("a/b/c")
// down from root through data children only.
func resolveDescendantPath(root *SchemaNode, path string) *SchemaNode {
	cur := root
	for _, part := range splitSlashPath(path) {
		_, loc := SplitPrefixed(part)
		var next *SchemaNode
		for _, c := range cur.DataChildren() {
			if c.Name.Local == loc {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// resolveAbsoluteSchemaPath resolves an augment/deviation target-node
// absolute path ("/mod:a/b/mod2:c"), qualifying each unprefixed step
// against contextModule and each prefixed step via the registry.
func resolveAbsoluteSchemaPath(root *SchemaNode, path string, registry *Registry, contextModule ModuleID) *SchemaNode {
	cur := root
	for _, part := range splitSlashPath(path) {
		prefix, loc := SplitPrefixed(part)
		module := contextModule.Module
		if prefix != "" {
			mid, err := registry.PrefixToModuleID(prefix, contextModule)
			if err != nil {
				return nil
			}
			module = mid.Module
		}
		var next *SchemaNode
		for _, c := range cur.DataChildren() {
			if c.Name.Local == loc && (c.Name.Module == module || module == "") {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// resolveLeafrefTargetNode walks a leafref "path" argument (a restricted
// XPath subset: "../" ancestor steps then a chain of qualified node-name
// steps, or an absolute path from the schema root) to the schema node it
// designates, ignoring key predicates ("[key=...]") since only the target
// node's type is needed here, not predicate-level value matching (that is
// the job of the compiled XPathExpr evaluated against instance data).
func resolveLeafrefTargetNode(owner *SchemaNode, path string, registry *Registry, contextModule ModuleID) *SchemaNode {
	cur := owner
	rest := path
	if len(rest) > 0 && rest[0] == '/' {
		rest = rest[1:]
		for cur != nil && cur.Kind != SNSchemaRoot {
			cur = cur.Parent
		}
	}
	for {
		trimmed := trimLeadingDotDot(rest)
		if trimmed == rest {
			break
		}
		rest = trimmed
		if cur != nil {
			cur = cur.Parent
			for cur != nil && cur.Kind != SNSchemaRoot && cur.isTransparent() {
				cur = cur.Parent
			}
		}
	}
	if cur == nil {
		return nil
	}
	for _, step := range splitSlashPath(rest) {
		step = stripPredicate(step)
		if step == "" || step == "current()" || step == "." {
			continue
		}
		prefix, loc := SplitPrefixed(step)
		module := contextModule.Module
		if prefix != "" {
			mid, err := registry.PrefixToModuleID(prefix, contextModule)
			if err != nil {
				return nil
			}
			module = mid.Module
		}
		var next *SchemaNode
		for _, c := range cur.DataChildren() {
			if c.Name.Local == loc && (module == "" || c.Name.Module == module) {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func trimLeadingDotDot(s string) string {
	if len(s) >= 2 && s[0] == '.' && s[1] == '.' {
		s = s[2:]
		if len(s) > 0 && s[0] == '/' {
			s = s[1:]
		}
		return s
	}
	return s
}

func stripPredicate(step string) string {
	if i := strings.IndexByte(step, '['); i >= 0 {
		return step[:i]
	}
	return step
}
