package yangmodel

import (
	"math"
	"strconv"
	"strings"
)

// XPathValueKind tags an XPathValue's active field: XPath 1.0's 4-way
// type union.
type XPathValueKind int

const (
	XVNodeSet XPathValueKind = iota
	XVBoolean
	XVNumber
	XVString
)

// XPathValue is the result of evaluating any XPath (sub)expression.
type XPathValue struct {
	Kind  XPathValueKind
	Nodes []*Focus
	Bool  bool
	Num   float64
	Str   string
}

type xpEvalContext struct {
	focus         *Focus // context node for the current step/predicate
	current       *Focus // the node current() returns, fixed for the whole Evaluate call
	position      int
	size          int
	registry      *Registry
	contextModule ModuleID
	variables     map[string]XPathValue
}

// Evaluate runs the compiled expression with focus as the context node.
func (e *XPathExpr) Evaluate(focus *Focus) (XPathValue, error) {
	ctx := &xpEvalContext{focus: focus, current: focus, position: 1, size: 1, registry: e.registry, contextModule: e.contextModule}
	return e.root.eval(ctx)
}

// whenHolds evaluates a `when` expression as a boolean gate; a nil
// expression (no `when` substatement) always holds.
func whenHolds(expr *XPathExpr, f *Focus) bool {
	if expr == nil {
		return true
	}
	v, err := expr.Evaluate(f)
	if err != nil {
		return false
	}
	return toBoolean(v)
}

// mustHolds evaluates a `must` expression; used by the validation engine.
func mustHolds(m MustConstraint, f *Focus) (bool, error) {
	v, err := m.Expr.Evaluate(f)
	if err != nil {
		return false, err
	}
	return toBoolean(v), nil
}

// --- AST node eval methods ---

func (n *locationPath) eval(ctx *xpEvalContext) (XPathValue, error) {
	var nodes []*Focus
	if n.Absolute {
		nodes = []*Focus{ctx.focus.Top(ctx.focus.Timestamp)}
	} else {
		nodes = []*Focus{ctx.focus}
	}
	for _, step := range n.Steps {
		var err error
		nodes, err = applyStep(step, nodes, ctx)
		if err != nil {
			return XPathValue{}, err
		}
	}
	return XPathValue{Kind: XVNodeSet, Nodes: nodes}, nil
}

func (n *pathExpr) eval(ctx *xpEvalContext) (XPathValue, error) {
	v, err := n.Start.eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	if v.Kind != XVNodeSet {
		return XPathValue{}, &XPathTypeError{Op: "/", Reason: "left side is not a node-set"}
	}
	nodes := v.Nodes
	for _, step := range n.Rel.Steps {
		var err error
		nodes, err = applyStep(step, nodes, ctx)
		if err != nil {
			return XPathValue{}, err
		}
	}
	return XPathValue{Kind: XVNodeSet, Nodes: nodes}, nil
}

func (n *filterExpr) eval(ctx *xpEvalContext) (XPathValue, error) {
	v, err := n.Primary.eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	if len(n.Predicates) == 0 {
		return v, nil
	}
	if v.Kind != XVNodeSet {
		return XPathValue{}, &XPathTypeError{Op: "[]", Reason: "predicate applied to a non-node-set"}
	}
	nodes, err := applyPredicates(v.Nodes, n.Predicates, ctx, false)
	if err != nil {
		return XPathValue{}, err
	}
	return XPathValue{Kind: XVNodeSet, Nodes: nodes}, nil
}

func (n *unionExpr) eval(ctx *xpEvalContext) (XPathValue, error) {
	var nodes []*Focus
	for _, part := range n.Parts {
		v, err := part.eval(ctx)
		if err != nil {
			return XPathValue{}, err
		}
		if v.Kind != XVNodeSet {
			return XPathValue{}, &XPathTypeError{Op: "|", Reason: "union of non-node-set"}
		}
		nodes = append(nodes, v.Nodes...)
	}
	return XPathValue{Kind: XVNodeSet, Nodes: nodes}, nil
}

func (n *unaryMinus) eval(ctx *xpEvalContext) (XPathValue, error) {
	v, err := n.Operand.eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	return XPathValue{Kind: XVNumber, Num: -toNumber(v)}, nil
}

func (n *numberLit) eval(*xpEvalContext) (XPathValue, error) {
	return XPathValue{Kind: XVNumber, Num: n.Val}, nil
}

func (n *stringLit) eval(*xpEvalContext) (XPathValue, error) {
	return XPathValue{Kind: XVString, Str: n.Val}, nil
}

func (n *variableRef) eval(ctx *xpEvalContext) (XPathValue, error) {
	if v, ok := ctx.variables[n.Name]; ok {
		return v, nil
	}
	return XPathValue{Kind: XVString, Str: ""}, nil
}

func (n *binaryExpr) eval(ctx *xpEvalContext) (XPathValue, error) {
	switch n.Op {
	case "or":
		l, err := n.LHS.eval(ctx)
		if err != nil {
			return XPathValue{}, err
		}
		if toBoolean(l) {
			return XPathValue{Kind: XVBoolean, Bool: true}, nil
		}
		r, err := n.RHS.eval(ctx)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVBoolean, Bool: toBoolean(r)}, nil
	case "and":
		l, err := n.LHS.eval(ctx)
		if err != nil {
			return XPathValue{}, err
		}
		if !toBoolean(l) {
			return XPathValue{Kind: XVBoolean, Bool: false}, nil
		}
		r, err := n.RHS.eval(ctx)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVBoolean, Bool: toBoolean(r)}, nil
	}
	l, err := n.LHS.eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	r, err := n.RHS.eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	switch n.Op {
	case "=":
		return XPathValue{Kind: XVBoolean, Bool: xpCompareEqual(l, r)}, nil
	case "!=":
		return XPathValue{Kind: XVBoolean, Bool: !xpCompareEqual(l, r)}, nil
	case "<":
		return XPathValue{Kind: XVBoolean, Bool: xpCompareRel(l, r, func(a, b float64) bool { return a < b })}, nil
	case ">":
		return XPathValue{Kind: XVBoolean, Bool: xpCompareRel(l, r, func(a, b float64) bool { return a > b })}, nil
	case "<=":
		return XPathValue{Kind: XVBoolean, Bool: xpCompareRel(l, r, func(a, b float64) bool { return a <= b })}, nil
	case ">=":
		return XPathValue{Kind: XVBoolean, Bool: xpCompareRel(l, r, func(a, b float64) bool { return a >= b })}, nil
	case "+":
		return XPathValue{Kind: XVNumber, Num: toNumber(l) + toNumber(r)}, nil
	case "-":
		return XPathValue{Kind: XVNumber, Num: toNumber(l) - toNumber(r)}, nil
	case "*":
		return XPathValue{Kind: XVNumber, Num: toNumber(l) * toNumber(r)}, nil
	case "div":
		return XPathValue{Kind: XVNumber, Num: toNumber(l) / toNumber(r)}, nil
	case "mod":
		return XPathValue{Kind: XVNumber, Num: math.Mod(toNumber(l), toNumber(r))}, nil
	}
	return XPathValue{}, &XPathTypeError{Op: n.Op, Reason: "unknown operator"}
}

// --- axis / step machinery ---

func applyStep(step *xpStep, contextNodes []*Focus, ctx *xpEvalContext) ([]*Focus, error) {
	var result []*Focus
	reverse := step.Axis == AxisParent || step.Axis == AxisAncestor || step.Axis == AxisAncestorOrSelf || step.Axis == AxisPrecedingSibling || step.Axis == AxisPreceding
	for _, cn := range contextNodes {
		candidates, err := axisCandidates(step.Axis, cn)
		if err != nil {
			return nil, err
		}
		var matched []*Focus
		for _, c := range candidates {
			if matchesNodeTest(c, step.Test, ctx) {
				matched = append(matched, c)
			}
		}
		filtered, err := applyPredicates(matched, step.Predicates, ctx, reverse)
		if err != nil {
			return nil, err
		}
		result = append(result, filtered...)
	}
	return result, nil
}

func applyPredicates(nodes []*Focus, preds []xpNode, ctx *xpEvalContext, reverse bool) ([]*Focus, error) {
	cur := nodes
	for _, pred := range preds {
		size := len(cur)
		var kept []*Focus
		for i, n := range cur {
			pos := i + 1
			if reverse {
				pos = size - i
			}
			sub := &xpEvalContext{focus: n, current: ctx.current, position: pos, size: size, registry: ctx.registry, contextModule: ctx.contextModule, variables: ctx.variables}
			v, err := pred.eval(sub)
			if err != nil {
				return nil, err
			}
			keep := toBoolean(v)
			if v.Kind == XVNumber {
				keep = float64(pos) == v.Num
			}
			if keep {
				kept = append(kept, n)
			}
		}
		cur = kept
	}
	return cur, nil
}

func axisCandidates(axis Axis, cn *Focus) ([]*Focus, error) {
	switch axis {
	case AxisChild:
		return xpathChildren(cn), nil
	case AxisDescendant:
		return descendantNodes(cn), nil
	case AxisDescendantOrSelf:
		return append([]*Focus{cn}, descendantNodes(cn)...), nil
	case AxisParent:
		if p := xpathParent(cn); p != nil {
			return []*Focus{p}, nil
		}
		return nil, nil
	case AxisAncestor:
		return ancestorNodes(cn), nil
	case AxisAncestorOrSelf:
		return append([]*Focus{cn}, ancestorNodes(cn)...), nil
	case AxisFollowingSibling:
		return followingSiblingNodes(cn), nil
	case AxisPrecedingSibling:
		return precedingSiblingNodes(cn), nil
	case AxisFollowing:
		return followingNodes(cn), nil
	case AxisPreceding:
		return nil, &ParseError{Kind: ParseNotSupported, Reason: "preceding:: axis not supported"}
	case AxisSelf:
		return []*Focus{cn}, nil
	case AxisAttribute:
		return nil, nil
	case AxisNamespace:
		return nil, &ParseError{Kind: ParseNotSupported, Reason: "namespace:: axis not supported"}
	}
	return nil, nil
}

func matchesNodeTest(f *Focus, t nodeTest, ctx *xpEvalContext) bool {
	switch t.Kind {
	case testNode:
		return true
	case testText:
		return false
	case testName:
		if f.Schema == nil {
			return false
		}
		if t.Local == "*" {
			if t.Prefix == "" {
				return true
			}
			mid, err := ctx.registry.PrefixToModuleID(t.Prefix, ctx.contextModule)
			return err == nil && f.Schema.Name.Module == mid.Module
		}
		wantModule := ctx.contextModule.Module
		if t.Prefix != "" {
			mid, err := ctx.registry.PrefixToModuleID(t.Prefix, ctx.contextModule)
			if err != nil {
				return false
			}
			wantModule = mid.Module
		}
		return f.Schema.Name.Local == t.Local && f.Schema.Name.Module == wantModule
	}
	return false
}

// xpathChildren expands schema data-children into XPath-addressable
// nodes, turning each list/leaf-list into its entries directly (an
// instantiated list has no addressable node of its own), grounded in the
// child-expansion technique of the retrieved XPath adapter (List ->
// ListEntry, Leaf(-list) -> LeafValue).
func xpathChildren(f *Focus) []*Focus {
	if f.Value.Kind != ValObject {
		return nil
	}
	var out []*Focus
	for _, c := range f.Schema.DataChildren() {
		m, err := f.Member(c.Name.Local)
		if err != nil {
			continue
		}
		if m.Value.Kind == ValArray {
			for i := 0; i < m.Value.Array.Len(); i++ {
				e, err := m.Entry(i)
				if err == nil {
					out = append(out, e)
				}
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

func descendantNodes(f *Focus) []*Focus {
	var out []*Focus
	for _, c := range xpathChildren(f) {
		out = append(out, c)
		out = append(out, descendantNodes(c)...)
	}
	return out
}

// xpathParent skips the intermediate list/leaf-list "array" layer, so an
// entry's XPath parent is the structural container that holds the list,
// not the list grouping itself.
func xpathParent(f *Focus) *Focus {
	if f.Parent == nil {
		return nil
	}
	if f.Kind == FocusArrayEntry {
		return xpathParent(f.Parent)
	}
	return f.Parent
}

func ancestorNodes(f *Focus) []*Focus {
	var out []*Focus
	for p := xpathParent(f); p != nil; p = xpathParent(p) {
		out = append(out, p)
	}
	return out
}

func followingSiblingNodes(f *Focus) []*Focus {
	var out []*Focus
	switch f.Kind {
	case FocusArrayEntry:
		cur := f
		for {
			n, err := cur.Next()
			if err != nil {
				break
			}
			out = append(out, n)
			cur = n
		}
	case FocusObjectMember:
		names := f.Siblings.Names()
		idx := indexOf(names, f.Name)
		if idx < 0 {
			return nil
		}
		for _, name := range names[idx+1:] {
			if sib, err := f.Sibling(name); err == nil {
				out = append(out, sib)
			}
		}
	}
	return out
}

func precedingSiblingNodes(f *Focus) []*Focus {
	var out []*Focus
	switch f.Kind {
	case FocusArrayEntry:
		cur := f
		for {
			p, err := cur.Previous()
			if err != nil {
				break
			}
			out = append(out, p)
			cur = p
		}
	case FocusObjectMember:
		names := f.Siblings.Names()
		idx := indexOf(names, f.Name)
		if idx <= 0 {
			return nil
		}
		for i := idx - 1; i >= 0; i-- {
			if sib, err := f.Sibling(names[i]); err == nil {
				out = append(out, sib)
			}
		}
	}
	return out
}

func followingNodes(f *Focus) []*Focus {
	var out []*Focus
	for cur := f; cur != nil; cur = xpathParent(cur) {
		for _, s := range followingSiblingNodes(cur) {
			out = append(out, s)
			out = append(out, descendantNodes(s)...)
		}
	}
	return out
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// --- value coercions (XPath 1.0 §3.4-§3.7) ---

func toBoolean(v XPathValue) bool {
	switch v.Kind {
	case XVBoolean:
		return v.Bool
	case XVNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case XVString:
		return v.Str != ""
	case XVNodeSet:
		return len(v.Nodes) > 0
	}
	return false
}

func toNumber(v XPathValue) float64 {
	switch v.Kind {
	case XVNumber:
		return v.Num
	case XVBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case XVString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case XVNodeSet:
		return toNumber(XPathValue{Kind: XVString, Str: toString(v)})
	}
	return math.NaN()
}

func toString(v XPathValue) string {
	switch v.Kind {
	case XVString:
		return v.Str
	case XVBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case XVNumber:
		if math.IsNaN(v.Num) {
			return "NaN"
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case XVNodeSet:
		if len(v.Nodes) == 0 {
			return ""
		}
		return focusStringValue(firstInDocOrder(v.Nodes))
	}
	return ""
}

// firstInDocOrder picks the node-set's first member in document order.
// Our axis builders already emit candidates in document order per
// context node, so for the common single-context-node case the first
// element already is first in document order; ties across multiple
// context nodes are broken by original emission order, a known
// simplification for unions of disjoint axes.
func firstInDocOrder(nodes []*Focus) *Focus { return nodes[0] }

func focusStringValue(f *Focus) string {
	switch f.Value.Kind {
	case ValObject, ValArray:
		var b strings.Builder
		for _, c := range xpathChildren(f) {
			b.WriteString(focusStringValue(c))
		}
		return b.String()
	default:
		dt, err := f.leafType()
		if err != nil {
			return ""
		}
		return dt.CanonicalString(f.Value)
	}
}

func xpCompareEqual(l, r XPathValue) bool {
	if l.Kind == XVNodeSet && r.Kind == XVNodeSet {
		for _, a := range l.Nodes {
			for _, b := range r.Nodes {
				if focusStringValue(a) == focusStringValue(b) {
					return true
				}
			}
		}
		return false
	}
	if l.Kind == XVNodeSet || r.Kind == XVNodeSet {
		ns, other := l, r
		if r.Kind == XVNodeSet {
			ns, other = r, l
		}
		for _, n := range ns.Nodes {
			s := focusStringValue(n)
			if xpCompareEqual(XPathValue{Kind: XVString, Str: s}, other) {
				return true
			}
		}
		return false
	}
	if l.Kind == XVBoolean || r.Kind == XVBoolean {
		return toBoolean(l) == toBoolean(r)
	}
	if l.Kind == XVNumber || r.Kind == XVNumber {
		return toNumber(l) == toNumber(r)
	}
	return toString(l) == toString(r)
}

func xpCompareRel(l, r XPathValue, cmp func(a, b float64) bool) bool {
	if l.Kind == XVNodeSet || r.Kind == XVNodeSet {
		expand := func(v XPathValue) []float64 {
			if v.Kind != XVNodeSet {
				return []float64{toNumber(v)}
			}
			nums := make([]float64, len(v.Nodes))
			for i, n := range v.Nodes {
				nums[i] = toNumber(XPathValue{Kind: XVString, Str: focusStringValue(n)})
			}
			return nums
		}
		for _, a := range expand(l) {
			for _, b := range expand(r) {
				if cmp(a, b) {
					return true
				}
			}
		}
		return false
	}
	return cmp(toNumber(l), toNumber(r))
}

// --- function calls ---

func (n *functionCall) eval(ctx *xpEvalContext) (XPathValue, error) {
	arg := func(i int) (XPathValue, error) { return n.Args[i].eval(ctx) }
	contextOrArg0Str := func() (string, error) {
		if len(n.Args) == 0 {
			return focusStringValue(ctx.focus), nil
		}
		v, err := arg(0)
		if err != nil {
			return "", err
		}
		return toString(v), nil
	}
	switch n.Name {
	case "last":
		return XPathValue{Kind: XVNumber, Num: float64(ctx.size)}, nil
	case "position":
		return XPathValue{Kind: XVNumber, Num: float64(ctx.position)}, nil
	case "count":
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		if v.Kind != XVNodeSet {
			return XPathValue{}, &XPathTypeError{Op: "count", Reason: "argument is not a node-set"}
		}
		return XPathValue{Kind: XVNumber, Num: float64(len(v.Nodes))}, nil
	case "id":
		return XPathValue{Kind: XVNodeSet}, nil
	case "local-name", "name":
		node := ctx.focus
		if len(n.Args) > 0 {
			v, err := arg(0)
			if err != nil {
				return XPathValue{}, err
			}
			if v.Kind != XVNodeSet || len(v.Nodes) == 0 {
				return XPathValue{Kind: XVString, Str: ""}, nil
			}
			node = firstInDocOrder(v.Nodes)
		}
		if node.Schema == nil {
			return XPathValue{Kind: XVString, Str: ""}, nil
		}
		if n.Name == "local-name" {
			return XPathValue{Kind: XVString, Str: node.Schema.Name.Local}, nil
		}
		return XPathValue{Kind: XVString, Str: node.Schema.Name.String()}, nil
	case "namespace-uri":
		node := ctx.focus
		if len(n.Args) > 0 {
			v, err := arg(0)
			if err != nil {
				return XPathValue{}, err
			}
			if v.Kind == XVNodeSet && len(v.Nodes) > 0 {
				node = firstInDocOrder(v.Nodes)
			}
		}
		if node.Schema == nil {
			return XPathValue{Kind: XVString, Str: ""}, nil
		}
		return XPathValue{Kind: XVString, Str: node.Schema.Name.Module}, nil
	case "string":
		if len(n.Args) == 0 {
			return XPathValue{Kind: XVString, Str: focusStringValue(ctx.focus)}, nil
		}
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVString, Str: toString(v)}, nil
	case "concat":
		var b strings.Builder
		for i := range n.Args {
			v, err := arg(i)
			if err != nil {
				return XPathValue{}, err
			}
			b.WriteString(toString(v))
		}
		return XPathValue{Kind: XVString, Str: b.String()}, nil
	case "starts-with":
		a, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		b, err := arg(1)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVBoolean, Bool: strings.HasPrefix(toString(a), toString(b))}, nil
	case "contains":
		a, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		b, err := arg(1)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVBoolean, Bool: strings.Contains(toString(a), toString(b))}, nil
	case "substring-before":
		a, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		b, err := arg(1)
		if err != nil {
			return XPathValue{}, err
		}
		s, sep := toString(a), toString(b)
		if i := strings.Index(s, sep); i >= 0 {
			return XPathValue{Kind: XVString, Str: s[:i]}, nil
		}
		return XPathValue{Kind: XVString, Str: ""}, nil
	case "substring-after":
		a, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		b, err := arg(1)
		if err != nil {
			return XPathValue{}, err
		}
		s, sep := toString(a), toString(b)
		if i := strings.Index(s, sep); i >= 0 {
			return XPathValue{Kind: XVString, Str: s[i+len(sep):]}, nil
		}
		return XPathValue{Kind: XVString, Str: ""}, nil
	case "substring":
		a, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		s := toString(a)
		startV, err := arg(1)
		if err != nil {
			return XPathValue{}, err
		}
		start := round(toNumber(startV))
		length := math.MaxInt32
		if len(n.Args) > 2 {
			lenV, err := arg(2)
			if err != nil {
				return XPathValue{}, err
			}
			length = round(toNumber(lenV))
		}
		return XPathValue{Kind: XVString, Str: xpSubstring(s, start, length)}, nil
	case "string-length":
		s, err := contextOrArg0Str()
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVNumber, Num: float64(len([]rune(s)))}, nil
	case "normalize-space":
		s, err := contextOrArg0Str()
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVString, Str: strings.Join(strings.Fields(s), " ")}, nil
	case "translate":
		a, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		fromV, err := arg(1)
		if err != nil {
			return XPathValue{}, err
		}
		toV, err := arg(2)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVString, Str: xpTranslate(toString(a), toString(fromV), toString(toV))}, nil
	case "boolean":
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVBoolean, Bool: toBoolean(v)}, nil
	case "not":
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVBoolean, Bool: !toBoolean(v)}, nil
	case "true":
		return XPathValue{Kind: XVBoolean, Bool: true}, nil
	case "false":
		return XPathValue{Kind: XVBoolean, Bool: false}, nil
	case "lang":
		return XPathValue{Kind: XVBoolean, Bool: false}, nil
	case "number":
		if len(n.Args) == 0 {
			return XPathValue{Kind: XVNumber, Num: toNumber(XPathValue{Kind: XVString, Str: focusStringValue(ctx.focus)})}, nil
		}
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVNumber, Num: toNumber(v)}, nil
	case "sum":
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		if v.Kind != XVNodeSet {
			return XPathValue{}, &XPathTypeError{Op: "sum", Reason: "argument is not a node-set"}
		}
		total := 0.0
		for _, node := range v.Nodes {
			total += toNumber(XPathValue{Kind: XVString, Str: focusStringValue(node)})
		}
		return XPathValue{Kind: XVNumber, Num: total}, nil
	case "floor":
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVNumber, Num: math.Floor(toNumber(v))}, nil
	case "ceiling":
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVNumber, Num: math.Ceil(toNumber(v))}, nil
	case "round":
		v, err := arg(0)
		if err != nil {
			return XPathValue{}, err
		}
		return XPathValue{Kind: XVNumber, Num: float64(round(toNumber(v)))}, nil
	case "current":
		return XPathValue{Kind: XVNodeSet, Nodes: []*Focus{ctx.current}}, nil
	case "deref":
		return evalDeref(n, ctx)
	case "derived-from":
		return evalDerivedFrom(n, ctx, false)
	case "derived-from-or-self":
		return evalDerivedFrom(n, ctx, true)
	case "enum-value":
		return evalEnumValue(n, ctx)
	case "bit-is-set":
		return evalBitIsSet(n, ctx)
	case "re-match":
		return evalReMatch(n, ctx)
	}
	return XPathValue{}, &ParseError{Kind: ParseNotSupported, Reason: "unknown function " + n.Name}
}

func round(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Floor(f + 0.5))
}

func xpSubstring(s string, start, length int) string {
	r := []rune(s)
	end := start + length
	if start < 1 {
		start = 1
	}
	if end > len(r)+1 {
		end = len(r) + 1
	}
	if start > len(r) || end <= start {
		return ""
	}
	return string(r[start-1 : end-1])
}

func xpTranslate(s, from, to string) string {
	fr, tr := []rune(from), []rune(to)
	var b strings.Builder
	for _, c := range s {
		idx := -1
		for i, f := range fr {
			if f == c {
				idx = i
				break
			}
		}
		if idx < 0 {
			b.WriteRune(c)
		} else if idx < len(tr) {
			b.WriteRune(tr[idx])
		}
	}
	return b.String()
}

func singleLeafNode(v XPathValue) (*Focus, error) {
	if v.Kind != XVNodeSet || len(v.Nodes) == 0 {
		return nil, &XPathTypeError{Reason: "expected a non-empty node-set"}
	}
	return firstInDocOrder(v.Nodes), nil
}

func evalDeref(n *functionCall, ctx *xpEvalContext) (XPathValue, error) {
	v, err := n.Args[0].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	node, err := singleLeafNode(v)
	if err != nil {
		return XPathValue{}, err
	}
	dt, err := node.leafType()
	if err != nil || dt.Kind != KindLeafref || dt.LeafrefCompiledPath == nil {
		return XPathValue{}, &XPathTypeError{Op: "deref", Reason: "argument is not a leafref"}
	}
	return dt.LeafrefCompiledPath.Evaluate(node)
}

func evalDerivedFrom(n *functionCall, ctx *xpEvalContext, orSelf bool) (XPathValue, error) {
	v, err := n.Args[0].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	node, err := singleLeafNode(v)
	if err != nil {
		return XPathValue{}, err
	}
	argStr, err := n.Args[1].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	local, mid, err := ctx.registry.ResolvePName(toString(argStr), ctx.contextModule)
	if err != nil {
		return XPathValue{}, err
	}
	ancestor := QName{Local: local, Module: mid.Module}
	if node.Value.Kind != ValIdentityref {
		return XPathValue{Kind: XVBoolean, Bool: false}, nil
	}
	if orSelf {
		return XPathValue{Kind: XVBoolean, Bool: ctx.registry.IsDerivedFromOrSelf(node.Value.QName, ancestor)}, nil
	}
	return XPathValue{Kind: XVBoolean, Bool: ctx.registry.IsDerivedFrom(node.Value.QName, ancestor)}, nil
}

func evalEnumValue(n *functionCall, ctx *xpEvalContext) (XPathValue, error) {
	v, err := n.Args[0].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	node, err := singleLeafNode(v)
	if err != nil {
		return XPathValue{}, err
	}
	dt, err := node.leafType()
	if err != nil || dt.Kind != KindEnumeration {
		return XPathValue{}, &XPathTypeError{Op: "enum-value", Reason: "argument is not an enumeration"}
	}
	return XPathValue{Kind: XVNumber, Num: float64(dt.EnumValues[node.Value.Str])}, nil
}

func evalBitIsSet(n *functionCall, ctx *xpEvalContext) (XPathValue, error) {
	v, err := n.Args[0].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	node, err := singleLeafNode(v)
	if err != nil {
		return XPathValue{}, err
	}
	bitV, err := n.Args[1].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	name := toString(bitV)
	for _, b := range node.Value.Bits {
		if b == name {
			return XPathValue{Kind: XVBoolean, Bool: true}, nil
		}
	}
	return XPathValue{Kind: XVBoolean, Bool: false}, nil
}

func evalReMatch(n *functionCall, ctx *xpEvalContext) (XPathValue, error) {
	sv, err := n.Args[0].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	pv, err := n.Args[1].eval(ctx)
	if err != nil {
		return XPathValue{}, err
	}
	re, err := compileYANGPattern(toString(pv))
	if err != nil {
		return XPathValue{}, err
	}
	return XPathValue{Kind: XVBoolean, Bool: re.MatchString(toString(sv))}, nil
}
