package yangmodel

// Axis enumerates the XPath 1.0 axes. AxisPreceding and
// AxisNamespace are recognised by the parser but rejected at evaluation
// time with ParseNotSupported.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisDescendantOrSelf
	AxisParent
	AxisAncestor
	AxisAncestorOrSelf
	AxisFollowingSibling
	AxisPrecedingSibling
	AxisFollowing
	AxisPreceding
	AxisSelf
	AxisAttribute
	AxisNamespace
)

var axisNames = map[string]Axis{
	"child":               AxisChild,
	"descendant":          AxisDescendant,
	"descendant-or-self":  AxisDescendantOrSelf,
	"parent":              AxisParent,
	"ancestor":            AxisAncestor,
	"ancestor-or-self":    AxisAncestorOrSelf,
	"following-sibling":   AxisFollowingSibling,
	"preceding-sibling":   AxisPrecedingSibling,
	"following":           AxisFollowing,
	"preceding":           AxisPreceding,
	"self":                AxisSelf,
	"attribute":           AxisAttribute,
	"namespace":           AxisNamespace,
}

// nodeTestKind classifies a step's node-test.
type nodeTestKind int

const (
	testName nodeTestKind = iota // name-test, possibly wildcarded
	testNode                     // node()
	testText                     // text()
)

type nodeTest struct {
	Kind   nodeTestKind
	Prefix string // "" means unprefixed (resolves via default-namespace rule)
	Local  string // "*" means wildcard
}

// xpNode is any XPath AST node (expression or location-path step).
type xpNode interface {
	eval(ctx *xpEvalContext) (XPathValue, error)
}

// locationPath is an absolute or relative sequence of steps.
type locationPath struct {
	Absolute bool
	Steps    []*xpStep
}

type xpStep struct {
	Axis       Axis
	Test       nodeTest
	Predicates []xpNode
}

// pathExpr chains a filter expression (or an implicit context-node start)
// with a relative location path, e.g. "current()/../foo".
type pathExpr struct {
	Start xpNode // nil means start from the context node
	Rel   *locationPath
}

// filterExpr is a PrimaryExpr followed by zero or more predicates.
type filterExpr struct {
	Primary    xpNode
	Predicates []xpNode
}

type unionExpr struct{ Parts []xpNode }

type binaryExpr struct {
	Op       string
	LHS, RHS xpNode
}

type unaryMinus struct{ Operand xpNode }

type numberLit struct{ Val float64 }
type stringLit struct{ Val string }

type variableRef struct{ Name string }

type functionCall struct {
	Name string
	Args []xpNode
}

// XPathExpr is a compiled XPath expression, carrying the schema context
// (default namespace + prefix resolution) captured at parse time, per
// Design Notes "XPath evaluator & schema context".
type XPathExpr struct {
	Source        string
	root          xpNode
	registry      *Registry
	contextModule ModuleID
}

func (e *XPathExpr) String() string { return e.Source }
