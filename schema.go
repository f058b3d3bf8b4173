package yangmodel

import (
	"sort"
	"sync/atomic"
)

// SNKind tags a SchemaNode's variant and Design Notes ("Deep inheritance among schema-node
// classes").
type SNKind int

const (
	SNContainer SNKind = iota
	SNList
	SNLeafList
	SNLeaf
	SNChoice
	SNCase
	SNAnydata
	SNAnyxml
	SNRpcAction
	SNInput
	SNOutput
	SNNotification
	SNGroup      // anonymous; an internal grouping from conditional uses/augment
	SNSchemaRoot // distinguished group at the root of each schema sub-tree
)

func (k SNKind) String() string {
	switch k {
	case SNContainer:
		return "container"
	case SNList:
		return "list"
	case SNLeafList:
		return "leaf-list"
	case SNLeaf:
		return "leaf"
	case SNChoice:
		return "choice"
	case SNCase:
		return "case"
	case SNAnydata:
		return "anydata"
	case SNAnyxml:
		return "anyxml"
	case SNRpcAction:
		return "rpc/action"
	case SNInput:
		return "input"
	case SNOutput:
		return "output"
	case SNNotification:
		return "notification"
	case SNGroup:
		return "group"
	case SNSchemaRoot:
		return "schema-root"
	default:
		return "unknown"
	}
}

// Status is a schema node's "status" substatement value.
type Status int

const (
	StatusCurrent Status = iota
	StatusDeprecated
	StatusObsolete
)

func ParseStatus(s string) Status {
	switch s {
	case "deprecated":
		return StatusDeprecated
	case "obsolete":
		return StatusObsolete
	default:
		return StatusCurrent
	}
}

// MustConstraint is one "must" substatement: a compiled expression plus its
// optional custom diagnostic.
type MustConstraint struct {
	Expr         *XPathExpr
	Source       string
	ErrorTag     ErrorTag
	ErrorMessage string
}

// ContainerInfo holds Container-specific fields.
type ContainerInfo struct {
	Presence bool
}

// ListInfo holds List-specific fields.
type ListInfo struct {
	Keys         []QName
	UniqueGroups [][]DataRoute
	MinElements  int
	MaxElements  int // -1 means unbounded
	UserOrdered  bool
}

// LeafInfo holds Leaf-specific fields.
type LeafInfo struct {
	Type       *DataType
	Default    CookedValue
	HasDefault bool
	Mandatory  bool
	Units      string
}

// LeafListInfo holds LeafList-specific fields.
type LeafListInfo struct {
	Type        *DataType
	Defaults    []CookedValue
	MinElements int
	MaxElements int // -1 means unbounded
	UserOrdered bool
	Units       string
}

// ChoiceInfo holds Choice-specific fields.
type ChoiceInfo struct {
	DefaultCase    QName
	HasDefaultCase bool
	Mandatory      bool
}

// SchemaNode is the tagged variant described by spec §3 "Schema node". The
// schema tree is immutable after build; Parent is a weak, non-owning
// pointer (the tree itself owns nodes via Children), per Design Notes
// ("Cyclic references").
type SchemaNode struct {
	Kind     SNKind
	Name     QName
	Parent   *SchemaNode
	Children []*SchemaNode

	When *XPathExpr
	Must []MustConstraint

	Description string
	Reference   string
	Status      Status
	Content     ContentType

	// NACMDefaultDeny mirrors ietf-netconf-acm:default-deny-write/-all,
	// carried through verbatim; "" means no NACM extension was present.
	NACMDefaultDeny string

	validationCount uint64

	Container *ContainerInfo
	List      *ListInfo
	LeafList  *LeafListInfo
	Leaf      *LeafInfo
	Choice    *ChoiceInfo
}

func (n *SchemaNode) String() string { return n.Name.String() }

// IsDataNode reports whether n's kind carries instance data (as opposed to
// a structural Choice/Case/Group/SchemaRoot node or an Rpc/Input/Output/
// Notification node).
func (n *SchemaNode) IsDataNode() bool {
	switch n.Kind {
	case SNContainer, SNList, SNLeafList, SNLeaf, SNAnydata, SNAnyxml:
		return true
	default:
		return false
	}
}

// isTransparent reports whether n's kind is skipped by data-child lookups.
func (n *SchemaNode) isTransparent() bool {
	switch n.Kind {
	case SNChoice, SNCase, SNGroup, SNSchemaRoot:
		return true
	default:
		return false
	}
}

// DataChildren returns n's data-node descendants, recursing transparently
// through Choice/Case/Group boundaries, in schema build order.
func (n *SchemaNode) DataChildren() []*SchemaNode {
	var out []*SchemaNode
	for _, c := range n.Children {
		if c.isTransparent() {
			out = append(out, c.DataChildren()...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// Child looks up an immediate data child by qualified name, skipping
// transparent Choice/Case/Group boundaries.
func (n *SchemaNode) Child(name QName) *SchemaNode {
	for _, c := range n.DataChildren() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IncrementValidationCount is called once per schema node visited by
// validate. Safe for concurrent
// validation over distinct foci sharing the same schema tree.
func (n *SchemaNode) IncrementValidationCount() {
	atomic.AddUint64(&n.validationCount, 1)
}

func (n *SchemaNode) ValidationCount() uint64 {
	return atomic.LoadUint64(&n.validationCount)
}

// Route returns the schema route from the nearest SchemaRoot ancestor down
// to n, inclusive, skipping transparent nodes.
func (n *SchemaNode) Route() DataRoute {
	var rev []QName
	for s := n; s != nil && s.Kind != SNSchemaRoot; s = s.Parent {
		if !s.isTransparent() {
			rev = append(rev, s.Name)
		}
	}
	out := make(DataRoute, len(rev))
	for i, q := range rev {
		out[len(rev)-1-i] = q
	}
	return out
}

// sortedModuleNames returns the distinct module names of ids in sorted
// order, for deterministic iteration over a registry's module set.
func sortedModuleNames(ids []ModuleID) []string {
	names := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if !seen[id.Module] {
			seen[id.Module] = true
			names = append(names, id.Module)
		}
	}
	sort.Strings(names)
	return names
}
