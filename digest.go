package yangmodel

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RenderASCIITree renders n's descendants using the §6 "Schema tree ASCII
// representation" grammar: "<indent>+--<flag> <qualname>[suffix] [<type>]".
// noTypes suppresses the trailing "<type>" annotation (the CLI's
// "--no-types" modifier).
func RenderASCIITree(root *SchemaNode, noTypes bool) string {
	var b strings.Builder
	for _, c := range root.DataChildren() {
		renderASCIINode(&b, c, "", noTypes)
	}
	return b.String()
}

func renderASCIINode(b *strings.Builder, n *SchemaNode, indent string, noTypes bool) {
	flag := "ro"
	if n.Content == ContentConfig || n.Content == ContentAll {
		flag = "rw"
	}
	fmt.Fprintf(b, "%s+--%s %s%s", indent, flag, n.Name, asciiSuffix(n))
	if !noTypes {
		if t := asciiTypeName(n); t != "" {
			fmt.Fprintf(b, " <%s>", t)
		}
	}
	b.WriteByte('\n')
	childIndent := indent + "   "
	for _, c := range n.DataChildren() {
		renderASCIINode(b, c, childIndent, noTypes)
	}
}

func asciiSuffix(n *SchemaNode) string {
	switch n.Kind {
	case SNLeaf:
		if !n.Leaf.Mandatory {
			return "?"
		}
	case SNList:
		if n.List.UserOrdered {
			return "#"
		}
		return "*"
	case SNLeafList:
		if n.LeafList.UserOrdered {
			return "#"
		}
		return "*"
	case SNContainer:
		if n.Container != nil && n.Container.Presence {
			return "!"
		}
	}
	return ""
}

func asciiTypeName(n *SchemaNode) string {
	switch n.Kind {
	case SNLeaf:
		return typeDisplayName(n.Leaf.Type)
	case SNLeafList:
		return typeDisplayName(n.LeafList.Type)
	default:
		return ""
	}
}

func typeDisplayName(dt *DataType) string {
	if dt.Name != "" {
		return dt.Name
	}
	return dt.Kind.String()
}

// SchemaDigestEntry is one node of the §6 "Schema digest" JSON object.
type SchemaDigestEntry struct {
	Kind        string                        `json:"kind"`
	Config      *bool                         `json:"config,omitempty"`
	Mandatory   bool                          `json:"mandatory,omitempty"`
	Description string                        `json:"description,omitempty"`
	Type        string                        `json:"type,omitempty"`
	Default     string                        `json:"default,omitempty"`
	Units       string                        `json:"units,omitempty"`
	Presence    bool                          `json:"presence,omitempty"`
	Keys        []string                      `json:"keys,omitempty"`
	Children    map[string]*SchemaDigestEntry `json:"children,omitempty"`
}

// RenderSchemaDigest builds the §6 schema digest for root's data children,
// keyed by instance-name ("module:local" at namespace boundaries, "local"
// otherwise).
func RenderSchemaDigest(root *SchemaNode) map[string]*SchemaDigestEntry {
	return digestChildren(root)
}

func digestChildren(n *SchemaNode) map[string]*SchemaDigestEntry {
	children := n.DataChildren()
	if len(children) == 0 {
		return nil
	}
	out := make(map[string]*SchemaDigestEntry, len(children))
	for _, c := range children {
		out[digestKey(n, c)] = digestEntry(c)
	}
	return out
}

func digestKey(parent, child *SchemaNode) string {
	if parent.Kind == SNSchemaRoot || parent.Name.Module != child.Name.Module {
		return child.Name.Module + ":" + child.Name.Local
	}
	return child.Name.Local
}

func digestEntry(n *SchemaNode) *SchemaDigestEntry {
	e := &SchemaDigestEntry{
		Kind:        n.Kind.String(),
		Description: n.Description,
	}
	cfg := n.Content == ContentConfig || n.Content == ContentAll
	e.Config = &cfg
	e.Mandatory = isMandatory(n)
	switch n.Kind {
	case SNLeaf:
		e.Type = typeDisplayName(n.Leaf.Type)
		e.Units = n.Leaf.Units
		if n.Leaf.HasDefault {
			e.Default = n.Leaf.Type.CanonicalString(n.Leaf.Default)
		}
	case SNLeafList:
		e.Type = typeDisplayName(n.LeafList.Type)
		e.Units = n.LeafList.Units
	case SNContainer:
		if n.Container != nil {
			e.Presence = n.Container.Presence
		}
	case SNList:
		for _, k := range n.List.Keys {
			e.Keys = append(e.Keys, k.Local)
		}
	}
	e.Children = digestChildren(n)
	return e
}

// MarshalSchemaDigest renders the digest as indented JSON, per the CLI's
// "--digest" contract.
func MarshalSchemaDigest(root *SchemaNode) ([]byte, error) {
	return json.MarshalIndent(RenderSchemaDigest(root), "", "  ")
}

// sortedChildNames is a small determinism helper for callers that want to
// iterate a digest map in a stable order (json.Marshal of a Go map is
// already key-sorted, but callers printing directly benefit from this).
func sortedChildNames(m map[string]*SchemaDigestEntry) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
