package yangmodel

import "strings"

// QName is a qualified name: a local identifier plus the module that
// defines it. Module names, not namespace URIs, are the canonical
// namespace key throughout this package.
type QName struct {
	Local  string
	Module string
}

func (q QName) String() string {
	if q.Module == "" {
		return q.Local
	}
	return q.Module + ":" + q.Local
}

// IsZero reports whether q is the zero value.
func (q QName) IsZero() bool { return q.Local == "" && q.Module == "" }

// ModuleID identifies a single revision of a module. Revision is the empty
// string when the module carries no revision date.
type ModuleID struct {
	Module   string
	Revision string
}

func (m ModuleID) String() string {
	if m.Revision == "" {
		return m.Module + "@"
	}
	return m.Module + "@" + m.Revision
}

// Less gives ModuleID a total order usable for deterministic iteration
// (e.g. when computing the module-set id).
func (m ModuleID) Less(o ModuleID) bool {
	if m.Module != o.Module {
		return m.Module < o.Module
	}
	return m.Revision < o.Revision
}

// SplitPrefixed splits "prefix:local" into its parts. If there is no ':',
// prefix is empty. A ':' inside an XPath value or predicate must be
// stripped by the caller before calling this; SplitPrefixed only looks at
// the first colon.
func SplitPrefixed(s string) (prefix, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// DataRoute is an ordered list of qualified names identifying a descendant
// schema data node (a "schema route" restricted to data nodes).
type DataRoute []QName

func (r DataRoute) String() string {
	var b strings.Builder
	for _, q := range r {
		b.WriteByte('/')
		b.WriteString(q.String())
	}
	return b.String()
}
