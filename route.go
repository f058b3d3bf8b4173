package yangmodel

import (
	"fmt"
	"strconv"
	"strings"
)

// StepKind tags an InstanceRoute step.
type StepKind int

const (
	StepMemberName StepKind = iota
	StepEntryIndex
	StepEntryValue
	StepEntryKeys
)

// RouteStep is one selector in an instance route.
type RouteStep struct {
	Kind StepKind

	Name string // StepMemberName: "[module:]local" instance-name

	Index int // StepEntryIndex: 0-based

	Value string // StepEntryValue: textual form of a leaf-list scalar

	Keys     map[string]string // StepEntryKeys: key-name -> textual value
	KeyOrder []string          // preserves declared key order for formatting
}

func (s RouteStep) Equal(o RouteStep) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case StepMemberName:
		return s.Name == o.Name
	case StepEntryIndex:
		return s.Index == o.Index
	case StepEntryValue:
		return s.Value == o.Value
	case StepEntryKeys:
		if len(s.Keys) != len(o.Keys) {
			return false
		}
		for k, v := range s.Keys {
			if o.Keys[k] != v {
				return false
			}
		}
		return true
	}
	return false
}

// InstanceRoute is an ordered sequence of RouteStep, produced by parsing an
// instance identifier or resource identifier, or built directly from a
// schema route plus values.
type InstanceRoute []RouteStep

func (r InstanceRoute) Equal(o InstanceRoute) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// ParseInstanceIdentifier parses the RFC 7951 §6.11 instance-identifier
// grammar: an absolute path of "/prefix:name" components, each optionally
// followed by predicates "[key="value"]" or "[position]".
func ParseInstanceIdentifier(text string) (InstanceRoute, error) {
	if !strings.HasPrefix(text, "/") {
		return nil, &ParseError{Kind: ParseInvalidXPath, Input: text, Reason: "instance-identifier must be absolute"}
	}
	p := &routeParser{s: text, i: 1}
	var route InstanceRoute
	for {
		name, err := p.readNameSegment()
		if err != nil {
			return nil, err
		}
		step := RouteStep{Kind: StepMemberName, Name: name}
		route = append(route, step)
		preds, err := p.readPredicates()
		if err != nil {
			return nil, err
		}
		if len(preds) > 0 {
			route = append(route, preds...)
		}
		if p.i >= len(p.s) {
			break
		}
		if p.s[p.i] != '/' {
			return nil, &ParseError{Kind: ParseUnexpectedInput, Input: text, Pos: p.i, Reason: "expected '/'"}
		}
		p.i++
	}
	return route, nil
}

type routeParser struct {
	s string
	i int
}

func (p *routeParser) readNameSegment() (string, error) {
	start := p.i
	for p.i < len(p.s) && p.s[p.i] != '/' && p.s[p.i] != '[' {
		p.i++
	}
	if start == p.i {
		return "", &ParseError{Kind: ParseUnexpectedInput, Input: p.s, Pos: p.i, Reason: "expected name"}
	}
	return p.s[start:p.i], nil
}

// readPredicates consumes zero or more "[...]" groups following a name
// segment and converts them to either a single StepEntryKeys step (all
// "key='value'" predicates) or a single StepEntryIndex/StepEntryValue step
// (a bare "[N]" or "[.='value']").
func (p *routeParser) readPredicates() ([]RouteStep, error) {
	keys := map[string]string{}
	var order []string
	var leafListValue string
	var position string
	any := false
	for p.i < len(p.s) && p.s[p.i] == '[' {
		any = true
		p.i++
		start := p.i
		for p.i < len(p.s) && p.s[p.i] != ']' {
			p.i++
		}
		if p.i >= len(p.s) {
			return nil, &ParseError{Kind: ParseEndOfInput, Input: p.s, Reason: "unterminated predicate"}
		}
		pred := p.s[start:p.i]
		p.i++ // skip ']'
		if eq := strings.IndexByte(pred, '='); eq >= 0 {
			key := strings.TrimSpace(pred[:eq])
			val := strings.Trim(strings.TrimSpace(pred[eq+1:]), `'"`)
			if key == "." {
				leafListValue = val
			} else {
				_, local := SplitPrefixed(key)
				if _, exists := keys[local]; !exists {
					order = append(order, local)
				}
				keys[local] = val
			}
		} else {
			position = strings.TrimSpace(pred)
		}
	}
	if !any {
		return nil, nil
	}
	if leafListValue != "" {
		return []RouteStep{{Kind: StepEntryValue, Value: leafListValue}}, nil
	}
	if len(keys) > 0 {
		return []RouteStep{{Kind: StepEntryKeys, Keys: keys, KeyOrder: order}}, nil
	}
	n, err := strconv.Atoi(position)
	if err != nil {
		return nil, &ParseError{Kind: ParseUnexpectedInput, Input: p.s, Reason: "invalid predicate " + position}
	}
	return []RouteStep{{Kind: StepEntryIndex, Index: n - 1}}, nil
}

// FormatInstanceIdentifier renders an InstanceRoute in the RFC 7951 §6.11
// textual form.
func FormatInstanceIdentifier(route InstanceRoute) string {
	var b strings.Builder
	for _, s := range route {
		switch s.Kind {
		case StepMemberName:
			b.WriteByte('/')
			b.WriteString(s.Name)
		case StepEntryIndex:
			fmt.Fprintf(&b, "[%d]", s.Index+1)
		case StepEntryValue:
			fmt.Fprintf(&b, "[.=%q]", s.Value)
		case StepEntryKeys:
			for _, k := range s.KeyOrder {
				fmt.Fprintf(&b, "[%s=%q]", k, s.Keys[k])
			}
		}
	}
	return b.String()
}

// ParseResourceIdentifier parses RESTCONF api-path syntax (RFC 8040
// §3.5.3), extended so the final component may name a list/leaf-list with
// no key/value (selecting the whole collection).
func ParseResourceIdentifier(text string) (InstanceRoute, error) {
	text = strings.Trim(text, "/")
	if text == "" {
		return nil, nil
	}
	var route InstanceRoute
	for _, seg := range strings.Split(text, "/") {
		name, keyPart, hasKeys := cutByte(seg, '=')
		route = append(route, RouteStep{Kind: StepMemberName, Name: name})
		if hasKeys {
			values := strings.Split(keyPart, ",")
			for i, v := range values {
				values[i] = unescapeRFC8040(v)
			}
			route = append(route, RouteStep{Kind: StepEntryKeys, Keys: map[string]string{"__positional__": ""}, KeyOrder: nil, Value: strings.Join(values, ",")})
		}
	}
	return route, nil
}

func cutByte(s string, b byte) (before, after string, found bool) {
	if i := strings.IndexByte(s, b); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

func unescapeRFC8040(v string) string {
	v = strings.ReplaceAll(v, "%2C", ",")
	v = strings.ReplaceAll(v, "%2F", "/")
	return v
}
