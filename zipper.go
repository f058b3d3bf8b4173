package yangmodel

import "strings"

// FocusKind tags a zipper Focus's variant.
type FocusKind int

const (
	FocusRoot FocusKind = iota
	FocusObjectMember
	FocusArrayEntry
)

// Focus is an immutable zipper position on the instance tree. Mutating
// operations return a new Focus; the subtree reachable from the original
// remains valid and unmodified. The parent focus is an owned pointer; there is no
// back-pointer from parent to child.
type Focus struct {
	Kind      FocusKind
	Value     CookedValue
	Schema    *SchemaNode
	Timestamp int64
	Parent    *Focus

	// FocusObjectMember
	Name     string
	Siblings *ObjectValue // the parent object as seen when this focus was created

	// FocusArrayEntry
	Index  int
	Before []CookedValue
	After  []CookedValue
}

// NewRootFocus builds the zipper's root focus over a top-level instance
// object, rooted at the data model's SchemaRoot node.
func NewRootFocus(root *SchemaNode, value *ObjectValue, ts int64) *Focus {
	return &Focus{Kind: FocusRoot, Schema: root, Value: CookedValue{Kind: ValObject, Object: value}, Timestamp: ts}
}

func (f *Focus) instanceName() string {
	if f.Schema.Name.Module == "" {
		return f.Name
	}
	if f.Parent != nil && f.Parent.Schema.Name.Module == f.Schema.Name.Module {
		return f.Schema.Name.Local
	}
	return f.Schema.Name.Module + ":" + f.Schema.Name.Local
}

// Route reconstructs the InstanceRoute from the zipper root to f.
func (f *Focus) Route() InstanceRoute {
	var steps []RouteStep
	for n := f; n != nil && n.Parent != nil; n = n.Parent {
		switch n.Kind {
		case FocusObjectMember:
			steps = append(steps, RouteStep{Kind: StepMemberName, Name: n.instanceName()})
		case FocusArrayEntry:
			steps = append(steps, stepForEntry(n))
		}
	}
	out := make(InstanceRoute, len(steps))
	for i, s := range steps {
		out[len(steps)-1-i] = s
	}
	return out
}

func stepForEntry(n *Focus) RouteStep {
	if n.Schema.Kind == SNList && n.Schema.List != nil {
		keys := map[string]string{}
		var order []string
		obj, _ := n.Value.Object, true
		_ = obj
		if n.Value.Kind == ValObject {
			for _, k := range n.Schema.List.Keys {
				if v, ok := n.Value.Object.Get(k.Local); ok {
					keyType := n.Schema.Child(k).Leaf.Type
					keys[k.Local] = keyType.CanonicalString(v)
					order = append(order, k.Local)
				}
			}
		}
		return RouteStep{Kind: StepEntryKeys, Keys: keys, KeyOrder: order}
	}
	if n.Schema.Kind == SNLeafList && n.Schema.LeafList != nil {
		return RouteStep{Kind: StepEntryValue, Value: n.Schema.LeafList.Type.CanonicalString(n.Value)}
	}
	return RouteStep{Kind: StepEntryIndex, Index: n.Index}
}

// zipUp reconstructs f's parent with f's current Value folded back in,
// bumping the parent's timestamp to now.
func zipUp(f *Focus, now int64) *Focus {
	if f.Parent == nil {
		return f
	}
	p := *f.Parent
	switch f.Kind {
	case FocusObjectMember:
		obj := f.Siblings.With(f.Name, f.Value, now)
		p.Value = CookedValue{Kind: ValObject, Object: obj}
	case FocusArrayEntry:
		entries := make([]CookedValue, 0, len(f.Before)+1+len(f.After))
		entries = append(entries, f.Before...)
		entries = append(entries, f.Value)
		entries = append(entries, f.After...)
		p.Value = CookedValue{Kind: ValArray, Array: NewArrayValue(entries, now)}
	}
	p.Timestamp = now
	return &p
}

// Up implements up(): one level toward the root.
func (f *Focus) Up(now int64) (*Focus, error) {
	if f.Parent == nil {
		return nil, &NonexistentInstanceError{Route: "/"}
	}
	return zipUp(f, now), nil
}

// Top implements top(): rezip all the way to the root.
func (f *Focus) Top(now int64) *Focus {
	cur := f
	for cur.Parent != nil {
		cur = zipUp(cur, now)
	}
	return cur
}

// Member implements member(name): object-descent by instance-name.
func (f *Focus) Member(name string) (*Focus, error) {
	if f.Value.Kind != ValObject {
		return nil, &InstanceValueError{Reason: "member() on a non-object focus"}
	}
	_, local := SplitPrefixed(name)
	child := f.Schema.Child(QName{Local: local, Module: f.Schema.Name.Module})
	if child == nil {
		for _, c := range f.Schema.DataChildren() {
			if c.Name.Local == local {
				child = c
				break
			}
		}
	}
	if child == nil {
		return nil, &NonexistentSchemaNodeError{Path: name}
	}
	v, ok := f.Value.Object.Get(child.Name.Local)
	if !ok {
		return nil, &NonexistentInstanceError{Route: name}
	}
	return &Focus{
		Kind: FocusObjectMember, Value: v, Schema: child,
		Timestamp: f.Value.Object.LastModified(), Parent: f,
		Name: child.Name.Local, Siblings: f.Value.Object,
	}, nil
}

// Entry implements entry(index): array-descent.
func (f *Focus) Entry(index int) (*Focus, error) {
	if f.Value.Kind != ValArray {
		return nil, &InstanceValueError{Reason: "entry() on a non-array focus"}
	}
	if index < 0 || index >= f.Value.Array.Len() {
		return nil, &NonexistentInstanceError{Route: "[]"}
	}
	entries := f.Value.Array.Entries()
	v, _ := f.Value.Array.At(index)
	return &Focus{
		Kind: FocusArrayEntry, Value: v, Schema: f.Schema,
		Timestamp: f.Value.Array.LastModified(), Parent: f,
		Index: index, Before: entries[:index], After: entries[index+1:],
	}, nil
}

// LastEntry implements last_entry().
func (f *Focus) LastEntry() (*Focus, error) {
	if f.Value.Kind != ValArray {
		return nil, &InstanceValueError{Reason: "last_entry() on a non-array focus"}
	}
	return f.Entry(f.Value.Array.Len() - 1)
}

// LookUp implements look_up(key_map): list-entry selection by list keys.
func (f *Focus) LookUp(keys map[string]string) (*Focus, error) {
	if f.Value.Kind != ValArray || f.Schema.Kind != SNList {
		return nil, &InstanceValueError{Reason: "look_up() on a non-list focus"}
	}
	for i, v := range f.Value.Array.Entries() {
		if v.Kind != ValObject {
			continue
		}
		match := true
		for _, k := range f.Schema.List.Keys {
			want, ok := keys[k.Local]
			if !ok {
				match = false
				break
			}
			got, ok := v.Object.Get(k.Local)
			if !ok {
				match = false
				break
			}
			kt := f.Schema.Child(k).Leaf.Type
			if kt.CanonicalString(got) != want {
				match = false
				break
			}
		}
		if match {
			return f.Entry(i)
		}
	}
	return nil, &NonexistentInstanceError{Route: "look_up"}
}

// Sibling implements sibling(name): object-sibling switch.
func (f *Focus) Sibling(name string) (*Focus, error) {
	if f.Kind != FocusObjectMember {
		return nil, &InstanceValueError{Reason: "sibling() on a non-member focus"}
	}
	parent, err := f.Up(f.Timestamp)
	if err != nil {
		return nil, err
	}
	return parent.Member(name)
}

// Previous implements previous(): array-sibling move toward index 0. The
// new Before is a re-slice of f's Before and shares its storage; the new
// After is a fresh slice holding f's value followed by f's After.
func (f *Focus) Previous() (*Focus, error) {
	if f.Kind != FocusArrayEntry || len(f.Before) == 0 {
		return nil, &NonexistentInstanceError{Route: "previous"}
	}
	n := *f
	n.Index--
	n.Value = f.Before[len(f.Before)-1]
	n.Before = f.Before[:len(f.Before)-1]
	n.After = append([]CookedValue{f.Value}, f.After...)
	return &n, nil
}

// Next implements next().
func (f *Focus) Next() (*Focus, error) {
	if f.Kind != FocusArrayEntry || len(f.After) == 0 {
		return nil, &NonexistentInstanceError{Route: "next"}
	}
	n := *f
	n.Index++
	n.Value = f.After[0]
	n.After = f.After[1:]
	n.Before = append(append([]CookedValue{}, f.Before...), f.Value)
	return &n, nil
}

// Goto implements goto(instance_route): compose moves, surfacing the first
// failing step's error.
func (f *Focus) Goto(route InstanceRoute, now int64) (*Focus, error) {
	cur := f
	var err error
	for _, s := range route {
		switch s.Kind {
		case StepMemberName:
			cur, err = cur.Member(s.Name)
		case StepEntryIndex:
			cur, err = cur.Entry(s.Index)
		case StepEntryKeys:
			cur, err = cur.LookUp(s.Keys)
		case StepEntryValue:
			cur, err = cur.lookUpLeafListValue(s.Value)
		}
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (f *Focus) lookUpLeafListValue(text string) (*Focus, error) {
	if f.Value.Kind != ValArray || f.Schema.Kind != SNLeafList {
		return nil, &InstanceValueError{Reason: "leaf-list entry lookup on a non-leaf-list focus"}
	}
	dt := f.Schema.LeafList.Type
	for i, v := range f.Value.Array.Entries() {
		if dt.CanonicalString(v) == text {
			return f.Entry(i)
		}
	}
	return nil, &NonexistentInstanceError{Route: text}
}

// Update implements update(new_value).
func (f *Focus) Update(v CookedValue, now int64) *Focus {
	n := *f
	n.Value = v
	n.Timestamp = now
	return &n
}

// UpdateFromRaw implements update_from_raw(raw).
func (f *Focus) UpdateFromRaw(raw interface{}, now int64) (*Focus, error) {
	dt, err := f.leafType()
	if err != nil {
		return nil, err
	}
	v, err := dt.FromRaw(raw)
	if err != nil {
		return nil, err
	}
	return f.Update(v, now), nil
}

func (f *Focus) leafType() (*DataType, error) {
	switch f.Schema.Kind {
	case SNLeaf:
		return f.Schema.Leaf.Type, nil
	case SNLeafList:
		return f.Schema.LeafList.Type, nil
	default:
		return nil, &InstanceValueError{Reason: "not a leaf or leaf-list focus"}
	}
}

// PutMember implements put_member(name, value).
func (f *Focus) PutMember(name string, v CookedValue, now int64) (*Focus, error) {
	if f.Value.Kind != ValObject {
		return nil, &InstanceValueError{Reason: "put_member() on a non-object focus"}
	}
	_, local := SplitPrefixed(name)
	if f.Schema.Child(QName{Local: local, Module: f.Schema.Name.Module}) == nil {
		found := false
		for _, c := range f.Schema.DataChildren() {
			if c.Name.Local == local {
				found = true
				break
			}
		}
		if !found {
			return nil, &NonexistentSchemaNodeError{Path: name}
		}
	}
	obj := f.Value.Object.With(local, v, now)
	return f.Update(CookedValue{Kind: ValObject, Object: obj}, now), nil
}

// DeleteMember implements delete_member(name).
func (f *Focus) DeleteMember(name string, now int64) (*Focus, error) {
	if f.Value.Kind != ValObject {
		return nil, &InstanceValueError{Reason: "delete_member() on a non-object focus"}
	}
	_, local := SplitPrefixed(name)
	obj := f.Value.Object.Without(local, now)
	return f.Update(CookedValue{Kind: ValObject, Object: obj}, now), nil
}

// InsertBefore implements insert_before(value): the returned focus is on
// the newly-inserted entry.
func (f *Focus) InsertBefore(v CookedValue) (*Focus, error) {
	if f.Kind != FocusArrayEntry {
		return nil, &InstanceValueError{Reason: "insert_before() on a non-entry focus"}
	}
	n := *f
	n.After = append([]CookedValue{f.Value}, f.After...)
	n.Value = v
	return &n, nil
}

// InsertAfter implements insert_after(value): the returned focus is on the
// newly-inserted entry.
func (f *Focus) InsertAfter(v CookedValue) (*Focus, error) {
	if f.Kind != FocusArrayEntry {
		return nil, &InstanceValueError{Reason: "insert_after() on a non-entry focus"}
	}
	n := *f
	n.Before = append(append([]CookedValue{}, f.Before...), f.Value)
	n.Index++
	n.Value = v
	return &n, nil
}

// DeleteEntry implements delete_entry(index): removes an entry from an
// array-valued focus (the list/leaf-list focus itself, not one of its
// entries).
func (f *Focus) DeleteEntry(index int, now int64) (*Focus, error) {
	if f.Value.Kind != ValArray {
		return nil, &InstanceValueError{Reason: "delete_entry() on a non-array focus"}
	}
	a := f.Value.Array.RemovedAt(index, now)
	return f.Update(CookedValue{Kind: ValArray, Array: a}, now), nil
}

// Peek implements peek(instance_route): a read-only walk that returns the
// raw (shared, do-not-mutate) in-tree value without constructing a focus.
func (f *Focus) Peek(route InstanceRoute) (CookedValue, bool) {
	cur := f.Value
	for _, s := range route {
		switch s.Kind {
		case StepMemberName:
			if cur.Kind != ValObject {
				return CookedValue{}, false
			}
			_, local := SplitPrefixed(s.Name)
			v, ok := cur.Object.Get(local)
			if !ok {
				return CookedValue{}, false
			}
			cur = v
		case StepEntryIndex:
			if cur.Kind != ValArray {
				return CookedValue{}, false
			}
			v, ok := cur.Array.At(s.Index)
			if !ok {
				return CookedValue{}, false
			}
			cur = v
		case StepEntryKeys, StepEntryValue:
			found := false
			if cur.Kind == ValArray {
				for i := 0; i < cur.Array.Len(); i++ {
					v, _ := cur.Array.At(i)
					if entryMatches(v, s) {
						cur = v
						found = true
						break
					}
				}
			}
			if !found {
				return CookedValue{}, false
			}
		}
	}
	return cur, true
}

func entryMatches(v CookedValue, s RouteStep) bool {
	if s.Kind == StepEntryValue {
		return v.Kind == ValString && v.Str == s.Value
	}
	if v.Kind != ValObject {
		return false
	}
	for k, want := range s.Keys {
		got, ok := v.Object.Get(k)
		if !ok || got.Str != want {
			return false
		}
	}
	return true
}

// AddDefaults implements add_defaults(): walks f's subtree inserting
// default members/values per YANG §7.6.1/§7.7.2, gated by each default's
// governing `when`. Only object/array structure is descended;
// leaves have no sub-defaults of their own.
func (f *Focus) AddDefaults(now int64) (*Focus, error) {
	switch f.Schema.Kind {
	case SNContainer, SNSchemaRoot, SNGroup:
		return f.addContainerDefaults(now)
	case SNList, SNLeafList:
		return f.addListEntryDefaults(now)
	default:
		return f, nil
	}
}

func (f *Focus) addContainerDefaults(now int64) (*Focus, error) {
	if f.Value.Kind != ValObject {
		return f, nil
	}
	cur := f
	for _, child := range f.Schema.DataChildren() {
		present := false
		if cur.Value.Kind == ValObject {
			_, present = cur.Value.Object.Get(child.Name.Local)
		}
		if !present {
			def, ok := leafDefault(child)
			virtual := &Focus{
				Kind: FocusObjectMember, Value: def, Schema: child,
				Timestamp: now, Parent: cur,
				Name: child.Name.Local, Siblings: cur.Value.Object,
			}
			if ok && whenHolds(child.When, virtual) {
				var err error
				cur, err = cur.PutMember(child.Name.Local, def, now)
				if err != nil {
					return nil, err
				}
				continue
			}
		}
		if present {
			m, err := cur.Member(child.Name.Local)
			if err != nil {
				return nil, err
			}
			m2, err := m.AddDefaults(now)
			if err != nil {
				return nil, err
			}
			cur = zipUp(m2, now)
		}
	}
	return cur, nil
}

func (f *Focus) addListEntryDefaults(now int64) (*Focus, error) {
	if f.Value.Kind != ValArray || f.Schema.Kind != SNList {
		return f, nil
	}
	cur := f
	for i := 0; i < cur.Value.Array.Len(); i++ {
		e, err := cur.Entry(i)
		if err != nil {
			return nil, err
		}
		e2, err := e.addContainerDefaults(now)
		if err != nil {
			return nil, err
		}
		cur = zipUp(e2, now)
	}
	return cur, nil
}

func leafDefault(n *SchemaNode) (CookedValue, bool) {
	if n.Kind == SNLeaf && n.Leaf.HasDefault {
		return n.Leaf.Default, true
	}
	return CookedValue{}, false
}

// FormatRoute renders f's route using the textual instance-identifier form.
func (f *Focus) FormatRoute() string {
	return "/" + strings.TrimPrefix(FormatInstanceIdentifier(f.Route()), "/")
}
