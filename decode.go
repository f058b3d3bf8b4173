package yangmodel

import (
	"fmt"
	"time"
)

// DecodeInstance cooks a whole raw JSON instance document (as produced by
// encoding/json.Unmarshal into map[string]interface{}) into an ObjectValue
// rooted at schema, recursively driving the raw->cooked boundary (spec
// §4.4 "Conversion operations", §6 "JSON instance encoding"). This is the
// one entry point that turns a parsed JSON document into the value a
// zipper Focus is built over; FromRaw/ToRaw on DataType handle only a
// single leaf/leaf-list scalar.
func DecodeInstance(schema *SchemaNode, raw map[string]interface{}) (*ObjectValue, error) {
	return decodeObject(schema, raw, nowMillis())
}

func nowMillis() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

func decodeObject(schema *SchemaNode, raw map[string]interface{}, ts int64) (*ObjectValue, error) {
	var order []string
	members := map[string]CookedValue{}
	for name, rv := range raw {
		child := resolveDataChildByInstanceName(schema, name)
		if child == nil {
			return nil, &RawMemberError{Name: name}
		}
		v, err := decodeValue(child, rv, ts)
		if err != nil {
			return nil, err
		}
		order = append(order, child.Name.Local)
		members[child.Name.Local] = v
	}
	return NewObjectValue(order, members, ts), nil
}

func decodeValue(schema *SchemaNode, raw interface{}, ts int64) (CookedValue, error) {
	switch schema.Kind {
	case SNContainer, SNSchemaRoot, SNGroup:
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "container", Value: raw}
		}
		o, err := decodeObject(schema, obj, ts)
		if err != nil {
			return CookedValue{}, err
		}
		return CookedValue{Kind: ValObject, Object: o}, nil
	case SNList:
		arr, ok := raw.([]interface{})
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "list", Value: raw}
		}
		entries := make([]CookedValue, 0, len(arr))
		for _, e := range arr {
			obj, ok := e.(map[string]interface{})
			if !ok {
				return CookedValue{}, &RawTypeError{Type: "list entry", Value: e}
			}
			o, err := decodeObject(schema, obj, ts)
			if err != nil {
				return CookedValue{}, err
			}
			entries = append(entries, CookedValue{Kind: ValObject, Object: o})
		}
		return CookedValue{Kind: ValArray, Array: NewArrayValue(entries, ts)}, nil
	case SNLeafList:
		arr, ok := raw.([]interface{})
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "leaf-list", Value: raw}
		}
		entries := make([]CookedValue, 0, len(arr))
		for _, e := range arr {
			v, err := schema.LeafList.Type.FromRaw(e)
			if err != nil {
				return CookedValue{}, err
			}
			entries = append(entries, v)
		}
		return CookedValue{Kind: ValArray, Array: NewArrayValue(entries, ts)}, nil
	case SNLeaf:
		return schema.Leaf.Type.FromRaw(raw)
	case SNAnydata, SNAnyxml:
		return decodeAnydata(raw, ts), nil
	default:
		return CookedValue{}, fmt.Errorf("yangmodel: cannot decode instance data for schema kind %s", schema.Kind)
	}
}

// decodeAnydata cooks an anydata/anyxml subtree without schema guidance:
// objects and arrays become ObjectValue/ArrayValue of recursively-decoded
// children, strings and booleans keep their kind, null becomes an empty
// value, and any other scalar is rendered as a string.
func decodeAnydata(raw interface{}, ts int64) CookedValue {
	switch v := raw.(type) {
	case map[string]interface{}:
		var order []string
		members := map[string]CookedValue{}
		for k, rv := range v {
			order = append(order, k)
			members[k] = decodeAnydata(rv, ts)
		}
		return CookedValue{Kind: ValObject, Object: NewObjectValue(order, members, ts)}
	case []interface{}:
		entries := make([]CookedValue, 0, len(v))
		for _, e := range v {
			entries = append(entries, decodeAnydata(e, ts))
		}
		return CookedValue{Kind: ValArray, Array: NewArrayValue(entries, ts)}
	case string:
		return CookedValue{Kind: ValString, Str: v}
	case bool:
		return CookedValue{Kind: ValBool, Bool: v}
	case nil:
		return CookedValue{Kind: ValEmpty}
	default:
		return CookedValue{Kind: ValString, Str: fmt.Sprintf("%v", v)}
	}
}

// EncodeInstance is the inverse of DecodeInstance, rendering a cooked
// ObjectValue back to RFC 7951 JSON-ready Go values (map[string]interface{}
// / []interface{} / scalars) via ToRaw at the leaves.
func EncodeInstance(schema *SchemaNode, obj *ObjectValue) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, name := range obj.Names() {
		v, _ := obj.Get(name)
		child := schema.Child(QName{Local: name, Module: schema.Name.Module})
		if child == nil {
			for _, c := range schema.DataChildren() {
				if c.Name.Local == name {
					child = c
					break
				}
			}
		}
		if child == nil {
			return nil, &RawMemberError{Name: name}
		}
		rv, err := encodeValue(child, v)
		if err != nil {
			return nil, err
		}
		out[digestKey(schema, child)] = rv
	}
	return out, nil
}

func encodeValue(schema *SchemaNode, v CookedValue) (interface{}, error) {
	switch schema.Kind {
	case SNContainer, SNSchemaRoot, SNGroup:
		if v.Kind != ValObject {
			return nil, &InstanceValueError{Reason: "expected object for " + schema.Kind.String()}
		}
		return EncodeInstance(schema, v.Object)
	case SNList:
		if v.Kind != ValArray {
			return nil, &InstanceValueError{Reason: "expected array for list"}
		}
		out := make([]interface{}, 0, v.Array.Len())
		for _, e := range v.Array.Entries() {
			rv, err := EncodeInstance(schema, e.Object)
			if err != nil {
				return nil, err
			}
			out = append(out, rv)
		}
		return out, nil
	case SNLeafList:
		if v.Kind != ValArray {
			return nil, &InstanceValueError{Reason: "expected array for leaf-list"}
		}
		out := make([]interface{}, 0, v.Array.Len())
		for _, e := range v.Array.Entries() {
			rv, err := schema.LeafList.Type.ToRaw(e)
			if err != nil {
				return nil, err
			}
			out = append(out, rv)
		}
		return out, nil
	case SNLeaf:
		return schema.Leaf.Type.ToRaw(v)
	case SNAnydata, SNAnyxml:
		return encodeAnydata(v), nil
	default:
		return nil, fmt.Errorf("yangmodel: cannot encode instance data for schema kind %s", schema.Kind)
	}
}

func encodeAnydata(v CookedValue) interface{} {
	switch v.Kind {
	case ValObject:
		out := map[string]interface{}{}
		for _, k := range v.Object.Names() {
			mv, _ := v.Object.Get(k)
			out[k] = encodeAnydata(mv)
		}
		return out
	case ValArray:
		out := make([]interface{}, 0, v.Array.Len())
		for _, e := range v.Array.Entries() {
			out = append(out, encodeAnydata(e))
		}
		return out
	case ValBool:
		return v.Bool
	case ValEmpty:
		return nil
	default:
		return v.Str
	}
}
