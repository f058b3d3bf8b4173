package yangmodel

import (
	"fmt"
	"regexp"
)

var builtinTypeNames = map[string]TypeKind{
	"int8": KindInt8, "int16": KindInt16, "int32": KindInt32, "int64": KindInt64,
	"uint8": KindUint8, "uint16": KindUint16, "uint32": KindUint32, "uint64": KindUint64,
	"decimal64": KindDecimal64, "string": KindString, "binary": KindBinary,
	"boolean": KindBoolean, "empty": KindEmpty, "bits": KindBits,
	"enumeration": KindEnumeration, "identityref": KindIdentityref,
	"instance-identifier": KindInstanceIdentifier, "leafref": KindLeafref,
	"union": KindUnion,
}

// CompileType compiles a "type" statement into a DataType, resolving a
// chain of typedefs into a single compressed object whose base is a
// built-in kind. contextModule is the module the type statement itself
// appears in (used for prefix resolution of "base"/"path"/typedef names).
func (r *Registry) CompileType(typeStmt *Statement, contextModule ModuleID) (*DataType, error) {
	return r.compileType(typeStmt, contextModule, map[QName]bool{})
}

func (r *Registry) compileType(typeStmt *Statement, contextModule ModuleID, visiting map[QName]bool) (*DataType, error) {
	prefix, local := SplitPrefixed(typeStmt.Argument)
	if prefix == "" {
		if kind, ok := builtinTypeNames[local]; ok {
			dt := &DataType{Kind: kind, DeclaringModule: contextModule}
			if isIntegerKind(kind) {
				dt.Ranges = []Range{builtinRange(kind)}
			}
			if kind == KindString || kind == KindBinary {
				dt.Lengths = []Length{{Min: 0, Max: maxInt}}
			}
			if err := r.applyRestrictions(dt, typeStmt, contextModule, visiting); err != nil {
				return nil, err
			}
			return dt, nil
		}
	}
	// Derived type: resolve the typedef chain.
	self := QName{Local: local, Module: contextModule.Module}
	if prefix != "" {
		mid, err := r.prefixToModuleID(prefix, contextModule)
		if err != nil {
			return nil, err
		}
		self = QName{Local: local, Module: mid.Module}
	}
	if visiting[self] {
		return nil, &CyclicImportsError{Cycle: []string{self.String()}}
	}
	visiting[self] = true
	defer delete(visiting, self)

	def, defModule, err := r.GetDefinition("typedef", typeStmt.Argument, typeStmt, contextModule)
	if err != nil {
		return nil, err
	}
	baseTypeStmt := def.Find("type")
	if baseTypeStmt == nil {
		return nil, &DefinitionNotFoundError{Kind: "type", Name: typeStmt.Argument}
	}
	dt, err := r.compileType(baseTypeStmt, defModule, visiting)
	if err != nil {
		return nil, err
	}
	cp := *dt
	cp.Name = local
	cp.DeclaringModule = contextModule
	if d := def.Find("default"); d != nil {
		if v, err := cp.ParseValue(d.Argument); err == nil {
			cp.Default, cp.HasDefault = v, true
		}
	}
	if err := r.applyRestrictions(&cp, typeStmt, contextModule, visiting); err != nil {
		return nil, err
	}
	return &cp, nil
}

// applyRestrictions narrows dt in place per the substatements of typeStmt,
// which must only ever restrict, never widen, the inherited base (spec
// §4.4).
func (r *Registry) applyRestrictions(dt *DataType, typeStmt *Statement, contextModule ModuleID, visiting map[QName]bool) error {
	if rng := typeStmt.Find("range"); rng != nil && isIntegerKind(dt.Kind) {
		ranges, err := parseRangeArg(rng.Argument, dt.Ranges)
		if err != nil {
			return err
		}
		dt.Ranges = ranges
		applyErrorInfo(dt, rng)
	}
	if dt.Kind == KindDecimal64 {
		if fd := typeStmt.Find("fraction-digits"); fd != nil {
			var n int
			fmt.Sscanf(fd.Argument, "%d", &n)
			dt.FractionDigits = n
			if dt.Ranges == nil {
				dt.Ranges = []Range{{Min: decimal64Min(n), Max: decimal64Max(n)}}
			}
		}
		if rng := typeStmt.Find("range"); rng != nil {
			ranges, err := parseDecimalRangeArg(rng.Argument, dt.FractionDigits, dt.Ranges)
			if err != nil {
				return err
			}
			dt.Ranges = ranges
			applyErrorInfo(dt, rng)
		}
	}
	if ln := typeStmt.Find("length"); ln != nil && (dt.Kind == KindString || dt.Kind == KindBinary) {
		lens, err := parseLengthArg(ln.Argument, dt.Lengths)
		if err != nil {
			return err
		}
		dt.Lengths = lens
		applyErrorInfo(dt, ln)
	}
	for _, pat := range typeStmt.FindAll("pattern") {
		re, err := compileYANGPattern(pat.Argument)
		if err != nil {
			return err
		}
		inverted := false
		if m := pat.Find("modifier"); m != nil && m.Argument == "invert-match" {
			inverted = true
		}
		if inverted {
			dt.InvertPatterns = append(dt.InvertPatterns, re)
			dt.InvertPatternSource = append(dt.InvertPatternSource, pat.Argument)
		} else {
			dt.Patterns = append(dt.Patterns, re)
			dt.PatternSource = append(dt.PatternSource, pat.Argument)
		}
		applyErrorInfo(dt, pat)
	}
	if dt.Kind == KindEnumeration {
		if enums := typeStmt.FindAll("enum"); len(enums) > 0 {
			dt.EnumValues = map[string]int64{}
			next := int64(0)
			for _, e := range enums {
				val := next
				if v := e.Find("value"); v != nil {
					fmt.Sscanf(v.Argument, "%d", &val)
				}
				dt.EnumValues[e.Argument] = val
				next = val + 1
			}
		}
	}
	if dt.Kind == KindBits {
		if bits := typeStmt.FindAll("bit"); len(bits) > 0 {
			dt.BitPositions = map[string]int64{}
			next := int64(0)
			for _, b := range bits {
				pos := next
				if p := b.Find("position"); p != nil {
					fmt.Sscanf(p.Argument, "%d", &pos)
				}
				dt.BitPositions[b.Argument] = pos
				next = pos + 1
			}
		}
	}
	if dt.Kind == KindIdentityref {
		for _, b := range typeStmt.FindAll("base") {
			loc, mid, err := r.ResolvePName(b.Argument, contextModule)
			if err != nil {
				return err
			}
			dt.IdentityBases = append(dt.IdentityBases, QName{Local: loc, Module: mid.Module})
		}
	}
	if dt.Kind == KindInstanceIdentifier || dt.Kind == KindLeafref {
		dt.RequireInstance = true
		if ri := typeStmt.Find("require-instance"); ri != nil {
			dt.RequireInstance = ri.Argument == "true"
		}
	}
	if dt.Kind == KindLeafref {
		if p := typeStmt.Find("path"); p != nil {
			dt.LeafrefPath = p.Argument
		}
	}
	if dt.Kind == KindUnion {
		for _, m := range typeStmt.FindAll("type") {
			mt, err := r.compileType(m, contextModule, visiting)
			if err != nil {
				return err
			}
			dt.UnionMembers = append(dt.UnionMembers, mt)
		}
	}
	return nil
}

func applyErrorInfo(dt *DataType, stmt *Statement) {
	if t := stmt.Find("error-app-tag"); t != nil {
		dt.ErrorTag = ErrorTag(t.Argument)
	}
	if m := stmt.Find("error-message"); m != nil {
		dt.ErrorMessage = m.Argument
	}
}

func decimal64Min(int) int64 { return -9223372036854775807 - 1 }

func decimal64Max(int) int64 { return 9223372036854775807 }

// compileYANGPattern translates a YANG (XSD-flavoured) pattern into a Go
// regexp with implicit whole-string anchoring. The common XSD constructs (character
// classes, quantifiers, anchors, groups) are a direct subset of RE2
// syntax; XSD-specific escapes outside that common subset (such as \i or
// \c) are not translated, so a pattern using them fails to compile and is
// reported as an error.
func compileYANGPattern(pattern string) (*regexp.Regexp, error) {
	anchored := "^(?:" + pattern + ")$"
	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, &InvalidFeatureExpressionError{Expr: pattern, Reason: err.Error()}
	}
	return re, nil
}
