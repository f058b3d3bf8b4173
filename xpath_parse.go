package yangmodel

// xpParser is a recursive-descent parser over the token stream produced by
// lexXPath, implementing the XPath 1.0 grammar plus the YANG
// 1.1 extension function names (parsed here as ordinary FunctionCalls;
// their semantics live in xpath_eval.go).
type xpParser struct {
	toks []xpToken
	pos  int
}

// CompileXPath parses and compiles an XPath expression in the lexical
// scope of contextModule, per Design Notes ("XPath evaluator & schema
// context"): the schema context travels with the AST, not the evaluator.
func CompileXPath(expr string, registry *Registry, contextModule ModuleID) (*XPathExpr, error) {
	toks, err := lexXPath(expr)
	if err != nil {
		return nil, err
	}
	p := &xpParser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != xpEOF {
		return nil, &ParseError{Kind: ParseUnexpectedInput, Input: expr, Reason: "trailing tokens after expression"}
	}
	return &XPathExpr{Source: expr, root: root, registry: registry, contextModule: contextModule}, nil
}

func (p *xpParser) cur() xpToken  { return p.toks[p.pos] }
func (p *xpParser) advance() xpToken {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *xpParser) isOp(s string) bool {
	t := p.cur()
	return t.Kind == xpOperator && t.Text == s
}

func (p *xpParser) expectOp(s string) error {
	if !p.isOp(s) {
		return &ParseError{Kind: ParseUnexpectedInput, Reason: "expected '" + s + "'"}
	}
	p.advance()
	return nil
}

// parseExpr is the grammar's top-level Expr = OrExpr.
func (p *xpParser) parseExpr() (xpNode, error) { return p.parseOr() }

func (p *xpParser) parseOr() (xpNode, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == xpName && p.cur().Text == "or" {
		p.advance()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{Op: "or", LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *xpParser) parseAnd() (xpNode, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == xpName && p.cur().Text == "and" {
		p.advance()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{Op: "and", LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *xpParser) parseEquality() (xpNode, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.isOp("=") || p.isOp("!=") {
		op := p.advance().Text
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *xpParser) parseRelational() (xpNode, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isOp("<") || p.isOp(">") || p.isOp("<=") || p.isOp(">=") {
		op := p.advance().Text
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *xpParser) parseAdditive() (xpNode, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.advance().Text
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *xpParser) parseMultiplicative() (xpNode, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || (p.cur().Kind == xpName && (p.cur().Text == "div" || p.cur().Text == "mod")) {
		op := p.advance().Text
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *xpParser) parseUnary() (xpNode, error) {
	if p.isOp("-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryMinus{Operand: operand}, nil
	}
	return p.parseUnion()
}

func (p *xpParser) parseUnion() (xpNode, error) {
	lhs, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp("|") {
		return lhs, nil
	}
	u := &unionExpr{Parts: []xpNode{lhs}}
	for p.isOp("|") {
		p.advance()
		part, err := p.parsePathExpr()
		if err != nil {
			return nil, err
		}
		u.Parts = append(u.Parts, part)
	}
	return u, nil
}

// parsePathExpr disambiguates between a LocationPath and a FilterExpr
// (optionally continued by a relative location path) using one token of
// lookahead, per the standard hand-written-XPath-parser convention.
func (p *xpParser) parsePathExpr() (xpNode, error) {
	if p.looksLikeLocationPath() {
		return p.parseLocationPath()
	}
	primary, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	var preds []xpNode
	for p.isOp("[") {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	fe := &filterExpr{Primary: primary, Predicates: preds}
	if p.isOp("/") || p.isOp("//") {
		implicitDescendant := p.isOp("//")
		p.advance()
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		if implicitDescendant {
			rel.Steps = append([]*xpStep{{Axis: AxisDescendantOrSelf, Test: nodeTest{Kind: testNode}}}, rel.Steps...)
		}
		return &pathExpr{Start: fe, Rel: rel}, nil
	}
	return fe, nil
}

func (p *xpParser) looksLikeLocationPath() bool {
	t := p.cur()
	if t.Kind == xpOperator {
		switch t.Text {
		case "/", "//", ".", "..", "@":
			return true
		}
		return false
	}
	if t.Kind != xpName {
		return false
	}
	next := p.toks[p.pos+1]
	if next.Kind == xpAxisSep {
		return true
	}
	if t.Text == "*" {
		return true
	}
	if next.Kind == xpOperator && next.Text == "(" {
		switch t.Text {
		case "node", "text", "comment", "processing-instruction":
			return true
		}
		return false // a function call, e.g. current(), derived-from(...)
	}
	return true // bare NameTest
}

func (p *xpParser) parseLocationPath() (xpNode, error) {
	if p.isOp("/") {
		p.advance()
		if p.atStepStart() {
			rel, err := p.parseRelativeLocationPath()
			if err != nil {
				return nil, err
			}
			rel.Absolute = true
			return rel, nil
		}
		return &locationPath{Absolute: true}, nil
	}
	if p.isOp("//") {
		p.advance()
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		rel.Absolute = true
		rel.Steps = append([]*xpStep{{Axis: AxisDescendantOrSelf, Test: nodeTest{Kind: testNode}}}, rel.Steps...)
		return rel, nil
	}
	return p.parseRelativeLocationPath()
}

func (p *xpParser) atStepStart() bool {
	t := p.cur()
	if t.Kind == xpOperator {
		return t.Text == "." || t.Text == ".." || t.Text == "@"
	}
	return t.Kind == xpName
}

func (p *xpParser) parseRelativeLocationPath() (*locationPath, error) {
	lp := &locationPath{}
	step, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	lp.Steps = append(lp.Steps, step)
	for p.isOp("/") || p.isOp("//") {
		implicitDescendant := p.isOp("//")
		p.advance()
		if implicitDescendant {
			lp.Steps = append(lp.Steps, &xpStep{Axis: AxisDescendantOrSelf, Test: nodeTest{Kind: testNode}})
		}
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		lp.Steps = append(lp.Steps, step)
	}
	return lp, nil
}

func (p *xpParser) parseStep() (*xpStep, error) {
	if p.isOp(".") {
		p.advance()
		return &xpStep{Axis: AxisSelf, Test: nodeTest{Kind: testNode}}, nil
	}
	if p.isOp("..") {
		p.advance()
		return &xpStep{Axis: AxisParent, Test: nodeTest{Kind: testNode}}, nil
	}
	axis := AxisChild
	if p.isOp("@") {
		p.advance()
		axis = AxisAttribute
	} else if p.cur().Kind == xpName && p.toks[p.pos+1].Kind == xpAxisSep {
		name := p.advance().Text
		a, ok := axisNames[name]
		if !ok {
			return nil, &ParseError{Kind: ParseNotSupported, Reason: "unknown axis " + name}
		}
		axis = a
		p.advance() // "::"
	}
	test, err := p.parseNodeTest()
	if err != nil {
		return nil, err
	}
	step := &xpStep{Axis: axis, Test: test}
	for p.isOp("[") {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		step.Predicates = append(step.Predicates, pred)
	}
	return step, nil
}

func (p *xpParser) parseNodeTest() (nodeTest, error) {
	t := p.cur()
	if t.Kind != xpName {
		return nodeTest{}, &ParseError{Kind: ParseUnexpectedInput, Reason: "expected node test"}
	}
	name := p.advance().Text
	if p.isOp("(") {
		switch name {
		case "node", "text", "comment", "processing-instruction":
			p.advance()
			if !p.isOp(")") {
				return nodeTest{}, &ParseError{Kind: ParseUnexpectedInput, Reason: "expected ')'"}
			}
			p.advance()
			if name == "text" {
				return nodeTest{Kind: testText}, nil
			}
			return nodeTest{Kind: testNode}, nil
		}
	}
	prefix, local := splitQName(name)
	return nodeTest{Kind: testName, Prefix: prefix, Local: local}, nil
}

func (p *xpParser) parsePredicate() (xpNode, error) {
	if err := p.expectOp("["); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *xpParser) parsePrimaryExpr() (xpNode, error) {
	t := p.cur()
	switch t.Kind {
	case xpVariable:
		p.advance()
		return &variableRef{Name: t.Text}, nil
	case xpNumber:
		p.advance()
		return &numberLit{Val: t.Num}, nil
	case xpLiteral:
		p.advance()
		return &stringLit{Val: t.Text}, nil
	case xpOperator:
		if t.Text == "(" {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	case xpName:
		return p.parseFunctionCall()
	}
	return nil, &ParseError{Kind: ParseUnexpectedInput, Reason: "expected primary expression"}
}

func (p *xpParser) parseFunctionCall() (xpNode, error) {
	name := p.advance().Text
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	call := &functionCall{Name: name}
	if !p.isOp(")") {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.isOp(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return call, nil
}
