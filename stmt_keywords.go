package yangmodel

// argKind classifies how a built-in statement's argument is written, which
// the parser needs to know to decide whether the following token is the
// argument or the opening brace.
type argKind int

const (
	argNone    argKind = iota // no argument, e.g. "input;"
	argIdent                  // a bare identifier or quoted string, single token
	argString                 // a possibly line-wrapped quoted string
)

// builtinStatements maps every YANG 1.1 built-in keyword to its argument
// shape. Statements not listed here are treated as extension statements iff
// they carry a "prefix:" keyword; an unlisted unprefixed keyword is accepted
// as is, taking a following argument token if one is present.
var builtinStatements = map[string]argKind{
	"anydata": argIdent, "anyxml": argIdent, "argument": argIdent,
	"augment": argString, "base": argIdent, "belongs-to": argIdent,
	"bit": argIdent, "case": argIdent, "choice": argIdent,
	"config": argIdent, "contact": argString, "container": argIdent,
	"default": argString, "description": argString, "deviate": argIdent,
	"deviation": argString, "enum": argIdent, "error-app-tag": argString,
	"error-message": argString, "extension": argIdent, "feature": argIdent,
	"fraction-digits": argIdent, "grouping": argIdent, "identity": argIdent,
	"if-feature": argString, "import": argIdent, "include": argIdent,
	"input": argNone, "key": argString, "leaf": argIdent,
	"leaf-list": argIdent, "length": argString, "list": argIdent,
	"mandatory": argIdent, "max-elements": argIdent, "min-elements": argIdent,
	"modifier": argIdent, "module": argIdent, "must": argString,
	"namespace": argIdent, "notification": argIdent, "ordered-by": argIdent,
	"organization": argString, "output": argNone, "path": argString,
	"pattern": argString, "position": argIdent, "prefix": argIdent,
	"presence": argString, "range": argString, "reference": argString,
	"refine": argString, "require-instance": argIdent, "revision": argIdent,
	"revision-date": argIdent, "rpc": argIdent, "status": argIdent,
	"submodule": argIdent, "type": argIdent, "typedef": argIdent,
	"unique": argString, "units": argString, "uses": argIdent,
	"value": argIdent, "when": argString, "yang-version": argIdent,
	"yin-element": argIdent, "action": argIdent, "modifier-value": argIdent,
}

// dataDefinitionKeywords is the subset of keywords the schema builder
// descends into when building data-node children.
var dataDefinitionKeywords = map[string]bool{
	"container": true, "leaf": true, "leaf-list": true, "list": true,
	"choice": true, "case": true, "anydata": true, "anyxml": true,
	"uses": true, "rpc": true, "action": true, "notification": true,
}

