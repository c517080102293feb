package varlookup

// builtinNames lists the global names available at the root env, per
// spec.md §9's builtins-as-data decision: approximately the set exposed
// by a real Nix evaluator's top-level scope, enough for realistic
// completion/hover/undefined-variable behavior without depending on an
// actual evaluator.
var builtinNames = []string{
	"builtins", "true", "false", "null",
	"abort", "throw", "import", "map", "filter", "foldl'", "genList",
	"removeAttrs", "listToAttrs", "attrNames", "attrValues", "attrsToList",
	"getAttr", "hasAttr", "isAttrs", "isList", "isFunction", "isString",
	"isInt", "isFloat", "isBool", "isNull", "isPath",
	"toString", "toJSON", "fromJSON", "toFile", "toXML",
	"derivation", "derivationStrict", "placeholder",
	"fetchurl", "fetchTarball", "fetchGit", "fetchTree",
	"elem", "elemAt", "length", "head", "tail", "concatLists",
	"concatMap", "concatStringsSep", "replaceStrings", "split", "splitString",
	"match", "substring", "stringLength", "compareVersions", "splitVersion",
	"parseDrvName",
	"add", "sub", "mul", "div", "bitAnd", "bitOr", "bitXor",
	"lessThan", "floor", "ceil",
	"tryEval", "seq", "deepSeq", "trace", "traceVerbose", "addErrorContext",
	"currentSystem", "currentTime", "storeDir", "nixVersion", "langVersion",
	"pathExists", "readFile", "readDir", "dirOf", "baseNameOf",
	"sort", "partition", "groupBy", "zipAttrsWith", "foldl",
	"all", "any", "genericClosure", "functionArgs", "setFunctionArgs",
	"intersectAttrs", "catAttrs", "unsafeDiscardStringContext",
	"unsafeGetAttrPos", "getEnv", "getFlake", "scopedImport",
	"convertHash", "hashString", "hashFile", "outputOf",
}
