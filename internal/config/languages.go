package config

// Nesting modes for complexity tracking.
const (
	NestingBrace  = "brace"
	NestingIndent = "indent"
)

var (
	cLikeComments   = []string{"//"}
	cLikeBlock      = []string{"/*", "*/"}
	cLikeLogical    = []string{"&&", "||"}
	pythonLogical   = []string{"and", "or"}
	identJS         = `[A-Za-z_$][\w$]*`
	importFromJS    = `\s*from\s*['"](?P<module>[^'"]+)['"]`
	jsExportPrefix  = `^\s*export\s+(?:default\s+)?`
	javaModifiers   = `(?:(?:public|protected|private|static|final|abstract|sealed|non-sealed|strictfp)\s+)*`
	javaMethodTypes = `[\w<>\[\],.? ]+?`
)

// DefaultLanguages returns the built-in language records.
func DefaultLanguages() map[string]LanguageConfig {
	return map[string]LanguageConfig{
		"rust":       rustLanguage(),
		"typescript": typescriptLanguage(),
		"javascript": javascriptLanguage(),
		"python":     pythonLanguage(),
		"go":         goLanguage(),
		"java":       javaLanguage(),
	}
}

func rustLanguage() LanguageConfig {
	vis := `^\s*pub(?:\([^)]*\))?\s+`
	return LanguageConfig{
		Extensions: []string{"rs"},
		ExportPatterns: []string{
			vis + `(?:default\s+)?(?:async\s+)?(?:const\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+(?P<function>[A-Za-z_]\w*)`,
			vis + `struct\s+(?P<struct>[A-Za-z_]\w*)`,
			vis + `enum\s+(?P<enum>[A-Za-z_]\w*)`,
			vis + `(?:unsafe\s+)?trait\s+(?P<trait>[A-Za-z_]\w*)`,
			vis + `type\s+(?P<type>[A-Za-z_]\w*)`,
			vis + `(?:const|static)\s+(?:mut\s+)?(?P<constant>[A-Za-z_]\w*)\s*:`,
			vis + `mod\s+(?P<module>[A-Za-z_]\w*)`,
			`^\s*macro_rules!\s*(?P<function>[A-Za-z_]\w*)`,
		},
		ImportPatterns: []string{
			`^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+(?P<module>[\w:]+)::\{(?P<name>[^}]*)\}`,
			`^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+(?P<module>[\w:]+)::(?P<name>\w+)(?:\s+as\s+\w+)?\s*;`,
		},
		DeclarationPatterns: []string{
			`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:default\s+)?(?:async\s+)?(?:const\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+(?P<function>[A-Za-z_]\w*)`,
			`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+(?P<struct>[A-Za-z_]\w*)`,
			`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+(?P<enum>[A-Za-z_]\w*)`,
			`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:unsafe\s+)?trait\s+(?P<trait>[A-Za-z_]\w*)`,
			`^\s*(?:pub(?:\([^)]*\))?\s+)?type\s+(?P<type>[A-Za-z_]\w*)`,
			`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const|static)\s+(?:mut\s+)?(?P<constant>[A-Za-z_]\w*)\s*:`,
		},
		LineComments:     cLikeComments,
		BlockComment:     cLikeBlock,
		BranchKeywords:   []string{"if", "match", "for", "while", "loop"},
		LogicalOperators: cLikeLogical,
		Nesting:          NestingBrace,
	}
}

func typescriptLanguage() LanguageConfig {
	lang := javascriptLanguage()
	lang.Extensions = []string{"ts", "tsx", "mts", "cts"}
	lang.IgnoreFiles = []string{"*.d.ts"}
	lang.ExportPatterns = append(lang.ExportPatterns,
		`^\s*export\s+(?:declare\s+)?interface\s+(?P<interface>`+identJS+`)`,
		`^\s*export\s+(?:declare\s+)?type\s+(?P<type>`+identJS+`)\s*(?:<[^>]*>)?\s*=`,
		`^\s*export\s+(?:declare\s+)?(?:const\s+)?enum\s+(?P<enum>`+identJS+`)`,
		`^\s*export\s+(?:declare\s+)?(?:namespace|module)\s+(?P<module>`+identJS+`)`,
	)
	lang.DeclarationPatterns = append(lang.DeclarationPatterns,
		`^\s*(?:export\s+)?(?:declare\s+)?interface\s+(?P<interface>`+identJS+`)`,
		`^\s*(?:export\s+)?(?:declare\s+)?type\s+(?P<type>`+identJS+`)\s*(?:<[^>]*>)?\s*=`,
		`^\s*(?:export\s+)?(?:declare\s+)?(?:const\s+)?enum\s+(?P<enum>`+identJS+`)`,
	)
	return lang
}

func javascriptLanguage() LanguageConfig {
	return LanguageConfig{
		Extensions:  []string{"js", "jsx", "mjs", "cjs"},
		IgnoreFiles: []string{"*.min.js"},
		ExportPatterns: []string{
			jsExportPrefix + `(?:async\s+)?function\s*\*?\s*(?P<function>` + identJS + `)`,
			jsExportPrefix + `(?:abstract\s+)?class\s+(?P<class>` + identJS + `)`,
			`^\s*export\s+const\s+(?P<constant>` + identJS + `)\s*[:=]`,
			`^\s*export\s+(?:let|var)\s+(?P<variable>` + identJS + `)`,
			`^\s*module\.exports\.(?P<variable>` + identJS + `)\s*=`,
			`^\s*exports\.(?P<variable>` + identJS + `)\s*=`,
		},
		ImportPatterns: []string{
			`^\s*import\s+(?:type\s+)?\{(?P<name>[^}]*)\}` + importFromJS,
			`^\s*import\s+(?:type\s+)?(?P<name>` + identJS + `)\s*` + importFromJS,
			`^\s*import\s+` + identJS + `\s*,\s*\{(?P<name>[^}]*)\}` + importFromJS,
			`^\s*export\s+(?:type\s+)?\{(?P<name>[^}]*)\}` + importFromJS,
			`(?:const|let|var)\s+\{(?P<name>[^}]*)\}\s*=\s*require\(\s*['"](?P<module>[^'"]+)['"]\s*\)`,
		},
		DeclarationPatterns: []string{
			`\bfunction\s*\*?\s*(?P<function>` + identJS + `)\s*\(`,
			`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(?P<class>` + identJS + `)`,
			`(?:const|let|var)\s+(?P<function>` + identJS + `)\s*=\s*(?:async\s*)?(?:\([^)]*\)|` + identJS + `)\s*=>`,
		},
		LineComments:     cLikeComments,
		BlockComment:     cLikeBlock,
		BranchKeywords:   []string{"if", "for", "while", "case", "catch", "do"},
		LogicalOperators: []string{"&&", "||", "??"},
		Nesting:          NestingBrace,
	}
}

func pythonLanguage() LanguageConfig {
	return LanguageConfig{
		Extensions:        []string{"py", "pyi"},
		IgnoreDirectories: []string{"__pycache__", "venv", ".venv"},
		ExportPatterns: []string{
			`^(?:async\s+)?def\s+(?P<function>[A-Za-z]\w*)`,
			`^class\s+(?P<class>[A-Za-z]\w*)`,
			`^(?P<constant>[A-Z][A-Z0-9_]*)\s*(?::[^=\n]*)?=[^=]`,
		},
		ImportPatterns: []string{
			`^\s*from\s+(?P<module>\.*[\w.]*)\s+import\s*\((?P<name>[^)]*)\)`,
			`^\s*from\s+(?P<module>\.*[\w.]*)\s+import\s+(?P<name>[^(\n][^\n]*)$`,
			`^\s*import\s+(?P<name>[\w.]+(?:\s+as\s+\w+)?(?:\s*,\s*[\w.]+(?:\s+as\s+\w+)?)*)`,
		},
		DeclarationPatterns: []string{
			`^\s*(?:async\s+)?def\s+(?P<function>\w+)`,
			`^\s*class\s+(?P<class>\w+)`,
		},
		LineComments:     []string{"#"},
		BlockComment:     []string{`"""`, `"""`},
		BranchKeywords:   []string{"if", "elif", "for", "while", "except", "case"},
		LogicalOperators: pythonLogical,
		Nesting:          NestingIndent,
	}
}

func goLanguage() LanguageConfig {
	return LanguageConfig{
		Extensions:  []string{"go"},
		IgnoreFiles: []string{"*.pb.go", "*_gen.go"},
		ExportPatterns: []string{
			`^func\s+(?P<function>[A-Z]\w*)\s*[\[(]`,
			`^func\s+\([^)]*\)\s*(?P<method>[A-Z]\w*)\s*[\[(]`,
			`^type\s+(?P<name>[A-Z]\w*)(?:\[[^\]]*\])?\s+(?:struct\b|interface\b)?`,
			`^(?:const|var)\s+(?P<name>[A-Z]\w*)`,
		},
		ImportPatterns: []string{
			`\b(?P<module>[a-z]\w*)\.(?P<name>[A-Z]\w*)\b`,
		},
		DeclarationPatterns: []string{
			`^func\s+(?P<function>\w+)\s*[\[(]`,
			`^func\s+\([^)]*\)\s*(?P<method>\w+)\s*[\[(]`,
			`^type\s+(?P<name>\w+)(?:\[[^\]]*\])?\s+(?:struct\b|interface\b)?`,
		},
		LineComments:     cLikeComments,
		BlockComment:     cLikeBlock,
		BranchKeywords:   []string{"if", "for", "case", "select"},
		LogicalOperators: cLikeLogical,
		Nesting:          NestingBrace,
	}
}

func javaLanguage() LanguageConfig {
	return LanguageConfig{
		Extensions: []string{"java"},
		ExportPatterns: []string{
			`^\s*public\s+` + javaModifiers + `class\s+(?P<class>\w+)`,
			`^\s*public\s+` + javaModifiers + `record\s+(?P<class>\w+)`,
			`^\s*public\s+` + javaModifiers + `@?interface\s+(?P<interface>\w+)`,
			`^\s*public\s+` + javaModifiers + `enum\s+(?P<enum>\w+)`,
			`^\s*public\s+` + javaModifiers + `(?:(?:synchronized|default|native)\s+)*(?:<[^>]*>\s*)?` + javaMethodTypes + `\s+(?P<method>[a-z]\w*)\s*\(`,
		},
		ImportPatterns: []string{
			`^\s*import\s+(?:static\s+)?(?P<module>[\w.]+)\.(?P<name>\w+)\s*;`,
		},
		DeclarationPatterns: []string{
			`^\s*` + javaModifiers + `(?:class|record)\s+(?P<class>\w+)`,
			`^\s*` + javaModifiers + `@?interface\s+(?P<interface>\w+)`,
			`^\s*` + javaModifiers + `enum\s+(?P<enum>\w+)`,
			`^\s*(?:(?:public|protected|private|static|final|abstract|synchronized|native|default)\s+)+(?:<[^>]*>\s*)?` + javaMethodTypes + `\s+(?P<method>[a-z]\w*)\s*\([^)]*\)\s*(?:throws[^{;]*)?\{`,
		},
		LineComments:     cLikeComments,
		BlockComment:     cLikeBlock,
		BranchKeywords:   []string{"if", "for", "while", "case", "catch", "do"},
		LogicalOperators: cLikeLogical,
		Nesting:          NestingBrace,
	}
}
