package adapter

import (
	"bufio"
	"strings"
)

// firstExecutableLine implements the best-effort heuristic of spec §4.4:
// skip blank lines, full-line comments and bare declarations, and return
// the 1-based line number of the first line that looks like it runs
// something. It always returns at least 1.
func firstExecutableLine(source string, commentPrefixes []string, skip func(trimmed string) bool) (int, error) {
	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		trimmed := strings.TrimSpace(sc.Text())
		if trimmed == "" {
			continue
		}
		if isComment(trimmed, commentPrefixes) {
			continue
		}
		if skip != nil && skip(trimmed) {
			continue
		}
		return line, nil
	}
	if err := sc.Err(); err != nil {
		return 1, err
	}
	return 1, nil
}

func isComment(trimmed string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// pythonFirstExecutableLine skips comments, module docstrings, imports and
// bare def/class declarations, since breaking on those lines in debugpy
// never actually stops execution.
func pythonFirstExecutableLine(source string) (int, error) {
	inDocstring := false
	return firstExecutableLine(source, []string{"#"}, func(trimmed string) bool {
		if inDocstring {
			if strings.HasSuffix(trimmed, `"""`) || strings.HasSuffix(trimmed, "'''") {
				inDocstring = false
			}
			return true
		}
		if strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			closed := strings.Count(trimmed, `"""`) >= 2 || strings.Count(trimmed, "'''") >= 2
			if !closed {
				inDocstring = true
			}
			return true
		}
		return hasAnyPrefix(trimmed, "import ", "from ", "def ", "class ", "@")
	})
}

// rubyFirstExecutableLine skips comments, requires and bare class/module
// declarations. Unlike the other languages here, a `def` line is NOT
// skipped: Ruby evaluates a method definition as a statement in its
// enclosing scope when the file loads, so rdbg's entry breakpoint does
// land there (spec §8 scenario 2, `def fizzbuzz(n)` on line 4).
func rubyFirstExecutableLine(source string) (int, error) {
	return firstExecutableLine(source, []string{"#"}, func(trimmed string) bool {
		return hasAnyPrefix(trimmed, "require ", "require_relative ", "class ", "module ")
	})
}

// nodeJSFirstExecutableLine skips comments, imports/requires and bare
// function/class declarations.
func nodeJSFirstExecutableLine(source string) (int, error) {
	inBlockComment := false
	return firstExecutableLine(source, []string{"//"}, func(trimmed string) bool {
		if inBlockComment {
			if strings.Contains(trimmed, "*/") {
				inBlockComment = false
			}
			return true
		}
		if strings.HasPrefix(trimmed, "/*") {
			if !strings.Contains(trimmed, "*/") {
				inBlockComment = true
			}
			return true
		}
		return hasAnyPrefix(trimmed, "import ", "const ", "require(", "function ", "class ", "\"use strict\"")
	})
}

// goFirstExecutableLine skips comments, package/import declarations and
// bare function signatures, landing on the first statement inside main
// (or whichever function the breakpoint file contains).
func goFirstExecutableLine(source string) (int, error) {
	inImportBlock := false
	return firstExecutableLine(source, []string{"//"}, func(trimmed string) bool {
		if inImportBlock {
			if trimmed == ")" {
				inImportBlock = false
			}
			return true
		}
		if strings.HasPrefix(trimmed, "import (") {
			inImportBlock = true
			return true
		}
		if hasAnyPrefix(trimmed, "package ", "import ", "func ", "type ", "var ", "const ") {
			return true
		}
		return trimmed == "{" || trimmed == "}"
	})
}

// rustFirstExecutableLine skips comments, use-declarations and bare
// fn/struct/impl signatures.
func rustFirstExecutableLine(source string) (int, error) {
	return firstExecutableLine(source, []string{"//"}, func(trimmed string) bool {
		if hasAnyPrefix(trimmed, "use ", "fn ", "struct ", "impl ", "mod ", "#[") {
			return true
		}
		return trimmed == "{" || trimmed == "}"
	})
}
