package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// coreSourceImports parses every non-test source file in pkg/core and returns
// file name -> import paths.
func coreSourceImports(t *testing.T) map[string][]string {
	t.Helper()

	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("Failed to read core directory: %v", err)
	}

	fset := token.NewFileSet()
	imports := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		f, err := parser.ParseFile(fset, filepath.Join(".", entry.Name()), nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", entry.Name(), err)
			continue
		}
		for _, imp := range f.Imports {
			imports[entry.Name()] = append(imports[entry.Name()], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return imports
}

// TestCoreImportsOnlyStdlib verifies pkg/core never reaches for a third-party
// or module-local package. Everything else depends on core, not the reverse.
func TestCoreImportsOnlyStdlib(t *testing.T) {
	for file, paths := range coreSourceImports(t) {
		for _, importPath := range paths {
			if strings.Contains(importPath, ".") {
				t.Errorf("%s imports forbidden package: %s", file, importPath)
			}
		}
	}
}
