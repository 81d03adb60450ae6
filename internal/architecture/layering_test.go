package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePrefix = "shiftbuddy/internal/"

// sourceImports maps every non-test Go file under root to its import paths.
func sourceImports(t *testing.T, root string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()
	out := map[string][]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range node.Imports {
			out[filepath.ToSlash(path)] = append(out[filepath.ToSlash(path)], strings.Trim(imp.Path.Value, `"`))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return out
}

// layerOf returns the module name and hexagonal layer of a path below modules/.
func layerOf(path string) (module, layer string) {
	_, rest, ok := strings.Cut(path, "modules/")
	if !ok {
		return "", ""
	}
	module, rest, _ = strings.Cut(rest, "/")
	for _, l := range []string{"adapter/in", "adapter/out", "port/in", "port/out", "usecase", "service", "domain", "dto"} {
		if strings.HasPrefix(rest, l+"/") || rest == l {
			return module, l
		}
	}
	return module, ""
}

// allowedLayers lists which layers of the same module each layer may import.
var allowedLayers = map[string][]string{
	"domain":      {},
	"dto":         {},
	"port/in":     {"dto"},
	"port/out":    {"domain", "dto"},
	"service":     {"domain", "dto", "port/out"},
	"usecase":     {"domain", "dto", "port/in", "port/out", "service"},
	"adapter/in":  {"dto", "port/in"},
	"adapter/out": {"domain", "dto", "port/out"},
}

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	for file, imports := range sourceImports(t, filepath.Join("..", "modules")) {
		module, layer := layerOf(file)
		if layer == "" {
			continue
		}
		for _, imp := range imports {
			if !strings.HasPrefix(imp, modulePrefix+"modules/") {
				continue
			}
			impModule, impLayer := layerOf(imp)
			if impModule != module {
				// Other modules are reachable only through their inbound contract.
				if impLayer != "port/in" && impLayer != "dto" {
					t.Errorf("%s (%s) imports %s from module %s", file, layer, impLayer, impModule)
				}
				continue
			}
			if !contains(allowedLayers[layer], impLayer) {
				t.Errorf("%s (%s) must not import %s", file, layer, imp)
			}
		}
	}
}

func TestDomainUsesStandardLibraryOnly(t *testing.T) {
	t.Parallel()
	for file, imports := range sourceImports(t, filepath.Join("..", "modules")) {
		if _, layer := layerOf(file); layer != "domain" {
			continue
		}
		for _, imp := range imports {
			first, _, _ := strings.Cut(imp, "/")
			if strings.Contains(first, ".") || strings.HasPrefix(imp, modulePrefix) {
				t.Errorf("domain file %s imports %s", file, imp)
			}
		}
	}
}

func TestPlatformStaysBelowModules(t *testing.T) {
	t.Parallel()
	for file, imports := range sourceImports(t, filepath.Join("..", "platform")) {
		for _, imp := range imports {
			if strings.HasPrefix(imp, modulePrefix+"modules/") || strings.HasPrefix(imp, modulePrefix+"ui/") || strings.HasPrefix(imp, modulePrefix+"bootstrap") {
				t.Errorf("platform file %s imports %s", file, imp)
			}
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
