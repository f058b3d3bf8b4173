package yangmodel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildModel writes modules (name -> YANG source) into a temp directory,
// registers them all as implemented, and compiles the schema tree. It is
// the common setup shared by the scenario tests below, mirroring the
// teacher's own TestLoad/TestType pattern of loading modules from disk.
func buildModel(t *testing.T, modules map[string]string) (*Registry, *SchemaNode) {
	t.Helper()
	dir := t.TempDir()
	lib := &YangLibrary{}
	for name, src := range modules {
		path := filepath.Join(dir, name+".yang")
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		lib.Modules = append(lib.Modules, YangLibraryModule{Name: name, ConformanceType: "implement"})
	}
	registry, err := RegisterModules(lib, []string{dir})
	require.NoError(t, err)
	require.NoError(t, registry.ValidateFeaturePrerequisites())

	root, err := registry.BuildSchema(registry.ImplementedModules(lib))
	require.NoError(t, err)
	return registry, root
}

func decodeJSON(t *testing.T, text string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &m))
	return m
}
