package yangmodel

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// YangLibrary is the decoded form of an ietf-yang-library@2016-06-21
// (RFC 7895) JSON document. An 8525-format document is accepted only via a separate,
// out-of-scope converter; this type is the converter's output as much as
// it is RegisterModules's input.
type YangLibrary struct {
	ModuleSetID string
	Modules     []YangLibraryModule
}

// YangLibraryModule is one entry of modules-state.module.
type YangLibraryModule struct {
	Name            string
	Revision        string
	Namespace       string
	ConformanceType string // "implement" or "import"
	Feature         []string
	Deviation       []string
	Submodule       []YangLibrarySubmodule
}

type YangLibrarySubmodule struct {
	Name     string
	Revision string
}

// yangLibraryWire mirrors the RFC 7895 JSON shape, keyed exactly as it
// appears on the wire.
type yangLibraryWire struct {
	ModulesState struct {
		ModuleSetID string `json:"module-set-id"`
		Module      []struct {
			Name            string   `json:"name"`
			Revision        string   `json:"revision"`
			Namespace       string   `json:"namespace"`
			ConformanceType string   `json:"conformance-type"`
			Feature         []string `json:"feature"`
			Deviation       []string `json:"deviation"`
			Submodule       []struct {
				Name     string `json:"name"`
				Revision string `json:"revision"`
			} `json:"submodule"`
		} `json:"module"`
	} `json:"ietf-yang-library:modules-state"`
}

// ParseYangLibrary decodes a YANG library input JSON document.
func ParseYangLibrary(data []byte) (*YangLibrary, error) {
	var w yangLibraryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("yangmodel: invalid yang-library document: %w", err)
	}
	lib := &YangLibrary{ModuleSetID: w.ModulesState.ModuleSetID}
	for _, m := range w.ModulesState.Module {
		entry := YangLibraryModule{
			Name: m.Name, Revision: m.Revision, Namespace: m.Namespace,
			ConformanceType: m.ConformanceType, Feature: m.Feature, Deviation: m.Deviation,
		}
		for _, s := range m.Submodule {
			entry.Submodule = append(entry.Submodule, YangLibrarySubmodule{Name: s.Name, Revision: s.Revision})
		}
		lib.Modules = append(lib.Modules, entry)
	}
	return lib, nil
}

// ModuleSetID computes the module-set identifier: the SHA-1 hex digest
// over the ASCII string formed by the alphabetical join of "name@revision"
// entries (empty revision -> "name@"), concatenated back-to-back with no
// separator. Stable across permutations of the input list.
func ModuleSetID(modules []YangLibraryModule) string {
	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.Name+"@"+m.Revision)
	}
	sort.Strings(ids)
	h := sha1.New()
	for _, id := range ids {
		io.WriteString(h, id)
	}
	return hex.EncodeToString(h.Sum(nil))
}
