package yangmodel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// findModuleFile locates "name[@revision].yang" in the search directories,
// mirroring the teacher's resolveGlobs/walkDir/findYangFiles helpers. File
// loading itself (opening, reading bytes) is the one out-of-scope piece of
// this function; everything downstream (parsing, resolution) is core.
func findModuleFile(name, revision string, searchDirs []string) (path string, data []byte, err error) {
	candidates := moduleFileCandidates(name, revision)
	for _, dir := range searchDirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if b, err := os.ReadFile(p); err == nil {
				glog.V(1).Infof("yangmodel: loaded %s from %s", name, p)
				return p, b, nil
			}
		}
	}
	return "", nil, &ModuleNotFoundError{Module: name, Revision: revision}
}

func moduleFileCandidates(name, revision string) []string {
	if revision != "" {
		return []string{fmt.Sprintf("%s@%s.yang", name, revision), name + ".yang"}
	}
	return []string{name + ".yang"}
}

// LoadDir walks dir recursively and returns the paths of all "*.yang"
// files under it. RegisterModules does not use it; it takes search
// directories and resolves module files through findModuleFile.
func LoadDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".yang") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
