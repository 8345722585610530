package scripting

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// LoadScript returns a script's source. An existing file path is read as is,
// then scripts/<name>.tengo on disk, then the embedded copy.
func LoadScript(name string) ([]byte, error) {
	if strings.HasSuffix(name, ".tengo") {
		if data, err := os.ReadFile(name); err == nil {
			return data, nil
		}
	}
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(filepath.FromSlash(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// Names lists the embedded scripts without extension.
func Names() []string {
	entries, err := fs.ReadDir(ScriptsFS, "scripts")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".tengo"))
	}
	return out
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}

	s := filepath.ToSlash(path)

	if after, ok := strings.CutPrefix(s, "scripting/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}

	if !strings.HasSuffix(s, ".tengo") {
		s += ".tengo"
	}

	return fmt.Sprintf("scripts/%s", s)
}
