package config

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed profiles/*.yaml
var ProfilesFS embed.FS

// ProfileDir is where on-disk profiles override the embedded ones.
const ProfileDir = "profiles"

// Load returns the raw bytes of a profile. An existing file path is read as
// is; otherwise profiles/<name>.yaml on disk wins over the embedded copy.
func Load(name string) ([]byte, error) {
	if isSpecFile(name) {
		if data, err := os.ReadFile(name); err == nil {
			return data, nil
		}
	}
	clean := cleanProfilePath(name)
	if data, err := os.ReadFile(diskProfilePath(clean)); err == nil {
		return data, nil
	}
	return ProfilesFS.ReadFile("profiles/" + clean)
}

// ModTime reports the modification time of the on-disk override, if any.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskProfilePath(cleanProfilePath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Names lists the embedded profiles.
func Names() []string {
	entries, err := fs.ReadDir(ProfilesFS, "profiles")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return out
}

func cleanProfilePath(name string) string {
	if name == "" {
		return ""
	}
	s := filepath.ToSlash(name)
	if after, ok := strings.CutPrefix(s, "config/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "profiles/"); ok {
		s = after
	}
	if !isSpecFile(s) {
		s += ".yaml"
	}
	return s
}

func diskProfilePath(clean string) string {
	return filepath.Join(ProfileDir, filepath.FromSlash(clean))
}
