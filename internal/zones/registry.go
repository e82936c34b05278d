// Package zones is the registry of valid IANA timezone identifiers and a
// cached loader for their locations.
package zones

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

// zoneDirs are the places a zoneinfo tree is commonly installed.
var zoneDirs = []string{
	"/usr/share/zoneinfo/",
	"/usr/share/lib/zoneinfo/",
	"/usr/lib/locale/TZ/",
	"/etc/zoneinfo/",
}

// tzifMagic starts every compiled zone file.
var tzifMagic = []byte("TZif")

// Registry is a fixed set of valid zone names.
type Registry struct {
	names []string
	set   map[string]struct{}
}

// NewRegistry builds a registry from an explicit list of names.
func NewRegistry(names ...string) *Registry {
	r := &Registry{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if !validName(n) {
			continue
		}
		if _, dup := r.set[n]; dup {
			continue
		}
		r.set[n] = struct{}{}
		r.names = append(r.names, n)
	}
	sort.Strings(r.names)
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry discovered from the host's zoneinfo tree and
// the Go distribution's zoneinfo.zip. It is built once per process.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(discover()...)
	})
	return defaultRegistry
}

// Contains reports whether name is a valid zone identifier.
func (r *Registry) Contains(name string) bool {
	if !validName(name) {
		return false
	}
	if len(r.set) > 0 {
		_, ok := r.set[name]
		return ok
	}
	// Nothing could be enumerated on this host; fall back to the embedded
	// tzdata, which accepts exactly the names it can load.
	_, err := time.LoadLocation(name)
	return err == nil
}

// Names returns the sorted zone names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of enumerated names.
func (r *Registry) Len() int {
	return len(r.names)
}

func validName(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") || strings.ContainsAny(name, `\ `) {
		return false
	}
	return true
}

func discover() []string {
	var names []string
	for _, dir := range zoneDirs {
		names = append(names, walkZoneDir(dir)...)
	}
	names = append(names, readZoneZip(filepath.Join(runtime.GOROOT(), "lib", "time", "zoneinfo.zip"))...)
	return names
}

func walkZoneDir(dir string) []string {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	var names []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := strings.TrimPrefix(path, dir)
		if d.IsDir() {
			// posix/ and right/ duplicate the main tree with other leap rules.
			if rel == "posix" || rel == "right" {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == "localtime" || rel == "posixrules" || rel == "Factory" {
			return nil
		}
		if isZoneFile(path) {
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	return names
}

func isZoneFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(tzifMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, tzifMagic)
}

func readZoneZip(path string) []string {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || f.Name == "Factory" {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}
