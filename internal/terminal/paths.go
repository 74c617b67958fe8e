package terminal

import "strings"

// Path is a virtual directory of the terminal. Every path except the root
// is also a real page of the site.
type Path int

const (
	PathRoot Path = iota
	PathAbout
	PathProjects
	PathResume
	PathContact
	PathSecret
)

// Paths lists every valid path in completion order.
var Paths = []Path{PathRoot, PathAbout, PathProjects, PathResume, PathContact, PathSecret}

var pathStrings = [...]string{
	PathRoot:     "/",
	PathAbout:    "/about",
	PathProjects: "/projects",
	PathResume:   "/resume",
	PathContact:  "/contact",
	PathSecret:   "/secret",
}

// String returns the absolute path.
func (p Path) String() string {
	if p < 0 || int(p) >= len(pathStrings) {
		return "/"
	}
	return pathStrings[p]
}

// IsRoot reports whether p is the root directory.
func (p Path) IsRoot() bool {
	return p == PathRoot
}

// LookupPath matches s exactly against the valid paths.
func LookupPath(s string) (Path, bool) {
	for _, p := range Paths {
		if p.String() == s {
			return p, true
		}
	}
	return PathRoot, false
}

// resolveTarget resolves a cd target relative to current. A target without a
// leading slash is looked up under the root; "." stays in current.
func resolveTarget(target string, current Path) (Path, bool) {
	if target == "." {
		return current, true
	}
	if strings.HasPrefix(target, "/") {
		return LookupPath(target)
	}
	return LookupPath("/" + target)
}
