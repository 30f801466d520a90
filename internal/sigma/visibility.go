package sigma

import (
	"strings"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

// CanAccess implements the visibility gate of spec.md §4.2: whether code in
// fromModule may reference e, declared in e.ModulePath with visibility
// e.Vis. A module always sees its own declarations regardless of Vis.
func CanAccess(fromModule string, e *Entity) bool {
	if e.ModulePath == "" || fromModule == e.ModulePath {
		return true
	}

	from := FoldPath(fromModule)
	owner := FoldPath(e.ModulePath)

	switch e.Vis {
	case ast.VisPublic:
		return true
	case ast.VisInternal:
		return topLevelPackage(from) == topLevelPackage(owner)
	case ast.VisProtected:
		return isDescendantModule(from, owner)
	default: // ast.VisPrivate
		return false
	}
}

// isDescendantModule reports whether from is owner itself or nested under
// it in the module path hierarchy ("a/b" is a descendant of "a").
func isDescendantModule(from, owner string) bool {
	if from == owner {
		return true
	}
	return strings.HasPrefix(from, owner+"/")
}

func topLevelPackage(modulePath string) string {
	if i := strings.Index(modulePath, "/"); i >= 0 {
		return modulePath[:i]
	}
	return modulePath
}
