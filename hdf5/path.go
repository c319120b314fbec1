package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form /group/object@name
// into the object path and the attribute name. "/@name" names a root
// attribute.
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(path, "@")
	if at == -1 {
		return "", "", fmt.Errorf("%w: attribute path %q has no '@'", ErrInvalidPath, path)
	}
	objectPath, attrName = CleanPath(path[:at]), path[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: empty attribute name in %q", ErrInvalidPath, path)
	}
	return objectPath, attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath splits a path into its non-empty components.
//
//	"/"        -> []
//	"/foo/bar" -> ["foo", "bar"]
func SplitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}

// CleanPath normalizes a path to start with "/" and have no trailing slash.
func CleanPath(path string) string {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: bad object name %q", ErrInvalidPath, name)
	}
	return nil
}
