// Package registry offers a string-keyed constructor map for runtime
// plugin selection by configuration string, using plain Go function
// values instead of reflection-based lookup.
package registry

import "fmt"

// Constructor builds a plugin instance from a config value. The concrete
// type of cfg is agreed between a kind's registered constructors and its
// caller (e.g. config.BuildDependencies).
type Constructor func(cfg any) (any, error)

var constructors = make(map[string]map[string]Constructor)

// Register associates name within kind (e.g. kind="persistence",
// name="postgres") with ctor. Intended to be called from package init()
// functions.
func Register(kind, name string, ctor Constructor) {
	if constructors[kind] == nil {
		constructors[kind] = make(map[string]Constructor)
	}
	constructors[kind][name] = ctor
}

// Build looks up (kind, name) and invokes its constructor with cfg.
func Build(kind, name string, cfg any) (any, error) {
	byName, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("registry: unknown kind %q", kind)
	}
	ctor, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown name %q for kind %q", name, kind)
	}
	return ctor(cfg)
}
