// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: registry/registry.go
// Summary: Registry of built-in render engines selectable by name.
// Usage: Engine packages register themselves at init; cmd resolves -engine.

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lumenwm/lumen/render"
)

// EngineFactory creates a fresh engine instance.
type EngineFactory func() render.Engine

var (
	mu        sync.RWMutex
	factories = map[string]EngineFactory{}
)

// Register installs a built-in engine under its name. A duplicate name
// panics: two engines claiming one name is a programming error caught at
// init time.
func Register(name string, factory EngineFactory) {
	if name == "" || factory == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("registry: engine %q registered twice", name))
	}
	factories[name] = factory
}

// New instantiates the named engine.
func New(name string) (render.Engine, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: unknown engine %q (have %v)", name, Names())
	}
	return factory(), nil
}

// Names lists registered engines, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
