// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"fmt"

	"github.com/go-lpc/xcvr/page"
)

// Map is the ordered set of fields of a device family.
type Map struct {
	name   string
	fields []*Field
	index  map[string]*Field
}

// NewMap creates a memory map from the provided fields.
// Sub-fields of Nested fields are indexed too.
//
// NewMap panics if a name is declared twice or if a field crosses a page
// boundary: memory maps are static tables.
func NewMap(name string, fields ...*Field) *Map {
	m := &Map{
		name:   name,
		fields: fields,
		index:  make(map[string]*Field),
	}
	for _, f := range fields {
		m.add(f)
	}
	return m
}

func (m *Map) add(f *Field) {
	if _, dup := m.index[f.Name]; dup {
		panic(fmt.Errorf("field: %s: duplicate field %q", m.name, f.Name))
	}
	if f.Size <= 0 {
		panic(fmt.Errorf("field: %s: invalid size for %v", m.name, f))
	}
	if !page.Same(f.Offset, f.Size) {
		panic(fmt.Errorf("field: %s: %v crosses a page boundary", m.name, f))
	}
	m.index[f.Name] = f
	for _, sub := range f.Fields {
		m.add(sub)
	}
}

// Name returns the name of the memory map.
func (m *Map) Name() string { return m.name }

// Field returns the field with the provided name.
func (m *Map) Field(name string) (*Field, bool) {
	f, ok := m.index[name]
	return f, ok
}

// Fields returns the top-level fields, in declaration order.
func (m *Map) Fields() []*Field { return m.fields }

// Len returns the number of indexed fields, including nested ones.
func (m *Map) Len() int { return len(m.index) }
