package model

import "sort"

// UnknownClass is reported for class ids outside the configured map.
const UnknownClass = "unknown"

// ClassMap maps detector class ids to display names.
type ClassMap map[int]string

// NewClassMap numbers names from zero in order.
func NewClassMap(names []string) ClassMap {
	classes := make(ClassMap, len(names))
	for i, name := range names {
		classes[i] = name
	}
	return classes
}

// Name returns the class name or UnknownClass.
func (c ClassMap) Name(id int) string {
	if name, ok := c[id]; ok {
		return name
	}
	return UnknownClass
}

// IDs returns the class ids in ascending order.
func (c ClassMap) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Names returns the class names ordered by id.
func (c ClassMap) Names() []string {
	ids := c.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = c[id]
	}
	return names
}
