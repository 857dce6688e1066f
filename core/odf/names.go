package odf

import (
	"strconv"

	"github.com/FocuswithJustin/odfnote/core/xml"
)

// DefaultNamePrefix is the prefix of generated annotation names.
const DefaultNamePrefix = "__Fieldmark__lpod"

// NameAllocator generates annotation names of the form "<prefix>_<n>".
type NameAllocator struct {
	Prefix string
}

// DefaultAllocator uses DefaultNamePrefix.
var DefaultAllocator = NewNameAllocator(DefaultNamePrefix)

// NewNameAllocator returns an allocator for prefix, or for
// DefaultNamePrefix when prefix is empty.
func NewNameAllocator(prefix string) *NameAllocator {
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return &NameAllocator{Prefix: prefix}
}

// Allocate returns the first candidate, counting from 1, that is in neither
// scopeUsed nor localUsed. The result depends only on its inputs; two
// callers allocating against the same unchanged sets get the same name.
func (a *NameAllocator) Allocate(scopeUsed, localUsed []string) string {
	used := make(map[string]struct{}, len(scopeUsed)+len(localUsed))
	for _, name := range scopeUsed {
		used[name] = struct{}{}
	}
	for _, name := range localUsed {
		used[name] = struct{}{}
	}
	prefix := a.Prefix
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	for i := 1; ; i++ {
		name := prefix + "_" + strconv.Itoa(i)
		if _, taken := used[name]; !taken {
			return name
		}
	}
}

// UniqueOfficeName allocates a name unused both in the document body local
// is attached to (if any) and inside local itself, so that markers staged
// in a detached subtree do not collide before being merged in.
func (a *NameAllocator) UniqueOfficeName(local *xml.Node) string {
	var scopeUsed, localUsed []string
	if local != nil {
		if body := local.DocumentBody(); body != nil {
			scopeUsed = body.OfficeNames()
		}
		localUsed = local.OfficeNames()
	}
	return a.Allocate(scopeUsed, localUsed)
}

// UniqueOfficeName allocates with DefaultAllocator.
func UniqueOfficeName(local *xml.Node) string {
	return DefaultAllocator.UniqueOfficeName(local)
}
