// Package models holds the entity types shared across the scraper: the
// Make/Model/Trim hierarchy and the Record values extracted from spec and
// option tables.
package models

// Make is a car manufacturer discovered on the makes index page.
type Make struct {
	ID          int64
	Name        string
	ChildrenURL string
	RawMarkup   string
	Models      []*Model
}

func (m *Make) String() string { return m.Name }

// HasModel reports whether a model with the exact name already exists.
func (m *Make) HasModel(name string) bool {
	for _, child := range m.Models {
		if child.Name == name {
			return true
		}
	}
	return false
}

// AddModel appends a model unless one with the same name is already present.
// Returns false when the model was a duplicate.
func (m *Make) AddModel(child *Model) bool {
	if m.HasModel(child.Name) {
		return false
	}
	m.Models = append(m.Models, child)
	return true
}

// Model is a car model belonging to a Make.
type Model struct {
	ID          int64
	Name        string
	Year        string
	ChildrenURL string
	RawMarkup   string
	Make        *Make
	Trims       []*Trim
}

func (m *Model) String() string { return m.Name }

// HasTrim reports whether a trim with the exact name already exists.
func (m *Model) HasTrim(name string) bool {
	for _, child := range m.Trims {
		if child.Name == name {
			return true
		}
	}
	return false
}

// AddTrim appends a trim unless one with the same name is already present.
// Returns false when the trim was a duplicate.
func (m *Model) AddTrim(child *Trim) bool {
	if m.HasTrim(child.Name) {
		return false
	}
	m.Trims = append(m.Trims, child)
	return true
}

// Trim is a concrete configuration of a Model. Specs and Options hold the
// records extracted from the two content regions of its markup; records are
// only ever appended, never mutated, once added.
type Trim struct {
	ID          int64
	Name        string
	Production  string
	ChildrenURL string
	RawMarkup   string
	Model       *Model
	Specs       []Record
	Options     []Record
}

func (t *Trim) String() string { return t.Name }

// HasSpecOps reports whether both record lists are already populated, in
// which case parsing is skipped on re-runs.
func (t *Trim) HasSpecOps() bool {
	return len(t.Specs) > 0 && len(t.Options) > 0
}
