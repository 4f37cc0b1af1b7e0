package model

// Section names a resource collection exposed by the backend.
type Section string

const (
	// SectionSettings is the reserved settings view. It has no resource list.
	SectionSettings Section = "settings"

	// SectionRegistration is the logical name of the collection the backend
	// calls "registry".
	SectionRegistration Section = "registration"
)

// HasResources reports whether the section is backed by a resource collection.
func (s Section) HasResources() bool {
	return s != "" && s != SectionSettings
}

func (s Section) String() string {
	return string(s)
}
