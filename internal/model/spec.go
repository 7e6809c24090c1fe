package model

import "strings"

type Spec struct {
	Info       Info
	Servers    []Server
	Operations []Operation
	Schemas    []Schema
	Security   []SecurityScheme
}

// SchemaByRef returns a schema by its $ref path (e.g., "#/components/schemas/User").
// Returns nil if the schema is not found.
func (s *Spec) SchemaByRef(ref string) *Schema {
	parts := strings.Split(ref, "/")
	if len(parts) == 0 {
		return nil
	}
	name := parts[len(parts)-1]
	for i := range s.Schemas {
		if s.Schemas[i].Name == name {
			return &s.Schemas[i]
		}
	}
	return nil
}

// DefaultServerURL returns the first declared server URL, or "" when none is declared.
func (s *Spec) DefaultServerURL() string {
	if len(s.Servers) == 0 {
		return ""
	}
	return s.Servers[0].URL
}

type Info struct {
	Title       string
	Description string
	Version     string
}

type Server struct {
	URL         string
	Description string
}
