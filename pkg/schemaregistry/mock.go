package schemaregistry

import (
	"fmt"
	"sync"
)

// Mock is an in-memory Registry. Every distinct schema registered under a
// subject becomes a new version; ids are global and start at 1.
type Mock struct {
	mu       sync.RWMutex
	nextID   int
	byID     map[int]string
	subjects map[string][]Metadata
}

func NewMock() *Mock {
	return &Mock{
		nextID:   1,
		byID:     map[int]string{},
		subjects: map[string][]Metadata{},
	}
}

func (m *Mock) GetSchemaByID(id int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("schema id %d: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *Mock) GetLatestSchema(subject string) (*Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.subjects[subject]
	if len(versions) == 0 {
		return nil, fmt.Errorf("subject %s: %w", subject, ErrNotFound)
	}
	latest := versions[len(versions)-1]
	return &latest, nil
}

func (m *Mock) RegisterSchema(subject, schema, schemaType string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.subjects[subject] {
		if v.Schema == schema && v.Type == schemaType {
			return v.ID, nil
		}
	}
	id := m.nextID
	m.nextID++
	m.byID[id] = schema
	m.subjects[subject] = append(m.subjects[subject], Metadata{
		ID:      id,
		Version: len(m.subjects[subject]) + 1,
		Schema:  schema,
		Subject: subject,
		Type:    schemaType,
	})
	return id, nil
}

// CheckCompatibility reports true for unknown subjects and for schemas
// already registered under the subject. It does not evaluate schema rules.
func (m *Mock) CheckCompatibility(subject, schema, schemaType string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.subjects[subject]
	if len(versions) == 0 {
		return true, nil
	}
	for _, v := range versions {
		if v.Schema == schema && v.Type == schemaType {
			return true, nil
		}
	}
	return false, nil
}

// Subjects returns the registered subjects.
func (m *Mock) Subjects() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.subjects))
	for s := range m.subjects {
		out = append(out, s)
	}
	return out
}
