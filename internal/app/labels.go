package app

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"dailies/internal/model"
	"dailies/internal/storage"
)

const maxLabelLen = 40

// Labels returns a copy of the active profile's labels.
func (s *Store) Labels() []model.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil
	}
	return slices.Clone(s.doc.Labels)
}

// AddLabel adds a label unless one with the same name exists, compared
// case-insensitively, in which case the existing label is returned.
func (s *Store) AddLabel(name string) (model.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Label{}, err
	}

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return model.Label{}, invalid("label name is required")
	case len(name) > maxLabelLen:
		return model.Label{}, invalid("label name too long (max %d)", maxLabelLen)
	}
	if i := s.labelIndex(name); i >= 0 {
		return s.doc.Labels[i], nil
	}

	l := model.Label{ID: uuid.NewString(), Name: name}
	s.doc.Labels = append(s.doc.Labels, l)
	if err := s.save(storage.SaveContext{Operation: "add", ItemType: "label", ItemName: name}); err != nil {
		return l, err
	}
	return l, nil
}

// DeleteLabel removes a label by name. Tasks filed under it keep the
// category string. The default label cannot be removed.
func (s *Store) DeleteLabel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if strings.EqualFold(name, model.DefaultCategory) {
		return invalid("the %s label cannot be removed", model.DefaultCategory)
	}
	i := s.labelIndex(name)
	if i < 0 {
		return notFound("label", name)
	}
	removed := s.doc.Labels[i].Name
	s.doc.Labels = slices.Delete(s.doc.Labels, i, i+1)
	return s.save(storage.SaveContext{Operation: "delete", ItemType: "label", ItemName: removed})
}

func (s *Store) labelIndex(name string) int {
	return slices.IndexFunc(s.doc.Labels, func(l model.Label) bool {
		return strings.EqualFold(l.Name, name)
	})
}
