package objectmanager

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/memento"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Memento is a snapshot of a managed object that survives a detach
// boundary: entities keep their identity, view models and values their
// state.
type Memento struct {
	Type       string `cbor:"1,keyasint"`
	Identifier string `cbor:"2,keyasint,omitempty"`
	// Empty marks a memento of no object of Type.
	Empty bool `cbor:"3,keyasint,omitempty"`
}

// Serializer turns objects into mementos and back.
type Serializer interface {
	Serialize(ctx context.Context, mo *spec.ManagedObject) (Memento, error)
	Deserialize(ctx context.Context, m Memento) (*spec.ManagedObject, error)
}

// DefaultSerializer records the bookmark of an object and reloads it.
type DefaultSerializer struct {
	Specs      spec.SpecificationLoader
	Loader     Loader
	Bookmarker Bookmarker
}

func (d *DefaultSerializer) Serialize(ctx context.Context, mo *spec.ManagedObject) (Memento, error) {
	if !spec.IsSpecified(mo) {
		return Memento{}, fmt.Errorf("cannot serialize an unspecified object")
	}
	if mo.IsEmpty() {
		return Memento{Type: mo.Specification().LogicalTypeName(), Empty: true}, nil
	}
	b, err := d.Bookmarker.Bookmark(ctx, BookmarkRequest{Object: mo})
	if err != nil {
		return Memento{}, err
	}
	return Memento{Type: b.LogicalTypeName, Identifier: b.Identifier}, nil
}

func (d *DefaultSerializer) Deserialize(ctx context.Context, m Memento) (*spec.ManagedObject, error) {
	s, ok := d.Specs.SpecificationByName(m.Type)
	if !ok {
		return nil, fmt.Errorf("unknown type %q in memento", m.Type)
	}
	if m.Empty {
		return spec.Empty(s), nil
	}
	return d.Loader.Load(ctx, LoadRequest{Spec: s, Identifier: m.Identifier})
}

// Stash serializes mo into the memento store and returns the handle to
// Unstash it with.
func (m *Manager) Stash(ctx context.Context, mo *spec.ManagedObject) (string, error) {
	if m.mementos == nil {
		return "", fmt.Errorf("no memento store configured")
	}
	mem, err := m.Serialize(ctx, mo)
	if err != nil {
		return "", err
	}
	data, err := memento.Marshal(mem)
	if err != nil {
		return "", fmt.Errorf("failed to encode memento of %s: %w", mo, err)
	}
	handle := uuid.NewString()
	if err := m.mementos.Set(ctx, handle, data, m.mementoTTL); err != nil {
		return "", fmt.Errorf("failed to stash %s: %w", mo, err)
	}
	m.logger.Debug("Stashed object", zap.String("handle", handle), zap.String("type", mem.Type))
	return handle, nil
}

// Unstash recreates the object stashed under handle.
func (m *Manager) Unstash(ctx context.Context, handle string) (*spec.ManagedObject, error) {
	if m.mementos == nil {
		return nil, fmt.Errorf("no memento store configured")
	}
	data, err := m.mementos.Get(ctx, handle)
	if err != nil {
		return nil, err
	}
	var mem Memento
	if err := memento.Unmarshal(data, &mem); err != nil {
		return nil, fmt.Errorf("failed to decode memento %s: %w", handle, err)
	}
	return m.Deserialize(ctx, mem)
}
