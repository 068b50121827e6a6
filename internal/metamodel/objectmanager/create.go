package objectmanager

import (
	"context"
	"fmt"
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// CreateRequest asks for a new instance of Spec.
type CreateRequest struct {
	Spec *spec.Specification
}

// Creator instantiates objects. New entities are transient.
type Creator interface {
	Create(ctx context.Context, req CreateRequest) (*spec.ManagedObject, error)
}

// DefaultCreator allocates structs with reflect.New and calls their Created
// callback. Values start from their type's default.
type DefaultCreator struct{}

func (DefaultCreator) Create(ctx context.Context, req CreateRequest) (*spec.ManagedObject, error) {
	s := req.Spec
	if s == nil {
		return nil, fmt.Errorf("cannot create an object without a specification")
	}
	switch {
	case s.IsMixin(), s.IsCollection(), s.BeanSort() == spec.SortAbstract:
		return nil, fmt.Errorf("cannot create an instance of %s %s", s.BeanSort(), s.LogicalTypeName())
	case s.IsValue():
		if vf, ok := valueFacet(s); ok {
			if v, ok := vf.DefaultValue(); ok {
				return spec.NewManagedObject(s, v), nil
			}
		}
		return spec.NewManagedObject(s, reflect.Zero(s.Type()).Interface()), nil
	}

	t := s.Type()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot create an instance of %s", t)
	}
	pojo := reflect.New(t).Interface()
	if cb, ok := pojo.(applib.Created); ok {
		cb.Created()
	}
	return spec.NewManagedObject(s, pojo), nil
}
