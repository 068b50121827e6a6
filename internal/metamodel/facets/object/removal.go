// Package object holds the factories processing a domain type as a whole.
package object

import (
	"reflect"
	"slices"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// contractMethods implement ordering, equality, printing or annotations;
// they are never actions.
var contractMethods = map[string]bool{
	"Compare":              true,
	"Less":                 true,
	"Equal":                true,
	"String":               true,
	"GoString":             true,
	"Format":               true,
	"Error":                true,
	"Hash":                 true,
	"Clone":                true,
	"MetamodelAnnotations": true,
	"EnumValues":           true,
	"DefaultValue":         true,
}

var applibPkg = reflect.TypeFor[applib.Annotations]().PkgPath()

// RemoveMethodsFacetFactory drops the methods that can never be actions.
// It runs before every other factory.
type RemoveMethodsFacetFactory struct{}

func (RemoveMethodsFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (RemoveMethodsFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	c := ctx.Class
	removed := c.RemoveMethods(func(m *facets.Method) bool {
		switch {
		case m.Synthetic, contractMethods[m.Name]:
			return true
		case isLifecycleCallback(m):
			return true
		case m.Promoted && isIgnoredBase(ctx, m.DeclaringType):
			return true
		case ctx.Config.ProgrammingModel.ExplicitActions && isNaiveSetter(c, m):
			return true
		}
		return false
	})
	for _, m := range removed {
		ctx.Logger.Debug("method removed from action candidates",
			zap.String("type", c.LogicalName),
			zap.String("method", m.Name))
	}
	return nil
}

func isLifecycleCallback(m *facets.Method) bool {
	return m.NumParams() == 0 && slices.Contains(applib.LifecycleCallbacks, m.Name)
}

func isIgnoredBase(ctx *facets.ProcessClassContext, t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() == applibPkg || ctx.Config.IsIgnoredBaseType(spec.LogicalTypeName(t))
}

// isNaiveSetter matches SetX(v) without an explicit action annotation.
func isNaiveSetter(c *facets.Class, m *facets.Method) bool {
	if len(m.Name) <= 3 || m.Name[:3] != "Set" || m.NumParams() != 1 {
		return false
	}
	_, annotated := c.ActionAnnotation(m.Name)
	return !annotated
}
