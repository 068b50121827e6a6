package value

import (
	"math/big"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/config"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Env is what a provider is configured from.
type Env struct {
	Locale Locale
	// Format is value_types.<key>.format.
	Format string
	// Patterns are the named patterns of value_types.<key>.patterns.
	Patterns map[string]string
}

// Provider starts a facet builder for its type. It is called once per
// holder so facets are never shared.
type Provider func(env Env) *Builder

type registration struct {
	key      string
	provider Provider
}

// Registry maps value types onto their providers.
type Registry struct {
	cfg    *config.Config
	locale Locale

	mu    sync.RWMutex
	types map[reflect.Type]registration
}

// NewRegistry returns a registry holding the built-in value types,
// configured from cfg.
func NewRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Registry{
		cfg:    cfg,
		locale: NewLocale(cfg.Core.Runtime.Locale),
		types:  map[reflect.Type]registration{},
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.Register(reflect.TypeFor[bool](), "bool", func(Env) *Builder {
		return NewBuilder(reflect.TypeFor[bool]()).Capabilities(boolProvider{}).Lengths(5, 5)
	})
	r.Register(reflect.TypeFor[string](), "string", func(Env) *Builder {
		return NewBuilder(reflect.TypeFor[string]()).Capabilities(stringProvider{}).Lengths(25, 0)
	})

	ints := []struct {
		t            reflect.Type
		key          string
		typical, max int
	}{
		{reflect.TypeFor[int8](), "int8", 3, 4},
		{reflect.TypeFor[int16](), "int16", 5, 6},
		{reflect.TypeFor[int32](), "int32", 9, 11},
		{reflect.TypeFor[int64](), "int64", 18, 20},
		{reflect.TypeFor[int](), "int", 18, 20},
	}
	for _, it := range ints {
		r.Register(it.t, it.key, func(env Env) *Builder {
			return NewBuilder(it.t).Capabilities(newIntProvider(it.t, env)).Lengths(it.typical, it.max)
		})
	}
	r.Register(reflect.TypeFor[float32](), "float32", func(env Env) *Builder {
		t := reflect.TypeFor[float32]()
		return NewBuilder(t).Capabilities(newFloatProvider(t, env)).Lengths(12, 20)
	})
	r.Register(reflect.TypeFor[float64](), "float64", func(env Env) *Builder {
		t := reflect.TypeFor[float64]()
		return NewBuilder(t).Capabilities(newFloatProvider(t, env)).Lengths(22, 25)
	})
	r.Register(reflect.TypeFor[*big.Int](), "big_int", func(env Env) *Builder {
		return NewBuilder(reflect.TypeFor[*big.Int]()).Capabilities(newBigIntProvider(env)).Lengths(18, 0).Mutable()
	})
	r.Register(reflect.TypeFor[*big.Rat](), "big_rat", func(env Env) *Builder {
		return NewBuilder(reflect.TypeFor[*big.Rat]()).Capabilities(newBigRatProvider(env)).Lengths(18, 0).Mutable()
	})
	r.Register(reflect.TypeFor[uuid.UUID](), "uuid", func(Env) *Builder {
		return NewBuilder(reflect.TypeFor[uuid.UUID]()).Capabilities(uuidProvider{}).Lengths(36, 36)
	})

	temporals := []struct {
		t            reflect.Type
		key          string
		tt           temporalType
		typical, max int
	}{
		{reflect.TypeFor[applib.LocalDate](), "local_date", localDateType, 12, 12},
		{reflect.TypeFor[applib.LocalDateTime](), "local_date_time", localDateTimeType, 22, 36},
		{reflect.TypeFor[applib.LocalTime](), "local_time", localTimeType, 12, 18},
		{reflect.TypeFor[time.Time](), "offset_date_time", offsetDateTimeType, 25, 36},
	}
	for _, tp := range temporals {
		r.Register(tp.t, tp.key, func(env Env) *Builder {
			return NewBuilder(tp.t).Capabilities(newTemporalProvider(tp.tt, env)).Lengths(tp.typical, tp.max)
		})
	}
}

// Register adds or replaces the provider of t. key selects the
// value_types section configuring it.
func (r *Registry) Register(t reflect.Type, key string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t] = registration{key: key, provider: p}
}

// lookup resolves t directly or, for *T of a non-pointer value type T, as
// the pointer form of T.
func (r *Registry) lookup(t reflect.Type) (registration, bool, bool) {
	if t == nil {
		return registration{}, false, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.types[t]; ok {
		return reg, false, true
	}
	if isEnum(t) {
		return enumRegistration(t), false, true
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() != reflect.Pointer {
		elem := t.Elem()
		if reg, ok := r.types[elem]; ok {
			return reg, true, true
		}
		if isEnum(elem) {
			return enumRegistration(elem), true, true
		}
	}
	return registration{}, false, false
}

// IsValueType reports whether t, or the T of *T, is registered or is an
// enumeration.
func (r *Registry) IsValueType(t reflect.Type) bool {
	_, _, ok := r.lookup(t)
	return ok
}

// FacetFor builds a fresh facet for t.
func (r *Registry) FacetFor(t reflect.Type, specs spec.SpecificationLoader) (*Facet, bool) {
	reg, pointer, ok := r.lookup(t)
	if !ok {
		return nil, false
	}
	env := Env{
		Locale:   r.locale,
		Format:   r.cfg.ValueFormat(reg.key),
		Patterns: r.cfg.ValuePatterns(reg.key),
	}
	b := reg.provider(env)
	if pointer {
		b.PointerForm()
	}
	return b.Build(specs), true
}

// Key returns the configuration key of t.
func (r *Registry) Key(t reflect.Type) (string, bool) {
	reg, _, ok := r.lookup(t)
	return reg.key, ok
}

// Types returns the registered base types ordered by name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Locale returns the locale titles are rendered in.
func (r *Registry) Locale() Locale {
	return r.locale
}
