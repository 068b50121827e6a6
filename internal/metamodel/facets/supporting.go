package facets

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

// Prefixes of supporting methods. A supporting method names the member it
// supports, e.g. HideDescription, Choices0Complete.
const (
	PrefixHide     = "Hide"
	PrefixDisable  = "Disable"
	PrefixValidate = "Validate"
	PrefixChoices  = "Choices"
	PrefixDefault  = "Default"
)

var supportingPrefixes = []string{PrefixHide, PrefixDisable, PrefixValidate, PrefixChoices, PrefixDefault}

// SupportingTarget splits a supporting method name into its prefix, the
// parameter index (or -1) and the supported member's name.
func SupportingTarget(name string) (prefix string, index int, target string, ok bool) {
	for _, p := range supportingPrefixes {
		rest, found := strings.CutPrefix(name, p)
		if !found || rest == "" {
			continue
		}
		index = -1
		if p == PrefixChoices || p == PrefixDefault {
			digits := 0
			for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
				digits++
			}
			if digits > 0 {
				index, _ = strconv.Atoi(rest[:digits])
				rest = rest[digits:]
			}
		}
		if rest == "" || !unicode.IsUpper(rune(rest[0])) {
			continue
		}
		return p, index, rest, true
	}
	return "", -1, "", false
}

// IsSupportingMethod reports whether name follows the supporting method
// convention. Such methods are never actions.
func IsSupportingMethod(name string) bool {
	_, _, _, ok := SupportingTarget(name)
	return ok
}

// SupportingMethodName builds the name of a supporting method.
func SupportingMethodName(prefix string, index int, member string) string {
	if index >= 0 {
		return prefix + strconv.Itoa(index) + member
	}
	return prefix + member
}

// OrphanedSupportingMethodValidator reports supporting methods whose member
// does not exist.
func OrphanedSupportingMethodValidator() validation.Validator {
	return validation.ValidatorFunc(func(s *spec.Specification, sink validation.Sink) {
		if s.Type().Kind() != reflect.Struct || s.IsMixin() || s.IsValue() {
			return
		}
		ptr := reflect.PointerTo(s.Type())
		for i := 0; i < ptr.NumMethod(); i++ {
			name := ptr.Method(i).Name
			_, index, target, ok := SupportingTarget(name)
			if !ok || hasMember(s, index, target) {
				continue
			}
			sink.OnFailure(s.Identifier().Member(name),
				fmt.Sprintf("supporting method %s does not match any member (no %q)", name, target))
		}
	})
}

func hasMember(s *spec.Specification, index int, target string) bool {
	if a, ok := s.Action(target); ok {
		return index < 0 || index < len(a.Parameters())
	}
	if index >= 0 {
		return false
	}
	if _, ok := s.Property(target); ok {
		return true
	}
	_, ok := s.Collection(target)
	return ok
}
