package spec

import (
	"fmt"
	"reflect"
)

// InvokeAutofit calls method on the pojo of target with the unwrapped pending
// arguments followed by additional ones. The argument list is truncated or
// padded to the method's arity; a missing argument becomes the zero value of
// its parameter type. The result is the method's non-error result, if any.
func InvokeAutofit(method Method, target *ManagedObject, pending []*ManagedObject, additional ...any) (any, error) {
	if IsNullOrUnspecifiedOrEmpty(target) {
		return nil, &InvocationError{Identifier: method.Identifier, Cause: fmt.Errorf("no target object")}
	}
	if !method.Func.IsValid() || method.Type == nil {
		return nil, &InvocationError{Identifier: method.Identifier, Cause: fmt.Errorf("no method")}
	}

	receiver := reflect.ValueOf(target.Pojo())
	if !receiver.Type().AssignableTo(method.Type.In(0)) {
		return nil, &InvocationError{
			Identifier: method.Identifier,
			Cause:      fmt.Errorf("target %T is not a %s", target.Pojo(), method.Type.In(0)),
		}
	}

	values := make([]any, 0, len(pending)+len(additional))
	for _, mo := range pending {
		values = append(values, mo.Pojo())
	}
	values = append(values, additional...)

	paramTypes := method.ParamTypes()
	in := make([]reflect.Value, 0, len(paramTypes)+1)
	in = append(in, receiver)
	for i, pt := range paramTypes {
		var v any
		if i < len(values) {
			v = values[i]
		}
		arg, err := argumentValue(v, pt)
		if err != nil {
			return nil, &InvocationError{Identifier: method.Identifier, Cause: fmt.Errorf("argument %d: %w", i, err)}
		}
		in = append(in, arg)
	}

	return call(method, in)
}

func argumentValue(v any, pt reflect.Type) (reflect.Value, error) {
	if isNil(v) {
		return reflect.Zero(pt), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(pt) {
		return reflect.Value{}, fmt.Errorf("%T is not assignable to %s", v, pt)
	}
	return rv, nil
}

func call(method Method, in []reflect.Value) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{Identifier: method.Identifier, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	out := method.Func.Call(in)
	for _, v := range out {
		if v.Type() == errorType {
			if !v.IsNil() {
				return nil, fmt.Errorf("%s: %w", method.Identifier, v.Interface().(error))
			}
			continue
		}
		result = v.Interface()
	}
	return result, nil
}

func reflectValue(pojo any) reflect.Value {
	v := reflect.ValueOf(pojo)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return reflect.Value{}
	}
	return v
}
