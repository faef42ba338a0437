package rpc

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/video-mindmap/core"
)

// Field readers for Struct requests. Each failure wraps ErrInvalidRequest.

func fieldsOf(in *structpb.Struct) map[string]*structpb.Value {
	if in == nil {
		return nil
	}
	return in.GetFields()
}

func requireString(in *structpb.Struct, key string) (string, error) {
	v, ok := fieldsOf(in)[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidRequest, key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || s.StringValue == "" {
		return "", fmt.Errorf("%w: %q must be a non-empty string", ErrInvalidRequest, key)
	}
	return s.StringValue, nil
}

func optionalString(in *structpb.Struct, key string) (string, error) {
	v, ok := fieldsOf(in)[key]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidRequest, key)
	}
	return s.StringValue, nil
}

func requireNumber(in *structpb.Struct, key string) (float64, error) {
	v, ok := fieldsOf(in)[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidRequest, key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidRequest, key)
	}
	return n.NumberValue, nil
}

func requireIndex(in *structpb.Struct, key string) (int, error) {
	f, err := requireNumber(in, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q must be an integer, got %v", ErrInvalidRequest, key, f)
	}
	return int(f), nil
}

func optionalBool(in *structpb.Struct, key string) (bool, error) {
	v, ok := fieldsOf(in)[key]
	if !ok {
		return false, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %q must be a bool", ErrInvalidRequest, key)
	}
	return b.BoolValue, nil
}

func requirePoint(in *structpb.Struct) (core.Vec2, error) {
	x, err := requireNumber(in, "x")
	if err != nil {
		return core.Vec2{}, err
	}
	y, err := requireNumber(in, "y")
	if err != nil {
		return core.Vec2{}, err
	}
	return core.Vec2{X: x, Y: y}, nil
}

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
