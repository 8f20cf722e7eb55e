package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/shapeforge/internal/ir"
)

// marshalHandles stores a handle list as canonical JSON TEXT. nil becomes [].
func marshalHandles(hs []ir.Handle) (string, error) {
	if hs == nil {
		hs = []ir.Handle{}
	}
	data, err := ir.MarshalCanonical(hs)
	if err != nil {
		return "", fmt.Errorf("marshal handles: %w", err)
	}
	return string(data), nil
}

func marshalKinds(ks []ir.ShapeKind) (string, error) {
	if ks == nil {
		ks = []ir.ShapeKind{}
	}
	data, err := ir.MarshalCanonical(ks)
	if err != nil {
		return "", fmt.Errorf("marshal kinds: %w", err)
	}
	return string(data), nil
}

func unmarshalHandles(data string) ([]ir.Handle, error) {
	out := []ir.Handle{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal handles: %w", err)
	}
	return out, nil
}

func unmarshalKinds(data string) ([]ir.ShapeKind, error) {
	out := []ir.ShapeKind{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal kinds: %w", err)
	}
	return out, nil
}
