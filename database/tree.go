package database

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/pkg/errors"
)

// The memory and redis stores keep records as generic JSON trees:
// map[string]any objects, json.Number numbers, nil for absent.

func decodeTree(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	return prune(v), nil
}

// toTree converts a Go value to tree form. Nulls and empty objects vanish,
// as they do in the Realtime Database.
func toTree(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "encode value")
	}
	return decodeTree(data)
}

func prune(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		if child = prune(child); child == nil {
			delete(m, k)
		} else {
			m[k] = child
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func lookup(root any, segs []string) (any, bool) {
	cur := root
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[s]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// assign replaces the node at segs with val, creating objects on the way
// down. A nil val removes the node and any parents it leaves empty.
func assign(root any, segs []string, val any) any {
	if len(segs) == 0 {
		return val
	}
	m, ok := root.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	if child := assign(m[segs[0]], segs[1:], val); child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func encodeRaw(node any) (json.RawMessage, error) {
	if node == nil {
		return nil, nil
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, errors.Wrap(err, "encode record")
	}
	return data, nil
}

// decodeInto copies node into out. out may be nil to only test presence.
func decodeInto(node any, out any) (bool, error) {
	if node == nil {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	data, err := encodeRaw(node)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, errors.Wrap(err, "decode record")
	}
	return true, nil
}

func childrenOf(node any) ([]Child, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, nil
	}
	out := make([]Child, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		raw, err := encodeRaw(m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, Child{Key: k, Value: raw})
	}
	return out, nil
}

// fromChildren rebuilds a collection node from its listed records.
func fromChildren(children []Child) (any, error) {
	if len(children) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(children))
	for _, c := range children {
		v, err := decodeTree(c.Value)
		if err != nil {
			return nil, err
		}
		if v != nil {
			m[c.Key] = v
		}
	}
	return prune(m), nil
}
