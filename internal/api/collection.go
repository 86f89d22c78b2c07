package api

import (
	"bytes"
	"encoding/json"
)

// Collection endpoints answer with a bare JSON array when asked for
// application/json, and with a Hydra envelope for application/ld+json.
// Both shapes are accepted; anything else decodes to an empty result.

type envelope struct {
	HydraMember json.RawMessage `json:"hydra:member"`
	Member      json.RawMessage `json:"member"`
	HydraTotal  *int            `json:"hydra:totalItems"`
	Total       *int            `json:"totalItems"`
}

// DecodeMembers returns the members of a collection response. Elements that
// do not decode into T are skipped. It never returns nil.
func DecodeMembers[T any](raw json.RawMessage) []T {
	if elems, ok := splitArray(raw); ok {
		return decodeEach[T](elems)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return []T{}
	}
	members := env.HydraMember
	if len(members) == 0 {
		members = env.Member
	}
	elems, ok := splitArray(members)
	if !ok {
		return []T{}
	}
	return decodeEach[T](elems)
}

// CountMembers returns the total of a collection response: the envelope's
// totalItems, or for a bare array the number of elements DecodeMembers[T]
// keeps, or 0.
func CountMembers[T any](raw json.RawMessage) int {
	if elems, ok := splitArray(raw); ok {
		return len(decodeEach[T](elems))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0
	}
	switch {
	case env.HydraTotal != nil:
		return *env.HydraTotal
	case env.Total != nil:
		return *env.Total
	}
	return 0
}

func splitArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil, false
	}
	return elems, true
}

var jsonNull = []byte("null")

func decodeEach[T any](elems []json.RawMessage) []T {
	list := make([]T, 0, len(elems))
	for _, elem := range elems {
		if bytes.Equal(bytes.TrimSpace(elem), jsonNull) {
			continue
		}
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}
		list = append(list, v)
	}
	return list
}
