// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	gtypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

const (
	eventsItem            = "Events"
	extrinsicFailedEvent  = "System.ExtrinsicFailed"
	extrinsicSuccessEvent = "System.ExtrinsicSuccess"

	dispatchErrorField = "dispatch_error"
	moduleVariant      = "Module"
	otherVariant       = "Other"
)

var errNoEvents = errors.New("no events stored for block")

// dispatchResult returns the dispatch error of extrinsic idx in blockHash,
// or nil when it succeeded.
func (c *SubstrateClient) dispatchResult(
	ctx context.Context,
	rt *runtimeState,
	blockHash string,
	idx uint32,
) (*types.RawDispatchError, error) {
	raw, found, err := c.queryStorageAt(ctx, rt, blockHash, consts.SystemPallet, eventsItem)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errNoEvents
	}
	reg, err := c.eventRegistry(rt)
	if err != nil {
		return nil, err
	}
	return extrinsicResult(rt.meta, reg, raw, idx)
}

// extrinsicResult scans the encoded System.Events of a block for the
// outcome of extrinsic idx.
func extrinsicResult(
	meta *gtypes.Metadata,
	reg registry.EventRegistry,
	raw []byte,
	idx uint32,
) (*types.RawDispatchError, error) {
	sd := gtypes.StorageDataRaw(raw)
	events, err := parser.NewEventParser().ParseEvents(reg, &sd)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if ev.Phase == nil || !ev.Phase.IsApplyExtrinsic || uint32(ev.Phase.AsApplyExtrinsic) != idx {
			continue
		}
		switch ev.Name {
		case extrinsicFailedEvent:
			return DispatchErrorFromEvent(meta, ev.Fields), nil
		case extrinsicSuccessEvent:
			return nil, nil
		}
	}
	return nil, nil
}

// DispatchErrorFromEvent resolves the dispatch_error field of a decoded
// System.ExtrinsicFailed event against the runtime types.
//
// The registry keeps the variant byte only for variants without fields
// (BadOrigin, ...). A variant with fields (Module, Token, ...) decodes to its
// fields alone, so it is recognised by the lookup ids of those fields.
func DispatchErrorFromEvent(meta *gtypes.Metadata, fields registry.DecodedFields) *types.RawDispatchError {
	lookup := typeLookup(meta)
	f := findDispatchError(lookup, fields)
	if f == nil {
		return &types.RawDispatchError{Kind: otherVariant, Detail: describeFields(lookup, fields)}
	}
	typ, ok := lookup[f.LookupIndex]
	if !ok || !typ.Def.IsVariant {
		return &types.RawDispatchError{Kind: otherVariant, Detail: describe(lookup, f.LookupIndex, f.Value)}
	}
	variant, inner, ok := matchVariant(typ.Def.Variant, f.Value)
	if !ok {
		return &types.RawDispatchError{Kind: otherVariant, Detail: describe(lookup, f.LookupIndex, f.Value)}
	}
	kind := string(variant.Name)
	if kind == moduleVariant {
		if raw, ok := moduleError(inner); ok {
			return raw
		}
	}
	return &types.RawDispatchError{Kind: kind, Detail: describeFields(lookup, inner)}
}

func typeLookup(meta *gtypes.Metadata) map[int64]*gtypes.Si1Type {
	if meta == nil {
		return nil
	}
	if meta.AsMetadataV14.EfficientLookup != nil {
		return meta.AsMetadataV14.EfficientLookup
	}
	entries := meta.AsMetadataV14.Lookup.Types
	lookup := make(map[int64]*gtypes.Si1Type, len(entries))
	for i := range entries {
		lookup[entries[i].ID.Int64()] = &entries[i].Type
	}
	return lookup
}

// findDispatchError picks the field named dispatch_error, falling back to
// the first field typed as a DispatchError.
func findDispatchError(lookup map[int64]*gtypes.Si1Type, fields registry.DecodedFields) *registry.DecodedField {
	for _, f := range fields {
		if f != nil && fieldName(f.Name) == dispatchErrorField {
			return f
		}
	}
	for _, f := range fields {
		if f == nil {
			continue
		}
		if t, ok := lookup[f.LookupIndex]; ok && len(t.Path) > 0 && string(t.Path[len(t.Path)-1]) == "DispatchError" {
			return f
		}
	}
	return nil
}

func matchVariant(def gtypes.Si1TypeDefVariant, value any) (gtypes.Si1Variant, registry.DecodedFields, bool) {
	if idx, ok := toUint(value); ok {
		for _, v := range def.Variants {
			if len(v.Fields) == 0 && uint64(v.Index) == idx {
				return v, nil, true
			}
		}
		return gtypes.Si1Variant{}, nil, false
	}
	inner, ok := value.(registry.DecodedFields)
	if !ok {
		return gtypes.Si1Variant{}, nil, false
	}
	for _, v := range def.Variants {
		if len(v.Fields) == 0 || len(v.Fields) != len(inner) {
			continue
		}
		match := true
		for i, f := range v.Fields {
			if inner[i] == nil || inner[i].LookupIndex != f.Type.Int64() {
				match = false
				break
			}
		}
		if match {
			return v, inner, true
		}
	}
	return gtypes.Si1Variant{}, nil, false
}

// moduleError reads {index, error} from the fields of a Module variant.
// error is [u8; 4] on current runtimes and a single u8 on older ones.
func moduleError(fields registry.DecodedFields) (*types.RawDispatchError, bool) {
	if len(fields) == 1 && fields[0] != nil {
		if nested, ok := fields[0].Value.(registry.DecodedFields); ok {
			fields = nested
		}
	}
	var (
		index           uint64
		code            []byte
		hasIdx, hasCode bool
	)
	for _, f := range fields {
		if f == nil {
			continue
		}
		switch fieldName(f.Name) {
		case "index":
			index, hasIdx = toUint(f.Value)
		case "error":
			code, hasCode = toBytes(f.Value)
		}
	}
	if !hasIdx || !hasCode || index > 0xff {
		return nil, false
	}
	return &types.RawDispatchError{Kind: moduleVariant, ModuleIndex: uint8(index), Code: code}, true
}

// fieldName strips the type path the registry prefixes to field names.
func fieldName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func describeFields(lookup map[int64]*gtypes.Si1Type, fields registry.DecodedFields) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fieldName(f.Name), describe(lookup, f.LookupIndex, f.Value)))
	}
	return strings.Join(parts, ", ")
}

func describe(lookup map[int64]*gtypes.Si1Type, typeID int64, value any) string {
	if fields, ok := value.(registry.DecodedFields); ok {
		return "{" + describeFields(lookup, fields) + "}"
	}
	n, ok := toUint(value)
	if !ok {
		return fmt.Sprint(value)
	}
	if t, ok := lookup[typeID]; ok && t.Def.IsVariant {
		for _, v := range t.Def.Variant.Variants {
			if len(v.Fields) == 0 && uint64(v.Index) == n {
				return string(v.Name)
			}
		}
	}
	return strconv.FormatUint(n, 10)
}

func toUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case gtypes.U8:
		return uint64(n), true
	case gtypes.U16:
		return uint64(n), true
	case gtypes.U32:
		return uint64(n), true
	case gtypes.U64:
		return uint64(n), true
	default:
		return 0, false
	}
}

func toBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return append([]byte{}, b...), len(b) > 0
	case gtypes.Bytes:
		return append([]byte{}, b...), len(b) > 0
	case []any:
		if len(b) == 0 {
			return nil, false
		}
		out := make([]byte, len(b))
		for i, item := range b {
			n, ok := toUint(item)
			if !ok || n > 0xff {
				return nil, false
			}
			out[i] = byte(n)
		}
		return out, true
	}
	if n, ok := toUint(v); ok && n <= 0xff {
		return []byte{byte(n)}, true
	}
	return nil, false
}
