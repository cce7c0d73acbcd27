// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"fmt"

	gtypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// ConvertMetadata extracts pallets and their error variants from V14+
// runtime metadata.
func ConvertMetadata(m *gtypes.Metadata, specVersion uint32) (*types.Metadata, error) {
	if m == nil || m.Version < 14 {
		return nil, ErrUnsupportedMetadata
	}
	v14 := m.AsMetadataV14

	lookup := make(map[int64]gtypes.Si1Type, len(v14.Lookup.Types))
	for _, t := range v14.Lookup.Types {
		lookup[t.ID.Int64()] = t.Type
	}

	out := types.NewMetadata()
	out.SpecVersion = specVersion
	for _, p := range v14.Pallets {
		var errs []types.ErrorVariant
		if p.HasErrors {
			id := p.Errors.Type.Int64()
			t, ok := lookup[id]
			if !ok {
				return nil, fmt.Errorf("pallet %s: error type %d missing from lookup", p.Name, id)
			}
			if t.Def.IsVariant {
				for _, v := range t.Def.Variant.Variants {
					docs := make([]string, 0, len(v.Docs))
					for _, d := range v.Docs {
						docs = append(docs, string(d))
					}
					errs = append(errs, types.ErrorVariant{
						Index: uint8(v.Index),
						Name:  string(v.Name),
						Docs:  docs,
					})
				}
			}
		}
		out.AddPallet(uint8(p.Index), string(p.Name), errs...)
	}
	return out, nil
}
