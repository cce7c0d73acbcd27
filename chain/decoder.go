// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// ByteOrder describes how the module error code bytes carry the variant
// index.
type ByteOrder uint8

const (
	// LittleEndian reads the variant index from the first byte, which is how
	// SCALE lays out ModuleError.error ([u8; 4]).
	LittleEndian ByteOrder = iota
	// BigEndian reads it from the last byte.
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "little", "le":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownByteOrder, s)
	}
}

// ErrorIndex extracts the error variant index from a raw module error code.
func ErrorIndex(code []byte, order ByteOrder) (uint8, error) {
	switch len(code) {
	case 0:
		return 0, ErrEmptyErrorCode
	case 1:
		return code[0], nil
	case 4:
		if order == BigEndian {
			return code[3], nil
		}
		return code[0], nil
	default:
		return 0, fmt.Errorf("%w: %d bytes", ErrMalformedErrorCode, len(code))
	}
}

// EncodeErrorCode is the inverse of ErrorIndex for a 4 byte code.
func EncodeErrorCode(index uint8, order ByteOrder) []byte {
	code := make([]byte, 4)
	if order == BigEndian {
		code[3] = index
	} else {
		code[0] = index
	}
	return code
}

type DecoderOption func(*Decoder)

func WithByteOrder(o ByteOrder) DecoderOption {
	return func(d *Decoder) { d.order = o }
}

// WithMetadataCache keeps the first successfully fetched metadata for the
// lifetime of the decoder (one connection).
func WithMetadataCache() DecoderOption {
	return func(d *Decoder) { d.cache = true }
}

func WithDecodeObserver(obs Observer) DecoderOption {
	return func(d *Decoder) { d.obs = obs }
}

// Decoder translates module dispatch failures into named errors using chain
// metadata. It never replaces the original failure with a decoding failure:
// when anything goes wrong the raw error is returned unchanged.
type Decoder struct {
	src   MetadataSource
	log   logging.Logger
	order ByteOrder
	cache bool
	obs   Observer

	l    sync.Mutex
	meta *types.Metadata
}

func NewDecoder(src MetadataSource, log logging.Logger, opts ...DecoderOption) *Decoder {
	d := &Decoder{src: src, log: log}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode returns a *types.DispatchError for a decodable module error, and err
// itself in every other case.
func (d *Decoder) Decode(ctx context.Context, err error) error {
	var raw *types.RawDispatchError
	if !errors.As(err, &raw) || raw == nil {
		return err
	}
	decoded, derr := d.decode(ctx, raw)
	if derr != nil {
		d.log.Debug("passing through undecoded dispatch error",
			zap.String("raw", raw.Error()),
			zap.Error(derr),
		)
		if d.obs != nil {
			d.obs.DecodeFallback(derr)
		}
		return err
	}
	return decoded
}

func (d *Decoder) decode(ctx context.Context, raw *types.RawDispatchError) (*types.DispatchError, error) {
	if !raw.IsModule() {
		return nil, fmt.Errorf("%w: %s", ErrNotModuleError, raw.Kind)
	}
	idx, err := ErrorIndex(raw.Code, d.order)
	if err != nil {
		return nil, err
	}
	meta, err := d.metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	pallet, ok := meta.Pallet(raw.ModuleIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPallet, raw.ModuleIndex)
	}
	variant, ok := pallet.Error(idx)
	if !ok {
		return nil, fmt.Errorf("%w: %s[%d]", ErrUnknownErrorVariant, pallet.Name, idx)
	}
	code := make([]byte, len(raw.Code))
	copy(code, raw.Code)
	return &types.DispatchError{
		ModuleIndex: raw.ModuleIndex,
		Pallet:      pallet.Name,
		RawCode:     code,
		Name:        variant.Name,
		Description: strings.TrimSpace(strings.Join(variant.Docs, " ")),
	}, nil
}

func (d *Decoder) metadata(ctx context.Context) (*types.Metadata, error) {
	if d.cache {
		d.l.Lock()
		defer d.l.Unlock()
		if d.meta != nil {
			return d.meta, nil
		}
	}
	meta, err := d.src.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrNilMetadata
	}
	if d.cache {
		d.meta = meta
	}
	return meta, nil
}
