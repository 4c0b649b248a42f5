// Package codec implements the raw-array (msgpack) and generic-object
// (pickle) decoders the loader tries before the tabular reader, their
// matching writers, and the normalization of decoded object graphs into
// Datasets.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// ReadArray decodes a msgpack file whose top-level value is an array.
// Elements may be arbitrary embedded objects. Bytes left over after the
// array are an error.
func ReadArray(path string) (types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, types.ErrEmptyFile
	}

	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, fmt.Errorf("msgpack: %w", err)
	}
	if _, ok := v.([]any); !ok {
		return nil, fmt.Errorf("%w: got %T", types.ErrNotArray, v)
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes", types.ErrTrailingData, r.Len())
	}
	return Normalize(v)
}

// WriteArray encodes a Table or Sequence as a msgpack array. Table rows
// are written as maps; map keys are sorted so output is deterministic.
func WriteArray(w io.Writer, d types.Dataset) error {
	switch d.Kind() {
	case types.KindTable, types.KindSequence:
	default:
		return fmt.Errorf("%w: cannot write %s", types.ErrNotArray, d.Kind())
	}

	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(Plain(d)); err != nil {
		return fmt.Errorf("msgpack encode: %w", err)
	}
	return nil
}
