package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	pickle "github.com/kisielk/og-rek"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// pickleProtocol is the protocol WriteObject emits. Protocol 2 is the
// oldest that opens with a PROTO opcode.
const pickleProtocol = 2

// protoOpcode opens every pickle of protocol 2 and later.
const protoOpcode = 0x80

// ReadObject unpickles the object graph in the file at path. Lists, dicts,
// tuples and scalars decode to plain values; instances of Python classes
// decode to calls that cannot be rebuilt here and are rejected when they
// are the top-level object. Only streams that open with a PROTO opcode are
// read; headerless protocol 0 and 1 streams look like arbitrary text.
func ReadObject(path string) (types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	switch {
	case len(head) == 0 && errors.Is(err, io.EOF):
		return nil, types.ErrEmptyFile
	case len(head) == 0:
		return nil, err
	case head[0] != protoOpcode:
		return nil, fmt.Errorf("%w: no protocol header", types.ErrNotPickle)
	}

	v, err := pickle.NewDecoder(br).Decode()
	if err != nil {
		return nil, fmt.Errorf("unpickling: %w", err)
	}
	switch x := v.(type) {
	case pickle.Call:
		return nil, fmt.Errorf("%w: %s.%s", types.ErrForeignObject, x.Callable.Module, x.Callable.Name)
	case pickle.Class:
		return nil, fmt.Errorf("%w: %s.%s", types.ErrForeignObject, x.Module, x.Name)
	}
	return Normalize(v)
}

// WriteObject pickles v with protocol 2.
func WriteObject(w io.Writer, v any) error {
	enc := pickle.NewEncoderWithConfig(w, &pickle.EncoderConfig{Protocol: pickleProtocol})
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("pickling: %w", err)
	}
	return nil
}

// WriteDataset pickles d as plain values: a Table as a list of dicts, one
// per row.
func WriteDataset(w io.Writer, d types.Dataset) error {
	return WriteObject(w, Plain(d))
}
