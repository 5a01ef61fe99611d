// Copyright 2026 The Prolly-Gunna Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tree

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/Ntropish/prolly-gunna-sub000/errs"
	"github.com/Ntropish/prolly-gunna-sub000/hash"
)

// Wire format (canonical, length-prefixed, no schema): this is a
// bespoke binary codec rather than a generic serialization library
// because the node's wire bytes must be byte-for-byte stable across
// implementations for content-addressing to work (§6), and no
// schema-driven serializer in reach of this module (flatbuffers,
// protobuf) would let us hand-pick every length-prefix and field order
// with this little ceremony for an opaque-key/opaque-value node.
//
//	tag      uint8   (0 = leaf, 1 = internal)
//	level    uint8
//	count    uvarint
//	-- leaf: count * leafEntry
//	   keyLen  uvarint
//	   key     []byte
//	   kind    uint8 (0 inline, 1 chunked, 2 chunked sequence)
//	   inline:  valLen uvarint, value []byte
//	   chunked: 32 bytes hash
//	   chunked sequence: chunkCount uvarint, chunkCount*32 bytes, totalSize uvarint
//	-- internal: count * internalEntry
//	   keyLen  uvarint
//	   key     []byte
//	   32 bytes child hash
//	   numItemsSubtree uvarint
const (
	tagLeaf     = 0
	tagInternal = 1

	kindInline          = 0
	kindChunked         = 1
	kindChunkedSequence = 2
)

// EncodeNode produces the canonical byte encoding of n. Encoding an
// entry-less node is a programmer error (§4.5): StoreNode checks this
// before calling EncodeNode, but EncodeNode itself still refuses to
// silently produce an ambiguous empty encoding.
func EncodeNode(n *Node) ([]byte, error) {
	if n.NumEntries() == 0 {
		return nil, errs.NodeSerialization("cannot encode a node with zero entries")
	}

	var buf bytes.Buffer
	var varintBuf [binary.MaxVarintLen64]byte

	writeUvarint := func(v uint64) {
		m := binary.PutUvarint(varintBuf[:], v)
		buf.Write(varintBuf[:m])
	}

	if n.IsLeaf() {
		buf.WriteByte(tagLeaf)
	} else {
		buf.WriteByte(tagInternal)
	}
	buf.WriteByte(n.Level)
	writeUvarint(uint64(n.NumEntries()))

	if n.IsLeaf() {
		for _, e := range n.Entries {
			writeUvarint(uint64(len(e.Key)))
			buf.Write(e.Key)
			if err := encodeValueRepr(&buf, writeUvarint, e.Value); err != nil {
				return nil, err
			}
		}
	} else {
		for _, c := range n.Children {
			writeUvarint(uint64(len(c.BoundaryKey)))
			buf.Write(c.BoundaryKey)
			buf.Write(c.ChildHash[:])
			writeUvarint(c.NumItemsSubtree)
		}
	}

	return buf.Bytes(), nil
}

func encodeValueRepr(buf *bytes.Buffer, writeUvarint func(uint64), v ValueRepr) error {
	switch v.Kind {
	case ValueInline:
		buf.WriteByte(kindInline)
		writeUvarint(uint64(len(v.Inline)))
		buf.Write(v.Inline)
	case ValueChunked:
		buf.WriteByte(kindChunked)
		buf.Write(v.Chunk[:])
	case ValueChunkedSequence:
		buf.WriteByte(kindChunkedSequence)
		writeUvarint(uint64(len(v.Chunks)))
		for _, h := range v.Chunks {
			buf.Write(h[:])
		}
		writeUvarint(v.TotalSize)
	default:
		return errs.NodeSerialization("unknown value repr kind")
	}
	return nil
}

// DecodeNode parses bytes previously produced by EncodeNode. It fails
// with an errs.ErrNodeDeserialization-wrapped error on truncated or
// malformed input.
func DecodeNode(data []byte) (*Node, error) {
	r := &byteCursor{data: data}

	tag, err := r.readByte()
	if err != nil {
		return nil, errs.NodeDeserialization("missing tag byte")
	}
	level, err := r.readByte()
	if err != nil {
		return nil, errs.NodeDeserialization("missing level byte")
	}
	count, err := r.readUvarint()
	if err != nil {
		return nil, errs.NodeDeserialization("missing entry count")
	}

	n := &Node{Level: level}

	switch tag {
	case tagLeaf:
		n.Entries = make([]LeafEntry, 0, count)
		for i := uint64(0); i < count; i++ {
			key, err := r.readBytesPrefixed()
			if err != nil {
				return nil, errs.NodeDeserialization("truncated leaf key")
			}
			v, err := decodeValueRepr(r)
			if err != nil {
				return nil, err
			}
			n.Entries = append(n.Entries, LeafEntry{Key: key, Value: v})
		}
	case tagInternal:
		n.Children = make([]InternalEntry, 0, count)
		for i := uint64(0); i < count; i++ {
			key, err := r.readBytesPrefixed()
			if err != nil {
				return nil, errs.NodeDeserialization("truncated internal boundary key")
			}
			h, err := r.readHash()
			if err != nil {
				return nil, errs.NodeDeserialization("truncated internal child hash")
			}
			numItems, err := r.readUvarint()
			if err != nil {
				return nil, errs.NodeDeserialization("truncated internal item count")
			}
			n.Children = append(n.Children, InternalEntry{
				BoundaryKey:     key,
				ChildHash:       h,
				NumItemsSubtree: numItems,
			})
		}
	default:
		return nil, errs.NodeDeserialization("unknown node tag")
	}

	if !r.atEOF() {
		return nil, errs.NodeDeserialization("trailing bytes after node")
	}
	return n, nil
}

func decodeValueRepr(r *byteCursor) (ValueRepr, error) {
	kind, err := r.readByte()
	if err != nil {
		return ValueRepr{}, errs.NodeDeserialization("missing value kind")
	}
	switch kind {
	case kindInline:
		b, err := r.readBytesPrefixed()
		if err != nil {
			return ValueRepr{}, errs.NodeDeserialization("truncated inline value")
		}
		return ValueRepr{Kind: ValueInline, Inline: b}, nil
	case kindChunked:
		h, err := r.readHash()
		if err != nil {
			return ValueRepr{}, errs.NodeDeserialization("truncated chunked value hash")
		}
		return ValueRepr{Kind: ValueChunked, Chunk: h}, nil
	case kindChunkedSequence:
		count, err := r.readUvarint()
		if err != nil {
			return ValueRepr{}, errs.NodeDeserialization("truncated chunk sequence count")
		}
		hashes := make([]hash.Hash, 0, count)
		for i := uint64(0); i < count; i++ {
			h, err := r.readHash()
			if err != nil {
				return ValueRepr{}, errs.NodeDeserialization("truncated chunk sequence hash")
			}
			hashes = append(hashes, h)
		}
		total, err := r.readUvarint()
		if err != nil {
			return ValueRepr{}, errs.NodeDeserialization("truncated chunk sequence total size")
		}
		return ValueRepr{Kind: ValueChunkedSequence, Chunks: hashes, TotalSize: total}, nil
	default:
		return ValueRepr{}, errs.NodeDeserialization("unknown value kind byte")
	}
}

// byteCursor is a minimal forward-only reader over a byte slice,
// avoiding the allocation overhead of bytes.Reader for this hot path.
type byteCursor struct {
	data []byte
	pos  int
}

func (c *byteCursor) atEOF() bool { return c.pos >= len(c.data) }

func (c *byteCursor) readByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *byteCursor) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(c.data[c.pos:])
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	c.pos += n
	return v, nil
}

func (c *byteCursor) readBytesPrefixed() ([]byte, error) {
	n, err := c.readUvarint()
	if err != nil {
		return nil, err
	}
	if uint64(c.pos)+n > uint64(len(c.data)) {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	copy(b, c.data[c.pos:c.pos+int(n)])
	c.pos += int(n)
	return b, nil
}

func (c *byteCursor) readHash() (hash.Hash, error) {
	var h hash.Hash
	if c.pos+hash.ByteLen > len(c.data) {
		return h, io.ErrUnexpectedEOF
	}
	copy(h[:], c.data[c.pos:c.pos+hash.ByteLen])
	c.pos += hash.ByteLen
	return h, nil
}
