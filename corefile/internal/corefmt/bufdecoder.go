// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corefmt holds a small binary-decoding helper used by
// container parsers to walk fixed-format records (e.g. ELF core-file
// notes). It is internal: the cursor-style decoder here is convenient
// but easy to misuse outside a tightly controlled parse loop.
package corefmt

import "encoding/binary"

// BufDecoder decodes fixed- and variable-width scalars out of a raw
// byte slice, advancing its own cursor as it goes. It's the same shape
// as the teacher package's private bufDecoder, generalized only in
// that the byte order is supplied by the caller instead of being fixed
// to little-endian, since core files record their own endianness.
type BufDecoder struct {
	Buf   []byte
	Order binary.ByteOrder
}

func NewBufDecoder(buf []byte, order binary.ByteOrder) BufDecoder {
	return BufDecoder{buf, order}
}

func (b *BufDecoder) Skip(n int) { b.Buf = b.Buf[n:] }

func (b *BufDecoder) Bytes(x []byte) {
	copy(x, b.Buf)
	b.Buf = b.Buf[len(x):]
}

func (b *BufDecoder) U16() uint16 {
	x := b.Order.Uint16(b.Buf)
	b.Buf = b.Buf[2:]
	return x
}

func (b *BufDecoder) U32() uint32 {
	x := b.Order.Uint32(b.Buf)
	b.Buf = b.Buf[4:]
	return x
}

func (b *BufDecoder) I32() int32 {
	x := int32(b.Order.Uint32(b.Buf))
	b.Buf = b.Buf[4:]
	return x
}

func (b *BufDecoder) U64() uint64 {
	x := b.Order.Uint64(b.Buf)
	b.Buf = b.Buf[8:]
	return x
}

func (b *BufDecoder) CString() string {
	for i, c := range b.Buf {
		if c == 0 {
			x := string(b.Buf[:i])
			b.Buf = b.Buf[i+1:]
			return x
		}
	}
	x := string(b.Buf)
	b.Buf = b.Buf[:0]
	return x
}

// Len reports how many bytes remain in the decoder.
func (b *BufDecoder) Len() int { return len(b.Buf) }
