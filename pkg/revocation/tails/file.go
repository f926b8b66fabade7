/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tails

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
)

const (
	headerSize = 2
	entryHead  = 8
)

// nolint:gochecknoglobals
var fileVersion = []byte{0x00, 0x02}

// Encode serializes tails points into a tails file: the two version bytes followed, in ascending index order,
// by the index and the point length as big endian uint32 and the point bytes.
func Encode(points map[uint32][]byte) []byte {
	indices := maps.Keys(points)
	slices.Sort(indices)

	var buf bytes.Buffer

	buf.Write(fileVersion)

	head := make([]byte, entryHead)

	for _, i := range indices {
		binary.BigEndian.PutUint32(head[:4], i)
		binary.BigEndian.PutUint32(head[4:], uint32(len(points[i])))
		buf.Write(head)
		buf.Write(points[i])
	}

	return buf.Bytes()
}

// Decode parses a tails file. Any structural defect is CorruptTailsData.
func Decode(file []byte) (map[uint32][]byte, error) {
	if len(file) < headerSize || !bytes.Equal(file[:headerSize], fileVersion) {
		return nil, anonerr.New(anonerr.CorruptTailsData, "unsupported tails file version")
	}

	points := make(map[uint32][]byte)
	rest := file[headerSize:]

	var (
		prev  uint32
		first = true
	)

	for len(rest) > 0 {
		if len(rest) < entryHead {
			return nil, anonerr.New(anonerr.CorruptTailsData, "truncated tails entry header")
		}

		index := binary.BigEndian.Uint32(rest[:4])
		size := binary.BigEndian.Uint32(rest[4:entryHead])
		rest = rest[entryHead:]

		if !first && index <= prev {
			return nil, anonerr.New(anonerr.CorruptTailsData, "tails index %d out of order", index)
		}

		if uint64(len(rest)) < uint64(size) {
			return nil, anonerr.New(anonerr.CorruptTailsData, "truncated tails point %d", index)
		}

		points[index] = append([]byte(nil), rest[:size]...)
		rest = rest[size:]
		prev, first = index, false
	}

	return points, nil
}

// Hash returns the content hash recorded in a registry definition: base58 of the SHA-256 of the file.
func Hash(file []byte) string {
	sum := sha256.Sum256(file)

	return base58.Encode(sum[:])
}
