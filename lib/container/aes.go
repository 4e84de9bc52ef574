// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// AESDesc is the payload of an AES_DESC entry (spec §3, §4.1): three
// length-prefixed byte fields carrying the key material needed to
// unseal the content key for the AES entries that follow in the file,
// in order: a SHA-256 hash of the signer's DER-encoded RSA public key,
// the RSA-sealed 256-bit content key, and a 16-byte IV. This package
// only encodes/decodes the byte layout — sealing and unsealing the key
// itself is lib/buffer's concern.
type AESDesc struct {
	PublicKeyHash []byte // 32 bytes
	SealedKey     []byte // RSA modulus length
	IV            []byte // 16 bytes
}

// PublicKeyHashSize is the fixed size of the SHA-256 public-key
// identifier field.
const PublicKeyHashSize = 32

// IVSize is the fixed size of the AES-CBC initialization vector field.
const IVSize = 16

// EncodeAESDesc renders an AESDesc to its wire payload: three
// u32-length-prefixed fields back to back.
func EncodeAESDesc(desc AESDesc) ([]byte, error) {
	if len(desc.PublicKeyHash) != PublicKeyHashSize {
		return nil, fmt.Errorf("container: aes desc public key hash must be %d bytes, got %d", PublicKeyHashSize, len(desc.PublicKeyHash))
	}
	if len(desc.IV) != IVSize {
		return nil, fmt.Errorf("container: aes desc IV must be %d bytes, got %d", IVSize, len(desc.IV))
	}
	if len(desc.SealedKey) == 0 {
		return nil, fmt.Errorf("container: aes desc sealed key is empty")
	}

	var buf bytes.Buffer
	writeLengthPrefixed(&buf, desc.PublicKeyHash)
	writeLengthPrefixed(&buf, desc.SealedKey)
	writeLengthPrefixed(&buf, desc.IV)
	return buf.Bytes(), nil
}

// DecodeAESDesc parses an AES_DESC payload.
func DecodeAESDesc(payload []byte) (AESDesc, error) {
	r := bytes.NewReader(payload)

	publicKeyHash, err := readLengthPrefixed(r)
	if err != nil {
		return AESDesc{}, fmt.Errorf("container: decoding aes desc public key hash: %w", err)
	}
	if len(publicKeyHash) != PublicKeyHashSize {
		return AESDesc{}, fmt.Errorf("container: aes desc public key hash must be %d bytes, got %d", PublicKeyHashSize, len(publicKeyHash))
	}

	sealedKey, err := readLengthPrefixed(r)
	if err != nil {
		return AESDesc{}, fmt.Errorf("container: decoding aes desc sealed key: %w", err)
	}

	iv, err := readLengthPrefixed(r)
	if err != nil {
		return AESDesc{}, fmt.Errorf("container: decoding aes desc IV: %w", err)
	}
	if len(iv) != IVSize {
		return AESDesc{}, fmt.Errorf("container: aes desc IV must be %d bytes, got %d", IVSize, len(iv))
	}

	return AESDesc{PublicKeyHash: publicKeyHash, SealedKey: sealedKey, IV: iv}, nil
}

func writeLengthPrefixed(buf *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

func readLengthPrefixed(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length > MaxEntryLen {
		return nil, fmt.Errorf("declared length %d exceeds max %d", length, MaxEntryLen)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
