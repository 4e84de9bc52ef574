// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/aerologic/flightrecorder/lib/container"
	"github.com/aerologic/flightrecorder/lib/secret"
)

// contentKeySize is the size in bytes of the AES-256 content key
// generated fresh for every file (spec §4.2).
const contentKeySize = 32

// sealContext holds the per-file encryption state installed by
// enableEncryption: the identifying hash of the public key used to
// seal the content key, the content key itself (guarded memory), and
// a CBC encrypter that chains across every flush in the file.
type sealContext struct {
	publicKeyHash []byte // SHA-256 of the DER-encoded public key, 32 bytes
	sealedKey     []byte // RSA-OAEP-wrapped content key
	iv            []byte // the IV used for the AES_DESC record (informational)
	contentKey    *secret.Buffer
	encrypter     cipher.BlockMode
}

// newSealContext reads an RSA public key from pubKeyPath (PEM,
// PKIX or PKCS1), generates a fresh content key and IV, seals the
// content key with RSA-OAEP, and installs a CBC encrypter keyed with
// the content key and IV. The returned context's close must be called
// to release the guarded content key.
func newSealContext(pubKeyPath string) (*sealContext, error) {
	pemBytes, err := os.ReadFile(pubKeyPath)
	if err != nil {
		return nil, fmt.Errorf("buffer: reading public key %q: %w", pubKeyPath, err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("buffer: no PEM block found in %q", pubKeyPath)
	}

	publicKey, err := parseRSAPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("buffer: parsing public key %q: %w", pubKeyPath, err)
	}

	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("buffer: re-encoding public key %q: %w", pubKeyPath, err)
	}
	hash := sha256.Sum256(der)

	contentKey, err := secret.NewRandom(contentKeySize)
	if err != nil {
		return nil, fmt.Errorf("buffer: generating content key: %w", err)
	}

	iv := make([]byte, container.IVSize)
	if _, err := rand.Read(iv); err != nil {
		contentKey.Close()
		return nil, fmt.Errorf("buffer: generating IV: %w", err)
	}

	sealedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, contentKey.Bytes(), nil)
	if err != nil {
		contentKey.Close()
		return nil, fmt.Errorf("buffer: sealing content key: %w", err)
	}

	cipherBlock, err := aes.NewCipher(contentKey.Bytes())
	if err != nil {
		contentKey.Close()
		return nil, fmt.Errorf("buffer: initializing AES cipher: %w", err)
	}

	return &sealContext{
		publicKeyHash: hash[:],
		sealedKey:     sealedKey,
		iv:            iv,
		contentKey:    contentKey,
		encrypter:     cipher.NewCBCEncrypter(cipherBlock, iv),
	}, nil
}

// parseRSAPublicKey accepts either a PKIX ("PUBLIC KEY") or PKCS1
// ("RSA PUBLIC KEY") DER-encoded public key, mirroring the
// PKCS1-then-PKCS8 fallback idiom used for private keys elsewhere in
// this codebase.
func parseRSAPublicKey(der []byte) (*rsa.PublicKey, error) {
	if pub, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return pub, nil
	}
	keyInterface, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("not a valid PKCS1 or PKIX RSA public key: %w", err)
	}
	publicKey, ok := keyInterface.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return publicKey, nil
}

// aesDescRecord renders this context's key material as an AES_DESC
// payload (spec §3, §4.1), emitted once up front when encryption is
// enabled for a file.
func (s *sealContext) aesDescRecord() ([]byte, error) {
	return container.EncodeAESDesc(container.AESDesc{
		PublicKeyHash: s.publicKeyHash,
		SealedKey:     s.sealedKey,
		IV:            s.iv,
	})
}

// seal PKCS#7-pads plaintext to a multiple of the AES block size and
// encrypts it into a new slice with the file's CBC encrypter, continuing the
// chain from the previous flush (spec §4.2).
func (s *sealContext) seal(plaintext []byte) []byte {
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	s.encrypter.CryptBlocks(ciphertext, padded)
	return ciphertext
}

// close releases the guarded content key. The sealed key and IV are
// not secret once the AES_DESC record has been written, so they are
// left to the garbage collector.
func (s *sealContext) close() error {
	return s.contentKey.Close()
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}
