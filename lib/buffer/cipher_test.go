// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSealContextPKCS1(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	path := writePublicKeyPEM(t, "RSA PUBLIC KEY", x509.MarshalPKCS1PublicKey(&key.PublicKey))

	seal, err := newSealContext(path)
	if err != nil {
		t.Fatalf("newSealContext (PKCS1) failed: %v", err)
	}
	defer seal.close()

	if len(seal.publicKeyHash) != 32 {
		t.Errorf("publicKeyHash length = %d, want 32", len(seal.publicKeyHash))
	}
	if len(seal.iv) != 16 {
		t.Errorf("iv length = %d, want 16", len(seal.iv))
	}
	if seal.contentKey.Len() != contentKeySize {
		t.Errorf("contentKey length = %d, want %d", seal.contentKey.Len(), contentKeySize)
	}
}

func TestNewSealContextPKIX(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshaling PKIX public key: %v", err)
	}
	path := writePublicKeyPEM(t, "PUBLIC KEY", der)

	seal, err := newSealContext(path)
	if err != nil {
		t.Fatalf("newSealContext (PKIX) failed: %v", err)
	}
	defer seal.close()
}

func TestSealDecryptsWithOAEPAndCBC(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	path := writePublicKeyPEM(t, "RSA PUBLIC KEY", x509.MarshalPKCS1PublicKey(&key.PublicKey))

	seal, err := newSealContext(path)
	if err != nil {
		t.Fatalf("newSealContext failed: %v", err)
	}
	defer seal.close()

	unsealedKey, err := rsaDecryptOAEP(key, seal.sealedKey)
	if err != nil {
		t.Fatalf("unsealing content key failed: %v", err)
	}
	if !bytes.Equal(unsealedKey, seal.contentKey.Bytes()) {
		t.Error("RSA-OAEP unsealed key does not match the original content key")
	}

	plaintext := []byte("telemetry sample bytes, not block aligned")
	ciphertext := seal.seal(plaintext)
	if len(ciphertext)%16 != 0 {
		t.Fatalf("ciphertext length %d is not a multiple of the AES block size", len(ciphertext))
	}

	recovered := aesCBCDecrypt(t, key, seal, ciphertext)
	if !bytes.Equal(recovered, plaintext) {
		t.Errorf("decrypted plaintext = %q, want %q", recovered, plaintext)
	}
}

func TestSealChainsAcrossCalls(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	path := writePublicKeyPEM(t, "RSA PUBLIC KEY", x509.MarshalPKCS1PublicKey(&key.PublicKey))

	seal, err := newSealContext(path)
	if err != nil {
		t.Fatalf("newSealContext failed: %v", err)
	}
	defer seal.close()

	first := seal.seal([]byte("first flush of sixteen!!"))
	second := seal.seal([]byte("second flush of sixteen"))

	if bytes.Equal(first, second) {
		t.Error("two distinct plaintexts sealed back to back produced identical ciphertext; CBC chaining is not advancing")
	}
}

func writePublicKeyPEM(t *testing.T, blockType string, der []byte) string {
	t.Helper()
	block := &pem.Block{Type: blockType, Bytes: der}
	path := filepath.Join(t.TempDir(), "pubkey.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("writing public key file: %v", err)
	}
	return path
}

func rsaDecryptOAEP(key *rsa.PrivateKey, sealedKey []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), rand.Reader, key, sealedKey, nil)
}

// aesCBCDecrypt mirrors seal's CBC+PKCS7 scheme from the unsealing
// side, for round-trip verification only; the Recorder never decrypts
// its own output (that's the Extractor's concern, outside this core).
func aesCBCDecrypt(t *testing.T, key *rsa.PrivateKey, seal *sealContext, ciphertext []byte) []byte {
	t.Helper()
	contentKey, err := rsaDecryptOAEP(key, seal.sealedKey)
	if err != nil {
		t.Fatalf("unsealing content key: %v", err)
	}
	block, err := aes.NewCipher(contentKey)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	decrypter := cipher.NewCBCDecrypter(block, seal.iv)
	padded := make([]byte, len(ciphertext))
	decrypter.CryptBlocks(padded, ciphertext)

	padLen := int(padded[len(padded)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		t.Fatalf("invalid PKCS7 pad length %d", padLen)
	}
	return padded[:len(padded)-padLen]
}
