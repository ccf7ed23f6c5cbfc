// Package cipher implements the deterministic, host-bound AES-128-CBC
// cipher used to keep credential values encrypted at rest. The key and IV
// are derived from host entropy (home directory path + CPU brand string)
// so that a copied credential file cannot be decrypted on another machine
// without re-prompting. This is an obfuscation boundary, not a
// cryptographic secret: anyone with local code execution can reproduce the
// derivation. It MUST stay bit-identical across versions so that files
// written by one build can be read by the next.
package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" //nolint:gosec // deliberate: deterministic host-bound key derivation, not secrecy
	"encoding/base64"
	"encoding/hex"
	"fmt"

	panzererr "github.com/nand0san/panzer-go/internal/panzererr"
)

// blockSize is the AES block size PKCS#7 padding rounds up to.
const blockSize = aes.BlockSize

// Cipher encrypts and decrypts UTF-8 strings with AES-128-CBC. Its key and
// IV are fixed at construction time and never change for the lifetime of
// the process, so a Cipher is safe for concurrent use by multiple
// goroutines without additional locking.
type Cipher struct {
	key []byte
	iv  []byte
}

// New derives a Cipher from seed bytes, normally bytes(homeDir + cpuBrand).
// The IV is MD5(seed); the key is MD5(reverse(seed)); both are hex-decoded
// to their raw 16 bytes before use. This mirrors the reference
// implementation's derivation exactly, byte for byte, because any
// deviation breaks cross-version file compatibility.
func New(seed []byte) (*Cipher, error) {
	ivHex := md5.Sum(seed) //nolint:gosec
	reversed := reverseBytes(seed)
	keyHex := md5.Sum(reversed) //nolint:gosec

	iv, err := hex.DecodeString(hex.EncodeToString(ivHex[:]))
	if err != nil {
		return nil, fmt.Errorf("cipher: deriving iv: %w", err)
	}
	key, err := hex.DecodeString(hex.EncodeToString(keyHex[:]))
	if err != nil {
		return nil, fmt.Errorf("cipher: deriving key: %w", err)
	}

	return &Cipher{key: key, iv: iv}, nil
}

func reverseBytes(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[len(in)-1-i] = b
	}
	return out
}

// Encrypt pads msg to the AES block size with PKCS#7 and returns the
// base64-ASCII ciphertext.
func (c *Cipher) Encrypt(msg string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cipher: %w", err)
	}

	padded := pkcs7Pad([]byte(msg), blockSize)
	out := make([]byte, len(padded))

	mode := cipher.NewCBCEncrypter(block, c.iv)
	mode.CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It returns *panzererr.CipherCorruptInput when
// the input is not valid base64 or the padding is malformed — both
// indicate the ciphertext was not produced by this host's key.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &panzererr.CipherCorruptInput{Err: err}
	}
	if len(raw) == 0 || len(raw)%blockSize != 0 {
		return "", &panzererr.CipherCorruptInput{Err: fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(raw))}
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cipher: %w", err)
	}

	out := make([]byte, len(raw))
	mode := cipher.NewCBCDecrypter(block, c.iv)
	mode.CryptBlocks(out, raw)

	unpadded, err := pkcs7Unpad(out, blockSize)
	if err != nil {
		return "", &panzererr.CipherCorruptInput{Err: err}
	}

	return string(unpadded), nil
}

func pkcs7Pad(data []byte, size int) []byte {
	padLen := size - len(data)%size
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%size != 0 {
		return nil, fmt.Errorf("pkcs7: invalid data length %d", n)
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > size || padLen > n {
		return nil, fmt.Errorf("pkcs7: invalid padding length %d", padLen)
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("pkcs7: invalid padding bytes")
		}
	}
	return data[:n-padLen], nil
}
