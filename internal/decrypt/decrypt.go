// Package decrypt recovers the JSON data stores embedded in scraped HTML
// pages. The provider ships the payload either as plain JSON or as an
// OpenSSL-salted AES-256-CBC blob whose password is carried alongside it,
// directly or via a PBKDF2 derivation. Both keying variants are live
// upstream and both are supported here.
package decrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const saltedMarker = "Salted__"

// DecodeError is the hard failure raised for a malformed or undecryptable
// payload. Partial data is never returned.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("payload decode error: %s", e.Reason)
}

func decodeErrorf(format string, args ...interface{}) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// DecodeStores extracts the data stores from a parsed root application
// payload. When the stores value is already a JSON object it is returned
// as-is; when it is a base64 string it is decrypted first.
func DecodeStores(payload map[string]json.RawMessage) (map[string]interface{}, error) {
	contextRaw, ok := payload["context"]
	if !ok {
		return nil, decodeErrorf("missing context object")
	}

	var appContext struct {
		Dispatcher struct {
			Stores json.RawMessage `json:"stores"`
		} `json:"dispatcher"`
	}
	if err := json.Unmarshal(contextRaw, &appContext); err != nil {
		return nil, decodeErrorf("malformed context object: %v", err)
	}
	storesRaw := appContext.Dispatcher.Stores
	if len(storesRaw) == 0 {
		return nil, decodeErrorf("missing dispatcher stores")
	}

	// Unencrypted variant: stores is a plain JSON object.
	if storesRaw[0] == '{' {
		var stores map[string]interface{}
		if err := json.Unmarshal(storesRaw, &stores); err != nil {
			return nil, decodeErrorf("malformed stores object: %v", err)
		}
		return stores, nil
	}

	var encoded string
	if err := json.Unmarshal(storesRaw, &encoded); err != nil {
		return nil, decodeErrorf("stores is neither object nor string: %v", err)
	}

	password, err := derivePassword(payload)
	if err != nil {
		return nil, err
	}

	return decryptStores(encoded, password)
}

// derivePassword resolves the decryption password from the auxiliary keying
// material carried next to the ciphertext.
func derivePassword(payload map[string]json.RawMessage) (string, error) {
	csRaw, hasCS := payload["_cs"]
	crRaw, hasCR := payload["_cr"]
	if hasCS && hasCR {
		var cs, cr string
		if err := json.Unmarshal(csRaw, &cs); err != nil {
			return "", decodeErrorf("malformed _cs value: %v", err)
		}
		if err := json.Unmarshal(crRaw, &cr); err != nil {
			return "", decodeErrorf("malformed _cr value: %v", err)
		}

		var words struct {
			Words []int32 `json:"words"`
		}
		if err := json.Unmarshal([]byte(cr), &words); err != nil {
			return "", decodeErrorf("malformed _cr words: %v", err)
		}
		salt := make([]byte, 0, len(words.Words)*4)
		for _, w := range words.Words {
			salt = binary.BigEndian.AppendUint32(salt, uint32(w))
		}

		derived := pbkdf2.Key([]byte(cs), salt, 1, 32, sha1.New)
		return hex.EncodeToString(derived), nil
	}

	// Direct variant: the password is the value of the only key that is not
	// part of the application payload proper.
	for key, raw := range payload {
		switch key {
		case "context", "plugins", "_cs", "_cr":
			continue
		}
		var password string
		if err := json.Unmarshal(raw, &password); err != nil {
			continue
		}
		return password, nil
	}
	return "", decodeErrorf("no keying material found")
}

// decryptStores decrypts an OpenSSL-salted base64 blob and parses the
// plaintext as JSON.
func decryptStores(encoded, password string) (map[string]interface{}, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, decodeErrorf("invalid base64 ciphertext: %v", err)
	}
	if len(blob) < 16 || string(blob[:8]) != saltedMarker {
		return nil, decodeErrorf("ciphertext missing %q marker", saltedMarker)
	}
	salt := blob[8:16]
	ciphertext := blob[16:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, decodeErrorf("ciphertext length %d is not a block multiple", len(ciphertext))
	}

	key, iv := evpBytesToKey([]byte(password), salt, 32, aes.BlockSize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, decodeErrorf("cipher init: %v", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, err
	}

	var stores map[string]interface{}
	if err := json.Unmarshal(plaintext, &stores); err != nil {
		return nil, decodeErrorf("decrypted payload is not JSON: %v", err)
	}
	return stores, nil
}

// evpBytesToKey derives a key and IV the way OpenSSL's EVP_BytesToKey does
// with MD5 and a single iteration: hash(prev || password || salt) until
// enough bytes accumulate. Deterministic for identical inputs.
func evpBytesToKey(password, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var derived []byte
	var block []byte
	for len(derived) < keyLen+ivLen {
		hasher := md5.New()
		hasher.Write(block)
		hasher.Write(password)
		hasher.Write(salt)
		block = hasher.Sum(nil)
		derived = append(derived, block...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

// pkcs7Unpad strips PKCS#7 padding, validating every padding byte.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, decodeErrorf("invalid padded length %d", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, decodeErrorf("invalid padding byte %d", padLen)
	}
	if !bytes.Equal(data[len(data)-padLen:], bytes.Repeat([]byte{byte(padLen)}, padLen)) {
		return nil, decodeErrorf("corrupt padding")
	}
	return data[:len(data)-padLen], nil
}
