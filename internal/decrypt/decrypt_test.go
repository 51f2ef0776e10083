package decrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// encryptStores is the test-side inverse of decryptStores: PKCS#7 pad,
// AES-256-CBC encrypt with an EVP_BytesToKey-derived key, prepend the
// OpenSSL salt header and base64 encode.
func encryptStores(t *testing.T, plaintext []byte, password string, salt []byte) string {
	t.Helper()
	require.Len(t, salt, 8)

	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append(append([]byte{}, plaintext...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)

	key, iv := evpBytesToKey([]byte(password), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	blob := append([]byte("Salted__"), salt...)
	blob = append(blob, ciphertext...)
	return base64.StdEncoding.EncodeToString(blob)
}

func payloadJSON(t *testing.T, fields map[string]string) map[string]json.RawMessage {
	t.Helper()
	payload := make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		encoded, err := json.Marshal(value)
		require.NoError(t, err)
		payload[key] = encoded
	}
	return payload
}

func contextWithStores(stores string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"dispatcher":{"stores":%q}}`, stores))
}

func TestDecodeStoresDirectPassword(t *testing.T) {
	plaintext := []byte(`{"QuoteSummaryStore":{"price":{"regularMarketPrice":{"raw":42.5,"fmt":"42.50"}}}}`)
	salt := []byte("abcdefgh")
	password := "0123456789abcdef0123456789abcdef"

	payload := payloadJSON(t, map[string]string{"e5f2a3b1c4": password})
	payload["context"] = contextWithStores(encryptStores(t, plaintext, password, salt))
	payload["plugins"] = json.RawMessage(`{"heartbeat":{}}`)

	stores, err := DecodeStores(payload)
	require.NoError(t, err)

	quoteSummary, ok := stores["QuoteSummaryStore"].(map[string]interface{})
	require.True(t, ok)
	price := quoteSummary["price"].(map[string]interface{})
	raw := price["regularMarketPrice"].(map[string]interface{})["raw"]
	assert.Equal(t, 42.5, raw)
}

func TestDecodeStoresDerivedPassword(t *testing.T) {
	plaintext := []byte(`{"QuoteSummaryStore":{"summaryDetail":{"beta":{"raw":1.29}}}}`)
	encSalt := []byte("12345678")

	cs := "fd67b1ab"
	crWords := `{"words":[16909060,-1430532899,84281096,2018915346]}`
	crBytes := []byte{
		0x01, 0x02, 0x03, 0x04,
		0xaa, 0xbb, 0xcc, 0xdd,
		0x05, 0x06, 0x07, 0x08,
		0x78, 0x56, 0x34, 0x12,
	}
	password := hex.EncodeToString(pbkdf2.Key([]byte(cs), crBytes, 1, 32, sha1.New))

	payload := payloadJSON(t, map[string]string{"_cs": cs, "_cr": crWords})
	payload["context"] = contextWithStores(encryptStores(t, plaintext, password, encSalt))

	stores, err := DecodeStores(payload)
	require.NoError(t, err)

	quoteSummary := stores["QuoteSummaryStore"].(map[string]interface{})
	detail := quoteSummary["summaryDetail"].(map[string]interface{})
	assert.Equal(t, 1.29, detail["beta"].(map[string]interface{})["raw"])
}

func TestDecodeStoresPlainObject(t *testing.T) {
	payload := map[string]json.RawMessage{
		"context": json.RawMessage(`{"dispatcher":{"stores":{"QuoteSummaryStore":{"price":{}}}}}`),
	}

	stores, err := DecodeStores(payload)
	require.NoError(t, err)
	assert.Contains(t, stores, "QuoteSummaryStore")
}

func TestDecodeStoresBadMarker(t *testing.T) {
	blob := base64.StdEncoding.EncodeToString([]byte("NotSalt_XXXXXXXXciphertextciphertext"))
	payload := payloadJSON(t, map[string]string{"k1": "password"})
	payload["context"] = contextWithStores(blob)

	_, err := DecodeStores(payload)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Reason, "Salted__")
}

func TestDecodeStoresWrongPassword(t *testing.T) {
	plaintext := []byte(`{"QuoteSummaryStore":{}}`)
	salt := []byte("abcdefgh")

	payload := payloadJSON(t, map[string]string{"k1": "not-the-password"})
	payload["context"] = contextWithStores(encryptStores(t, plaintext, "the-real-password", salt))

	_, err := DecodeStores(payload)
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestDecodeStoresMissingContext(t *testing.T) {
	_, err := DecodeStores(map[string]json.RawMessage{})
	require.Error(t, err)
}

func TestEvpBytesToKeyDeterministic(t *testing.T) {
	key1, iv1 := evpBytesToKey([]byte("password"), []byte("saltsalt"), 32, 16)
	key2, iv2 := evpBytesToKey([]byte("password"), []byte("saltsalt"), 32, 16)

	assert.Equal(t, key1, key2)
	assert.Equal(t, iv1, iv2)
	assert.Len(t, key1, 32)
	assert.Len(t, iv1, 16)
}

func TestPKCS7Unpad(t *testing.T) {
	padded := append([]byte("data"), bytes.Repeat([]byte{12}, 12)...)
	out, err := pkcs7Unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), out)

	// Corrupt one padding byte
	padded[len(padded)-2] = 0
	_, err = pkcs7Unpad(padded, 16)
	assert.Error(t, err)

	// Padding byte out of range
	bad := append(bytes.Repeat([]byte{0}, 15), 17)
	_, err = pkcs7Unpad(bad, 16)
	assert.Error(t, err)
}
