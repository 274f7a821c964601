package exchange

import (
	"crypto/hmac"
	"encoding/hex"
	"hash"
	"strings"
)

// HMAC signs message with secret using the given hash constructor.
func HMAC(message, secret []byte, h func() hash.Hash) []byte {
	mac := hmac.New(h, secret)
	mac.Write(message)
	return mac.Sum(nil)
}

// HMACHex returns the lower-case hex encoded HMAC.
func HMACHex(message, secret []byte, h func() hash.Hash) string {
	return hex.EncodeToString(HMAC(message, secret, h))
}

// HMACHexUpper returns the upper-case hex encoded HMAC.
func HMACHexUpper(message, secret []byte, h func() hash.Hash) string {
	return strings.ToUpper(HMACHex(message, secret, h))
}
