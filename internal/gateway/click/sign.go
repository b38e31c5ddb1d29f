package click

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// The gateway signs each request with an MD5 digest over an ordered
// concatenation of the request fields and the shared secret. MD5 here is the
// protocol's choice, not ours; the digest is a request signature, not a
// password hash.

// prepareSignature computes the expected prepare digest
func prepareSignature(clickTransID int64, serviceID, secretKey, merchantTransID, amount string, action int, signTime string) string {
	payload := fmt.Sprintf("%d%s%s%s%s%d%s",
		clickTransID, serviceID, secretKey, merchantTransID, amount, action, signTime)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// completeSignature computes the expected complete digest; it differs from
// prepare by the merchant_prepare_id inserted before the amount.
func completeSignature(clickTransID int64, serviceID, secretKey, merchantTransID string, merchantPrepareID int64, amount string, action int, signTime string) string {
	payload := fmt.Sprintf("%d%s%s%s%d%s%d%s",
		clickTransID, serviceID, secretKey, merchantTransID, merchantPrepareID, amount, action, signTime)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// signaturesEqual compares digests in constant time, case-insensitively
func signaturesEqual(expected, presented string) bool {
	return subtle.ConstantTimeCompare(
		[]byte(expected),
		[]byte(strings.ToLower(presented)),
	) == 1
}
