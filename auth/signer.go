package auth

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SC-Dawoony/ad-network-hub-sub000/util/randomutil"
)

// MaxSigningAge bounds the gap between computing a signature and sending
// it. Most networks reject a signature whose timestamp is more than a few
// seconds old, so callers re-sign when a context has gone stale.
const MaxSigningAge = 5 * time.Second

// SigningContext carries the time-varying inputs and the resulting
// signature of one request. It is a pure value: rebuilding with equal
// inputs yields a byte-identical signature.
type SigningContext struct {
	Timestamp string
	Nonce     string
	Sign      string

	builtAt time.Time
}

// Stale reports whether the context is too old to transmit and must be
// rebuilt with a fresh timestamp and nonce.
func (c SigningContext) Stale(now time.Time) bool {
	return now.Sub(c.builtAt) > MaxSigningAge
}

// SortedSHA1 computes the sort-concat-hash signature: secret, timestamp and
// nonce ordered lexicographically, joined and SHA-1 hashed to lowercase hex.
func SortedSHA1(secret, timestamp, nonce string) string {
	parts := []string{secret, timestamp, nonce}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// DoubleMD5 hashes the timestamp, appends the digest to the secret and
// hashes again.
func DoubleMD5(secret, timestamp string) string {
	inner := md5.Sum([]byte(timestamp))
	outer := md5.Sum([]byte(secret + hex.EncodeToString(inner[:])))
	return hex.EncodeToString(outer[:])
}

// DeveloperSHA1 computes the header-borne signature variant:
// "{developerID}-{millis}-{token}" SHA-1 hashed, with the millisecond
// timestamp appended after a dot so the server can check freshness.
func DeveloperSHA1(developerID, token string, millis int64) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s-%d-%s", developerID, millis, token)))
	return hex.EncodeToString(sum[:]) + "." + strconv.FormatInt(millis, 10)
}

var rng randomutil.RandomGenerator = randomutil.RandomNumberGenerator{}

// Nonce returns a random six-digit nonce as a string.
func Nonce() string {
	return strconv.Itoa(rng.GenerateIntn(900000) + 100000)
}

// NewSortedSHA1Context signs with SortedSHA1 using the unix-second
// timestamp of now and a fresh nonce.
func NewSortedSHA1Context(secret string, now time.Time) SigningContext {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	nonce := Nonce()
	return SigningContext{
		Timestamp: timestamp,
		Nonce:     nonce,
		Sign:      SortedSHA1(secret, timestamp, nonce),
		builtAt:   now,
	}
}

// NewDoubleMD5Context signs with DoubleMD5 using the unix-second timestamp
// of now. The scheme takes no nonce.
func NewDoubleMD5Context(secret string, now time.Time) SigningContext {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	return SigningContext{
		Timestamp: timestamp,
		Sign:      DoubleMD5(secret, timestamp),
		builtAt:   now,
	}
}

// NewDeveloperSHA1Context signs with DeveloperSHA1 using the millisecond
// timestamp of now.
func NewDeveloperSHA1Context(developerID, token string, now time.Time) SigningContext {
	millis := now.UnixMilli()
	return SigningContext{
		Timestamp: strconv.FormatInt(millis, 10),
		Sign:      DeveloperSHA1(developerID, token, millis),
		builtAt:   now,
	}
}
