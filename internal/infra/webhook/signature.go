package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("webhook: signature mismatch")
	ErrMalformedHeader  = errors.New("webhook: malformed signature header")
	ErrStaleTimestamp   = errors.New("webhook: timestamp outside replay window")
)

// Verifier checks provider notification authenticity. The provider signs
// "<timestamp>.<rawBody>" with HMAC-SHA256 and sends the result in a header of
// the form "t=<unix>,v1=<hex>". Verification must pass before any state is
// touched.
type Verifier struct {
	Secret       []byte
	ReplayWindow time.Duration
}

// Verify parses the signature header and checks it against the raw body.
// Requests older than the replay window are rejected even with a valid MAC.
func (v Verifier) Verify(header string, body []byte, now time.Time) error {
	ts, sig, err := parseHeader(header)
	if err != nil {
		return err
	}
	if v.ReplayWindow > 0 {
		age := now.UTC().Sub(time.Unix(ts, 0).UTC())
		if age > v.ReplayWindow || age < -v.ReplayWindow {
			return ErrStaleTimestamp
		}
	}
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign produces a header value for the given body, used by tests and the
// provider simulator.
func (v Verifier) Sign(body []byte, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + strconv.FormatInt(ts, 10) + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func parseHeader(header string) (int64, []byte, error) {
	var tsRaw, sigRaw string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			tsRaw = value
		case "v1":
			sigRaw = value
		}
	}
	if tsRaw == "" || sigRaw == "" {
		return 0, nil, ErrMalformedHeader
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return 0, nil, ErrMalformedHeader
	}
	sig, err := hex.DecodeString(sigRaw)
	if err != nil {
		return 0, nil, ErrMalformedHeader
	}
	return ts, sig, nil
}
