// Package signing stamps trades and transactions with HMAC-SHA256
// authenticity records keyed by a service secret.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"pilgrimtrader/internal/domain"
)

// Signer produces and verifies signature records over arbitrary payloads.
type Signer struct {
	key    []byte
	signer string
	now    func() time.Time
}

// NewSigner creates a Signer with the given secret and signer identity.
func NewSigner(secret, signer string) *Signer {
	return &Signer{
		key:    []byte(secret),
		signer: signer,
		now:    time.Now,
	}
}

// Sign stamps the payload with a signature record bound to the current time.
func (s *Signer) Sign(payload any) (*domain.SignatureRecord, error) {
	ts := s.now().UnixMilli()
	mac, err := s.compute(payload, ts)
	if err != nil {
		return nil, err
	}
	return &domain.SignatureRecord{
		Signature: mac,
		Signer:    s.signer,
		Timestamp: ts,
		Verified:  true,
	}, nil
}

// Verify reports whether the record matches the payload it claims to sign.
func (s *Signer) Verify(record *domain.SignatureRecord, payload any) (bool, error) {
	if record == nil {
		return false, nil
	}
	want, err := s.compute(payload, record.Timestamp)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(want), []byte(record.Signature)), nil
}

func (s *Signer) compute(payload any, ts int64) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signature payload: %w", err)
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(data)
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte(s.signer))
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
