package domain

// SignatureRecord is an authenticity stamp attached to trades and
// transactions at creation and again when they reach a terminal state.
type SignatureRecord struct {
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
	Timestamp int64  `json:"timestamp"`
	Verified  bool   `json:"verified"`
}
