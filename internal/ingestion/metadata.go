package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata describes an ingested resume
type Metadata struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type"`
	Timestamp   string `json:"timestamp"` // RFC3339 format
	Hash        string `json:"hash"`      // SHA256 hex digest of the raw file
	Bytes       int    `json:"bytes"`
	Characters  int    `json:"characters"`
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(filename, contentType string, raw []byte, text string) *Metadata {
	return &Metadata{
		Filename:    filename,
		ContentType: contentType,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Hash:        computeHash(raw),
		Bytes:       len(raw),
		Characters:  len([]rune(text)),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
