package domain

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashFile returns the SHA-256 hex digest of raw file bytes.
func HashFile(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentID derives a content-addressable document ID from a full
// content hash. Re-ingesting identical bytes yields the same ID
// regardless of filename or time. The 16-hex-char truncation is a
// dedup key, not a security token.
func DocumentID(contentHash string) string {
	if len(contentHash) > 16 {
		contentHash = contentHash[:16]
	}
	return "doc_" + contentHash
}

// ChunkID derives a deterministic, human-inspectable chunk ID.
// page is nil when the chunk has no page affiliation ("pNA").
// IDs sort by chunk index within a document.
func ChunkID(documentID string, chunkIndex int, page *int) string {
	p := "pNA"
	if page != nil {
		p = fmt.Sprintf("p%d", *page)
	}
	return fmt.Sprintf("%s#%s#c%04d", documentID, p, chunkIndex)
}

// TextHash returns the SHA-1 hex digest of chunk text. Used for
// change detection only, not security.
func TextHash(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
