package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	mt := time.Unix(1700000000, 0)

	a := Fingerprint("/docs/report.pdf", mt)
	b := Fingerprint("/docs/report.pdf", mt)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32) // md5 hex
}

func TestFingerprint_ChangesWithPathAndMtime(t *testing.T) {
	mt := time.Unix(1700000000, 0)

	base := Fingerprint("/docs/report.pdf", mt)
	assert.NotEqual(t, base, Fingerprint("/docs/other.pdf", mt))
	assert.NotEqual(t, base, Fingerprint("/docs/report.pdf", mt.Add(time.Second)))
}

func TestChunkIDRoundTrip(t *testing.T) {
	id := ChunkID("abc123", 4)
	assert.Equal(t, "abc123_chunk_4", id)
	assert.Equal(t, "abc123", DocIDFromChunkID(id))
}

func TestDocIDFromChunkID_NoSuffix(t *testing.T) {
	assert.Equal(t, "plain", DocIDFromChunkID("plain"))
}
