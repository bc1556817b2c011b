package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"mercator-hq/callisto/pkg/evidence"
)

// RecordHash computes the SHA-256 content hash of an evidence record, hex
// encoded. The hash covers the canonical JSON form of the record and is
// stored alongside it, so auditors can verify a record was not altered
// after archival.
func RecordHash(record *evidence.EvidenceRecord) string {
	data, err := json.Marshal(record)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyRecord recomputes a record's content hash and compares it to the
// stored value.
func VerifyRecord(record *evidence.EvidenceRecord, storedHash string) bool {
	return storedHash != "" && RecordHash(record) == storedHash
}
