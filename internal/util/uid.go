package util

import (
	"math/big"

	"github.com/google/uuid"
)

// uidRoot is the UUID-derived UID root defined in DICOM PS3.5 B.2.
const uidRoot = "2.25."

// NewUID returns a random UID under the 2.25 root.
func NewUID() string {
	return uuidToUID(uuid.New())
}

// DeterministicUID returns a UID derived from name, stable across runs.
func DeterministicUID(name string) string {
	return uuidToUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)))
}

func uuidToUID(u uuid.UUID) string {
	return uidRoot + new(big.Int).SetBytes(u[:]).String()
}
