package engine

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("overdoc-content-hash-key-0000001")

// contentHash returns the 64-bit HighwayHash of data as hex.
func contentHash(data []byte) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
