package issue

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator assigns opaque issue ids. Implementations must be safe for
// concurrent use.
type IDGenerator interface {
	NextID() string
}

type sequentialIDs struct {
	prefix string
	n      atomic.Uint64
}

// SequentialIDs returns a deterministic generator yielding prefix1, prefix2, ...
func SequentialIDs(prefix string) IDGenerator {
	return &sequentialIDs{prefix: prefix}
}

func (s *sequentialIDs) NextID() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}

type randomIDs struct{}

// RandomIDs returns a generator of random UUIDs.
func RandomIDs() IDGenerator { return randomIDs{} }

func (randomIDs) NextID() string { return uuid.NewString() }
