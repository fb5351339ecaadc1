// Package idgen provides the identifier generators used by tempo.
//
// Event ids come from a per-loop sequential generator so that two runs of the
// same scenario assign the same ids. Session names are random and only used
// to label output files.
package idgen

import (
	"strings"
	"sync/atomic"

	"github.com/rs/xid"
)

// ID is a unique identifier represented as a uint64.
type ID uint64

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is "1".
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.next, 1))
}

// NewSessionName returns a globally unique name such as "tempo_cn2..." that
// can label a simulation session. The name is not deterministic.
func NewSessionName(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "_")
	if prefix == "" {
		return xid.New().String()
	}

	return prefix + "_" + xid.New().String()
}
