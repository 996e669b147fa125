package id

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator creates opaque IDs used to correlate poll cycles and deliveries.
type Generator interface {
	NewID() string
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Sequence returns deterministic ids ("prefix-1", "prefix-2", ...).
type Sequence struct {
	prefix string
	next   int
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	s.next++
	return s.prefix + "-" + strconv.Itoa(s.next)
}
