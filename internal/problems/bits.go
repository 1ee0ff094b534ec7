package problems

import (
	"strings"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// bitString is a fixed-length bit string genome.
type bitString struct {
	bits []bool
	rate float64 // per-bit flip probability
	rng  *utils.RandSource
}

func randomBitString(n int, rate float64, rng *utils.RandSource) bitString {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = rng.BernoulliBool(0.5)
	}
	return bitString{bits: bits, rate: rate, rng: rng}
}

// Crossover is a single-point crossover: the head of g followed by the tail
// of partner.
func (g bitString) Crossover(partner bitString) bitString {
	n := len(g.bits)
	child := make([]bool, n)
	cut := n
	if n > 1 {
		cut = g.rng.IntRange(1, n-1)
	}
	copy(child, g.bits[:cut])
	copy(child[cut:], partner.bits[cut:])
	g.bits = child
	return g
}

// Mutate flips every bit independently with probability rate.
func (g bitString) Mutate() bitString {
	bits := make([]bool, len(g.bits))
	for i, b := range g.bits {
		if g.rng.BernoulliBool(g.rate) {
			b = !b
		}
		bits[i] = b
	}
	g.bits = bits
	return g
}

func (g bitString) ones() int {
	n := 0
	for _, b := range g.bits {
		if b {
			n++
		}
	}
	return n
}

func (g bitString) String() string {
	var sb strings.Builder
	sb.Grow(len(g.bits))
	for _, b := range g.bits {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
