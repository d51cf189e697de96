// pkg/otp/generator.go

package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"twofactor-service/internal/domain"
)

// DefaultCodeLength is the number of decimal digits in a generated code.
const DefaultCodeLength = 6

// Generator produces fixed-length numeric codes from crypto/rand. Codes are
// uniformly distributed over [0, 10^Length) and left-zero-padded. A failing
// random source aborts generation; there is no weaker fallback.
type Generator struct {
	length int
}

// NewGenerator creates a generator for codes of the given digit length.
// Lengths outside 1..10 fall back to DefaultCodeLength.
func NewGenerator(length int) *Generator {
	if length < 1 || length > 10 {
		length = DefaultCodeLength
	}
	return &Generator{length: length}
}

// Length returns the configured code length.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new code. It fails with domain.ErrEntropyUnavailable when
// the secure random source cannot be read.
func (g *Generator) Generate() (string, error) {
	// Draw one value over the whole space rather than per digit so the
	// distribution stays uniform over [0, 10^length).
	space := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.length)), nil)

	n, err := rand.Int(rand.Reader, space)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEntropyUnavailable, err)
	}

	return fmt.Sprintf("%0*d", g.length, n), nil
}
