package randomutil

import (
	"math/rand"
)

type RandomGenerator interface {
	GenerateIntn(n int) int
}

type RandomNumberGenerator struct{}

func (RandomNumberGenerator) GenerateIntn(n int) int {
	return rand.Intn(n)
}
