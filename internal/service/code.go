package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Codes are six digits with no leading zero.
const (
	minCode = 100000
	maxCode = 999999
)

// CodeGenerator produces verification codes mailed to users.
type CodeGenerator func() (int, error)

// RandomCode returns a uniformly distributed six digit code.
func RandomCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return 0, fmt.Errorf("failed to generate code: %w", err)
	}
	return minCode + int(n.Int64()), nil
}
