package config

import "golang.org/x/crypto/bcrypt"

type SecurityConfig interface {
	GetStateLength() int
	GetStateHashCost() int
	GetSessionCacheSize() uint64
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetStateLength is the number of random bytes in a login state token.
func (Security) GetStateLength() int {
	return 16
}

func (Security) GetStateHashCost() int {
	return bcrypt.DefaultCost
}

func (Security) GetSessionCacheSize() uint64 {
	return 1 << 20
}
