package security

import "golang.org/x/crypto/bcrypt"

// Hasher turns plaintext passwords into bcrypt hashes.
type Hasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher. A cost outside bcrypt's range falls back to the default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Hasher{cost: cost}
}

// Hash password hashes a plain text password with bcrypt.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Check compares a bcrypt hash with a plaintext password.
func (h *Hasher) Check(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
