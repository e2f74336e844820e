// Package shortcode produces the random identifiers used across the
// registry: 8-character public short codes, storage salts and opaque
// session tokens. Uniqueness of short codes is not guaranteed here; the
// store rejects duplicate inserts and the submission path retries.
package shortcode

import (
	"sync"

	nanoid "github.com/jaevor/go-nanoid"
)

// CodeLength is the length of every public short code.
const CodeLength = 8

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator produces URL-safe random identifiers. Safe for concurrent use;
// the underlying nanoid function is not, so calls are serialized.
type Generator struct {
	mu   sync.Mutex
	code func() string
}

// New builds a Generator backed by the canonical nanoid alphabet.
func New() (*Generator, error) {
	code, err := nanoid.Standard(CodeLength)
	if err != nil {
		return nil, err
	}
	return &Generator{code: code}, nil
}

// Code returns a fresh 8-character short code.
func (g *Generator) Code() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.code()
}

var (
	tokenMu   sync.Mutex
	tokenGens = map[int]func() string{}
)

// Token returns an opaque alphanumeric token of the given length. Session
// tokens use 48 characters, well past short-code length, to resist brute
// force. One generator is built per length and reused.
func Token(length int) (string, error) {
	tokenMu.Lock()
	defer tokenMu.Unlock()

	gen, ok := tokenGens[length]
	if !ok {
		var err error
		gen, err = nanoid.CustomASCII(alphanumeric, length)
		if err != nil {
			return "", err
		}
		tokenGens[length] = gen
	}
	return gen(), nil
}
