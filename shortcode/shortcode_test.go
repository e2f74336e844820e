package shortcode

import (
	"sync"
	"testing"
)

func TestCodeLengthAndAlphabet(t *testing.T) {
	gen, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const urlSafe = alphanumeric + "-_"
	for i := 0; i < 50; i++ {
		code := gen.Code()
		if len(code) != CodeLength {
			t.Errorf("Code() length = %d, want %d", len(code), CodeLength)
		}
		for _, ch := range code {
			found := false
			for _, valid := range urlSafe {
				if ch == valid {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Invalid character %c in code %s", ch, code)
			}
		}
	}
}

func TestCodeUniqueness(t *testing.T) {
	gen, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := gen.Code()
		if seen[code] {
			t.Errorf("Duplicate code generated: %s", code)
		}
		seen[code] = true
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"Salt length", 16},
		{"Session token length", 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := Token(tt.length)
			if err != nil {
				t.Fatalf("Token(%d) error = %v", tt.length, err)
			}
			if len(token) != tt.length {
				t.Errorf("Token(%d) length = %d", tt.length, len(token))
			}
			for _, ch := range token {
				isAlnum := (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
				if !isAlnum {
					t.Errorf("Non-alphanumeric character %c in token", ch)
				}
			}
		})
	}
}

func TestConcurrentGeneration(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				code := g.Code()
				token, err := Token(48)
				if err != nil {
					t.Errorf("Token() error = %v", err)
					return
				}
				if len(code) != CodeLength || len(token) != 48 {
					t.Errorf("lengths = (%d, %d), want (%d, 48)", len(code), len(token), CodeLength)
					return
				}
				mu.Lock()
				seen[token] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("got %d distinct tokens from %d calls", len(seen), workers*perWorker)
	}
}
