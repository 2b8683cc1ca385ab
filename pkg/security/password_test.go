package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	for _, blank := range []string{"", "   "} {
		if _, err := security.HashPassword(blank, testPasswordConfig()); !errors.Is(err, security.ErrEmptyPassword) {
			t.Fatalf("expected ErrEmptyPassword for %q, got %v", blank, err)
		}
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestVerifyPasswordRejectsForeignHashes(t *testing.T) {
	hash, err := security.HashPassword("rotate-me", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	cases := map[string]struct {
		encoded string
		want    error
	}{
		"bcrypt":        {encoded: "$2a$10$abcdefghijklmnopqrstuv", want: security.ErrInvalidHash},
		"old version":   {encoded: strings.Replace(hash, "v=19", "v=16", 1), want: security.ErrUnsupportedVersion},
		"zero lanes":    {encoded: strings.Replace(hash, "p=1$", "p=0$", 1), want: security.ErrInvalidHash},
		"missing salt":  {encoded: "$argon2id$v=19$m=32768,t=1,p=1$$abcd", want: security.ErrInvalidHash},
		"no separators": {encoded: "argon2id", want: security.ErrInvalidHash},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := security.VerifyPassword("rotate-me", tc.encoded)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNeedsRehashTracksConfiguredCosts(t *testing.T) {
	cfg := testPasswordConfig()
	hash, err := security.HashPassword("rotate-me", cfg)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if security.NeedsRehash(hash, cfg) {
		t.Fatal("hash produced with current costs must not need a rehash")
	}

	stronger := cfg
	stronger.ArgonTime = 2
	if !security.NeedsRehash(hash, stronger) {
		t.Fatal("raising the time cost must trigger a rehash")
	}
	if !security.NeedsRehash("garbage", cfg) {
		t.Fatal("unparseable hashes must be rehashed")
	}
}

func TestOneTimeToken(t *testing.T) {
	token, digest, err := security.NewOneTimeToken()
	if err != nil {
		t.Fatalf("NewOneTimeToken: %v", err)
	}
	if len(token) != 48 {
		t.Fatalf("expected 48 hex chars, got %d", len(token))
	}
	if digest == token || digest != security.HashOneTimeToken(" "+token+" ") {
		t.Fatal("digest must be stable and differ from the token")
	}

	other, _, err := security.NewOneTimeToken()
	if err != nil {
		t.Fatalf("NewOneTimeToken: %v", err)
	}
	if other == token {
		t.Fatal("tokens must be random")
	}
}
