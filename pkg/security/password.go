package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

const hashScheme = "argon2id"

var (
	// ErrInvalidHash is returned for stored hashes that do not parse as argon2id.
	ErrInvalidHash = errors.New("invalid argon2id hash")
	// ErrUnsupportedVersion is returned for argon2id hashes from another algorithm revision.
	ErrUnsupportedVersion = errors.New("unsupported argon2 version")
	// ErrEmptyPassword is returned when hashing a blank password.
	ErrEmptyPassword = errors.New("password cannot be empty")
)

// ArgonParams are the cost settings recorded in every stored hash.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps the configured costs into ranges argon2 accepts.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      bounded(cfg.ArgonMemoryKB, 8, 512*1024),
		Time:        bounded(cfg.ArgonTime, 1, 10),
		Parallelism: uint8(bounded(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     bounded(cfg.ArgonSaltLen, 8, 64),
		KeyLen:      bounded(cfg.ArgonKeyLen, 16, 64),
	}
}

func (p ArgonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

// HashPassword derives a salted argon2id hash in PHC string form:
// $argon2id$v=19$m=<kb>,t=<passes>,p=<lanes>$<salt>$<key>.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	params := ParamsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	return encodeHash(params, salt, params.derive(password, salt)), nil
}

// VerifyPassword reports whether password produces the stored hash.
func VerifyPassword(password, encoded string) (bool, error) {
	stored, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	computed := stored.params.derive(password, stored.salt)
	return subtle.ConstantTimeCompare(stored.key, computed) == 1, nil
}

// NeedsRehash reports whether a stored hash was produced with costs other
// than the configured ones. Unparseable hashes always need a rehash.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	stored, err := parseHash(encoded)
	if err != nil {
		return true
	}
	want := ParamsFromConfig(cfg)
	return stored.params != want
}

type parsedHash struct {
	params ArgonParams
	salt   []byte
	key    []byte
}

func encodeHash(p ArgonParams, salt, key []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		hashScheme, argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func parseHash(encoded string) (parsedHash, error) {
	// leading "$" yields an empty first segment
	segments := strings.Split(encoded, "$")
	if len(segments) != 6 || segments[0] != "" || segments[1] != hashScheme {
		return parsedHash{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(segments[2], "v=%d", &version); err != nil {
		return parsedHash{}, ErrInvalidHash
	}
	if version != argon2.Version {
		return parsedHash{}, ErrUnsupportedVersion
	}

	var (
		out     parsedHash
		threads uint32
	)
	if _, err := fmt.Sscanf(segments[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Time, &threads); err != nil {
		return parsedHash{}, ErrInvalidHash
	}
	if threads == 0 || threads > 255 || out.params.Time == 0 {
		return parsedHash{}, ErrInvalidHash
	}
	out.params.Parallelism = uint8(threads)

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(segments[4]); err != nil || len(out.salt) == 0 {
		return parsedHash{}, ErrInvalidHash
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(segments[5]); err != nil || len(out.key) == 0 {
		return parsedHash{}, ErrInvalidHash
	}
	out.params.SaltLen = uint32(len(out.salt))
	out.params.KeyLen = uint32(len(out.key))
	return out, nil
}

func bounded(value, lo, hi int) uint32 {
	return uint32(min(max(value, lo), hi))
}
