// Package domain holds value types shared by every module.
package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "custody/pkg/domain-errors"
)

// IdentityLength is the byte length of an account address.
const IdentityLength = 20

// Identity is an opaque account address authenticated by the transport layer.
// The zero value is the "none" identity and never names a principal.
type Identity [IdentityLength]byte

// ParseIdentity parses a 0x-prefixed, 40-digit hex address.
//
// All-lowercase and all-uppercase inputs are accepted as-is. Mixed-case input
// must carry a valid EIP-55 checksum so a mistyped address is not silently
// accepted as a different principal. The zero address is rejected.
func ParseIdentity(s string) (Identity, error) {
	var out Identity
	s = strings.TrimSpace(s)
	if s == "" {
		return out, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	hexPart, ok := strings.CutPrefix(s, "0x")
	if !ok {
		hexPart, ok = strings.CutPrefix(s, "0X")
	}
	if !ok || len(hexPart) != 2*IdentityLength {
		return out, dErrors.New(dErrors.CodeInvalidInput, "identity must be 0x followed by 40 hex digits")
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil {
		return out, dErrors.New(dErrors.CodeInvalidInput, "identity must be 0x followed by 40 hex digits")
	}
	copy(out[:], raw)
	if out.IsZero() {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must not be the zero address")
	}
	if isMixedCase(hexPart) && checksumHex(out) != hexPart {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity checksum mismatch")
	}
	return out, nil
}

// MustParseIdentity is ParseIdentity for fixtures and seeds; it panics on bad input.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether i is the "none" identity.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// String renders the EIP-55 checksummed form.
func (i Identity) String() string {
	return "0x" + checksumHex(i)
}

// Hex renders the lowercase form used as a storage key.
func (i Identity) Hex() string {
	return "0x" + hex.EncodeToString(i[:])
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func checksumHex(i Identity) string {
	lower := hex.EncodeToString(i[:])
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for idx, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[idx/2]
		if idx%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[idx] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
