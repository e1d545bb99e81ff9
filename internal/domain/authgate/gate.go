// Package authgate implements the optional PIN lock and the public-mode
// switch. With public mode on, every config-mutating endpoint is
// refused until the caller verifies the PIN.
package authgate

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/pbkdf2"

	"lobsterboard-server-go/internal/platform/errors"
	"lobsterboard-server-go/internal/platform/storage"
)

const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32
	saltLen          = 16
)

var pinPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

var (
	ErrInvalidPIN  = errors.New(errors.KindAuth, "authgate", "PIN must be 4-6 digits")
	ErrPINRequired = errors.New(errors.KindAuth, "authgate", "current PIN required")
	ErrWrongPIN    = errors.New(errors.KindAuth, "authgate", "incorrect PIN")
)

// State is the persisted shape of the gate. Only the salted hash of the
// PIN ever touches disk.
type State struct {
	PINHash    string `json:"pinHash,omitempty"`
	Salt       string `json:"salt,omitempty"`
	PublicMode bool   `json:"publicMode"`
}

func EmptyState() State {
	return State{}
}

// Status is what the browser is told about the gate.
type Status struct {
	HasPIN     bool `json:"hasPin"`
	PublicMode bool `json:"publicMode"`
}

// Gate owns the auth state document.
type Gate struct {
	doc *storage.Document[State]
}

func NewGate(doc *storage.Document[State]) *Gate {
	return &Gate{doc: doc}
}

func (g *Gate) Status() Status {
	st := g.doc.Load()
	return Status{HasPIN: st.PINHash != "", PublicMode: st.PublicMode}
}

// PublicMode reports whether mutating endpoints are currently locked.
func (g *Gate) PublicMode() bool {
	return g.doc.Load().PublicMode
}

// SetPublicMode flips the lock. Enabling it without a PIN set is
// allowed but pointless, so callers should surface Status to the user.
func (g *Gate) SetPublicMode(on bool) error {
	st := g.doc.Load()
	st.PublicMode = on
	return g.doc.Save(st)
}

// SetPIN installs or replaces the PIN. Replacing an existing PIN
// requires the current one.
func (g *Gate) SetPIN(newPIN, currentPIN string) error {
	if !pinPattern.MatchString(newPIN) {
		return ErrInvalidPIN
	}
	st := g.doc.Load()
	if st.PINHash != "" {
		if currentPIN == "" {
			return ErrPINRequired
		}
		if !verify(st, currentPIN) {
			return ErrWrongPIN
		}
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return errors.Wrap(errors.KindAuth, "authgate.setpin", "generate salt", err)
	}
	st.PINHash = hex.EncodeToString(hash(newPIN, salt))
	st.Salt = hex.EncodeToString(salt)
	return g.doc.Save(st)
}

// RemovePIN clears the PIN and turns public mode off. The current PIN
// is required while one is set.
func (g *Gate) RemovePIN(currentPIN string) error {
	st := g.doc.Load()
	if st.PINHash == "" {
		return g.doc.Save(State{})
	}
	if !verify(st, currentPIN) {
		return ErrWrongPIN
	}
	return g.doc.Save(State{})
}

// VerifyPIN reports whether the submitted PIN matches. With no PIN set
// the gate is open and every submission verifies.
func (g *Gate) VerifyPIN(pin string) bool {
	st := g.doc.Load()
	if st.PINHash == "" {
		return true
	}
	return verify(st, pin)
}

func verify(st State, pin string) bool {
	salt, err := hex.DecodeString(st.Salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(st.PINHash)
	if err != nil {
		return false
	}
	got := hash(pin, salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func hash(pin string, salt []byte) []byte {
	return pbkdf2.Key([]byte(pin), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}
