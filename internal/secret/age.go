package secret

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// ErrWrongPassphrase indicates the passphrase did not open the ciphertext.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted file")

// workFactor is the scrypt cost used for sealing.
var workFactor = 18 //nolint:gochecknoglobals // adjustable for tests

// SetWorkFactor changes the scrypt cost of later Seal calls and returns a
// func restoring the previous value. Only tests should lower it.
func SetWorkFactor(n int) (restore func()) {
	prev := workFactor
	workFactor = n
	return func() { workFactor = prev }
}

// Seal encrypts plaintext to an age scrypt recipient derived from passphrase.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(workFactor)

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts ciphertext produced by Seal into a locked Buffer.
func Open(ciphertext []byte, passphrase string) (*Buffer, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, ErrWrongPassphrase
		}
		return nil, fmt.Errorf("%w: %w", ErrWrongPassphrase, err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		Zero(plaintext)
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}
	return NewBuffer(plaintext), nil
}
