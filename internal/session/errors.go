package session

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/roach88/mockvm/internal/record"
)

// ErrNotSet is returned by a getter whose reserved key was never set.
var ErrNotSet = errors.New("not set")

// ErrUnknownField is returned by TransactionField and BlockField for a
// field name they do not serve.
var ErrUnknownField = errors.New("unknown field")

// AuthorityError reports a failed authority requirement.
type AuthorityError struct {
	// Type is the authorization type that was checked.
	Type record.AuthorizationType

	// Account is the account that was checked.
	Account []byte

	// Mocked is false when no authority entry matched at all.
	Mocked bool
}

// Error implements the error interface.
func (e *AuthorityError) Error() string {
	acct := base64.StdEncoding.EncodeToString(e.Account)
	if !e.Mocked {
		return fmt.Sprintf("authority %s for %s: no mocked authority", e.Type, acct)
	}
	return fmt.Sprintf("authority %s for %s: denied", e.Type, acct)
}

// IsAuthorityError reports whether err is or wraps an *AuthorityError.
func IsAuthorityError(err error) bool {
	var ae *AuthorityError
	return errors.As(err, &ae)
}

func notSet(key string) error {
	return fmt.Errorf("%s: %w", key, ErrNotSet)
}
