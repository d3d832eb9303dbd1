package jwt

import "fmt"

// Kind identifies the category of a validation or parsing failure. It is a
// closed enumeration: callers can switch on it exhaustively instead of
// matching against sentinel errors with errors.Is.
type Kind uint8

const (
	_ Kind = iota
	// MalformedToken indicates the compact serialization itself is
	// malformed: wrong segment count, invalid base64url, or truncated
	// input.
	MalformedToken
	// InvalidHeader indicates a required header member is missing or has
	// an invalid value. Param names the offending member.
	InvalidHeader
	// MissingEncryptionAlgorithm indicates a JWE header lacks "enc".
	MissingEncryptionAlgorithm
	// SignatureKeyNotFound indicates no candidate key was found for a JWS.
	SignatureKeyNotFound
	// EncryptionKeyNotFound indicates no candidate key was found for a JWE.
	EncryptionKeyNotFound
	// SignatureValidationFailed indicates every candidate key failed to
	// verify the signature.
	SignatureValidationFailed
	// DecryptionFailed indicates every candidate key failed to unwrap the
	// CEK or the authenticated decryption failed.
	DecryptionFailed
	// DecompressionFailed indicates the "zip" payload could not be
	// inflated, or exceeded the policy's size limit.
	DecompressionFailed
	// Expired indicates the "exp" claim is in the past.
	Expired
	// NotYetValid indicates the "nbf" claim is in the future.
	NotYetValid
	// InvalidClaim indicates a claim failed validation. Param names the
	// claim.
	InvalidClaim
	// CriticalHeaderMissingHandler indicates a "crit" member has no
	// registered handler in the policy. Param names the member.
	CriticalHeaderMissingHandler
	// CriticalHeaderRejected indicates a registered handler rejected a
	// "crit" member. Param names the member.
	CriticalHeaderRejected
	// SizeLimitExceeded indicates the input exceeded a policy size limit.
	SizeLimitExceeded
	// InstanceInvalidated indicates an operation was attempted on a
	// JwtDocument after it was disposed.
	InstanceInvalidated
)

func (k Kind) String() string {
	switch k {
	case MalformedToken:
		return "MalformedToken"
	case InvalidHeader:
		return "InvalidHeader"
	case MissingEncryptionAlgorithm:
		return "MissingEncryptionAlgorithm"
	case SignatureKeyNotFound:
		return "SignatureKeyNotFound"
	case EncryptionKeyNotFound:
		return "EncryptionKeyNotFound"
	case SignatureValidationFailed:
		return "SignatureValidationFailed"
	case DecryptionFailed:
		return "DecryptionFailed"
	case DecompressionFailed:
		return "DecompressionFailed"
	case Expired:
		return "Expired"
	case NotYetValid:
		return "NotYetValid"
	case InvalidClaim:
		return "InvalidClaim"
	case CriticalHeaderMissingHandler:
		return "CriticalHeaderMissingHandler"
	case CriticalHeaderRejected:
		return "CriticalHeaderRejected"
	case SizeLimitExceeded:
		return "SizeLimitExceeded"
	case InstanceInvalidated:
		return "InstanceInvalidated"
	default:
		return "Unknown"
	}
}

// Error is the structured error type returned throughout jwt. Param carries
// the offending header member or claim name where applicable.
type Error struct {
	Kind  Kind
	Param string
	Err   error // underlying cause, if any; never a cryptographic detail
}

func (e *Error) Error() string {
	if e.Param != "" {
		if e.Err != nil {
			return fmt.Sprintf("jwt: %s (%s): %v", e.Kind, e.Param, e.Err)
		}
		return fmt.Sprintf("jwt: %s (%s)", e.Kind, e.Param)
	}
	if e.Err != nil {
		return fmt.Sprintf("jwt: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("jwt: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, allowing
// errors.Is(err, &jwt.Error{Kind: jwt.Expired}) style checks.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, param string, err error) *Error {
	return &Error{Kind: kind, Param: param, Err: err}
}
