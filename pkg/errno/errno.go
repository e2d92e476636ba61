package errno

import (
	"errors"
	"fmt"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Kind 错误类别，由错误码的万位决定
type Kind int

const (
	KindUnknown Kind = iota
	KindInputValidation
	KindCryptoInvariant
	KindArithmetic
	KindEncoding
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindInputValidation:
		return "InputValidation"
	case KindCryptoInvariant:
		return "CryptographicInvariantViolation"
	case KindArithmetic:
		return "ArithmeticError"
	case KindEncoding:
		return "EncodingError"
	case KindTransport:
		return "TransportError"
	default:
		return "Unknown"
	}
}

// Kind 返回错误码所属的类别
func (e Errno) Kind() Kind {
	switch e.Code / 10000 {
	case 2:
		return KindInputValidation
	case 3:
		return KindCryptoInvariant
	case 4:
		return KindArithmetic
	case 5:
		return KindEncoding
	case 6:
		return KindTransport
	default:
		return KindUnknown
	}
}

// Error 在 Errno 的基础上携带出错的输入和底层原因。
// errors.Is(err, errno.ErrUnknownWord) 按错误码匹配。
type Error struct {
	Errno
	Detail string
	Cause  error
}

// New 构造一个带上下文的错误
func New(kind Errno, detail string) *Error {
	return &Error{Errno: kind, Detail: detail}
}

// Newf 同 New，detail 支持格式化
func Newf(kind Errno, format string, args ...any) *Error {
	return &Error{Errno: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap 构造错误并保留底层原因
func Wrap(kind Errno, cause error, detail string) *Error {
	return &Error{Errno: kind, Detail: detail, Cause: cause}
}

// Wrapf 同 Wrap，detail 支持格式化
func Wrapf(kind Errno, cause error, format string, args ...any) *Error {
	return &Error{Errno: kind, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按错误码比较
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Errno:
		return e.Code == t.Code
	case *Errno:
		return t != nil && e.Code == t.Code
	case *Error:
		return t != nil && e.Code == t.Code
	}
	return false
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var detailed *Error
	if errors.As(err, &detailed) {
		return detailed.Code, detailed.Error()
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	default:
		return InternalServerError.Code, err.Error()
	}
}

// KindOf 返回任意错误所属的类别
func KindOf(err error) Kind {
	var detailed *Error
	if errors.As(err, &detailed) {
		return detailed.Kind()
	}
	var plain Errno
	if errors.As(err, &plain) {
		return plain.Kind()
	}
	return KindUnknown
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
)

// Input validation (20000+)
var (
	ErrInvalidWordCount = Errno{Code: 20101, Message: "invalid mnemonic word count"}
	ErrUnknownWord      = Errno{Code: 20102, Message: "unknown mnemonic word"}
	ErrInvalidChecksum  = Errno{Code: 20103, Message: "invalid mnemonic checksum"}
	ErrInvalidSeed      = Errno{Code: 20201, Message: "invalid seed length"}
	ErrInvalidPath      = Errno{Code: 20202, Message: "malformed derivation path"}
	ErrInvalidPubKey    = Errno{Code: 20203, Message: "invalid public key"}
	ErrInvalidPrivKey   = Errno{Code: 20204, Message: "invalid private key"}
	ErrInvalidDenom     = Errno{Code: 20301, Message: "invalid denom"}
	ErrInvalidCoin      = Errno{Code: 20302, Message: "malformed coin"}
	ErrInvalidDecimal   = Errno{Code: 20303, Message: "malformed decimal"}
	ErrInvalidSignMode  = Errno{Code: 20401, Message: "unknown sign mode"}
	ErrInvalidTx        = Errno{Code: 20402, Message: "invalid transaction"}
	ErrInvalidSignature = Errno{Code: 20403, Message: "invalid signature encoding"}
	ErrKeystoreAuth     = Errno{Code: 20501, Message: "invalid password or corrupted keystore"}
	ErrKeystoreFormat   = Errno{Code: 20502, Message: "malformed keystore file"}
)

// Cryptographic invariant violations (30000+)
var (
	ErrInvalidMasterKey = Errno{Code: 30101, Message: "seed produces an invalid master key"}
	ErrInvalidChildKey  = Errno{Code: 30102, Message: "invalid child key"}
	ErrDerivationFailed = Errno{Code: 30103, Message: "key derivation failed"}
)

// Arithmetic (40000+)
var (
	ErrUnderflow         = Errno{Code: 40101, Message: "amount underflow"}
	ErrDenomMismatch     = Errno{Code: 40102, Message: "denom mismatch"}
	ErrNegativeAmount    = Errno{Code: 40103, Message: "negative amount"}
	ErrPrecisionOverflow = Errno{Code: 40201, Message: "precision exceeds 18 fractional digits"}
	ErrDivisionByZero    = Errno{Code: 40202, Message: "division by zero"}
	ErrIntegerConversion = Errno{Code: 40203, Message: "decimal is not an integer"}
)

// Encoding (50000+)
var (
	ErrUnknownHRP        = Errno{Code: 50101, Message: "unexpected address prefix"}
	ErrAddressChecksum   = Errno{Code: 50102, Message: "invalid address checksum"}
	ErrInvalidCharacter  = Errno{Code: 50103, Message: "invalid address character"}
	ErrInvalidLength     = Errno{Code: 50104, Message: "invalid address length"}
	ErrMalformedEncoding = Errno{Code: 50105, Message: "malformed encoding"}
)

// Transport (60000+), only used by the node client
var (
	ErrNodeUnavailable = Errno{Code: 60101, Message: "node unavailable"}
	ErrAccountNotFound = Errno{Code: 60102, Message: "account not found"}
	ErrTxFailed        = Errno{Code: 60103, Message: "transaction failed"}
	ErrTxNotFound      = Errno{Code: 60104, Message: "transaction not found"}
	ErrInsufficientFee = Errno{Code: 60105, Message: "insufficient fee"}
	ErrOutOfGas        = Errno{Code: 60106, Message: "out of gas"}
)
