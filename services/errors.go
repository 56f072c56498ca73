package services

import "errors"

// Kind buckets every service failure into the taxonomy the controllers map
// to HTTP statuses.
type Kind int

const (
	KindValidation Kind = iota + 1 // caller's fault, bad input shape/range
	KindNotFound                   // missing cart/order/product/token
	KindConflict                   // illegal state transition
	KindUpstream                   // backing store or catalog unavailable
)

// Stable machine-readable codes carried alongside the human message.
const (
	CodeProductNotFound     = "ProductNotFound"
	CodeOutOfStock          = "OutOfStock"
	CodeInvalidQuantity     = "InvalidQuantity"
	CodeItemNotInCart       = "ItemNotInCart"
	CodeEmptyCart           = "EmptyCart"
	CodeInvalidCustomerInfo = "InvalidCustomerInfo"
	CodeOrderNotFound       = "OrderNotFound"
	CodeOrderNotPending     = "OrderNotPending"
	CodeCheckoutExpired     = "CheckoutExpired"
	CodeInvalidCardNumber   = "InvalidCardNumber"
	CodeInvalidExpiry       = "InvalidExpiry"
	CodeInvalidCVV          = "InvalidCVV"
	CodeInvalidActivity     = "InvalidActivityEntry"
	CodeInvalidCredentials  = "InvalidCredentials"
	CodeUserExists          = "UserExists"
	CodeStoreUnavailable    = "StoreUnavailable"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeStoreUnavailable, Message: message, cause: cause}
}

// KindOf extracts the taxonomy kind, or 0 for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf extracts the stable code, or "" for untagged errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
