// Package apperr defines the failure kinds surfaced by the payment flow.
// Every kind is a *goerrors.Error with a stable text code so callers can
// branch on it without string matching.
package apperr

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CodeSignatureInvalid             = "SIGNATURE_INVALID"
	CodeMetadataMissing              = "METADATA_MISSING"
	CodeOfferNotFound                = "OFFER_NOT_FOUND"
	CodePriceInvalid                 = "PRICE_INVALID"
	CodeSellerPayoutNotConfigured    = "SELLER_PAYOUT_NOT_CONFIGURED"
	CodePaymentSessionCreationFailed = "PAYMENT_SESSION_CREATION_FAILED"
	CodeDeliveryInProgress           = "DELIVERY_IN_PROGRESS"
	CodeOfferAlreadyExists           = "OFFER_ALREADY_EXISTS"
	CodePayoutAccountNotReady        = "PAYOUT_ACCOUNT_NOT_READY"
	CodeProcessorUnavailable         = "PROCESSOR_UNAVAILABLE"
	CodeNotFound                     = "NOT_FOUND"
	CodeBadInput                     = "BAD_INPUT"
	CodeStoreFailure                 = "STORE_FAILURE"
	CodeInternal                     = "INTERNAL_ERROR"
)

func newError(message string, category goerrors.Category, code int, textCode string, cause error) *goerrors.Error {
	var err *goerrors.Error
	if cause != nil {
		err = goerrors.Wrap(cause, category, message)
	} else {
		err = goerrors.New(message, category)
	}
	return err.WithCode(code).WithTextCode(textCode)
}

func SignatureInvalid(cause error) error {
	return newError("webhook signature verification failed", goerrors.CategoryAuth, http.StatusBadRequest, CodeSignatureInvalid, cause)
}

func MetadataMissing(message string) error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, CodeMetadataMissing, nil)
}

func OfferNotFound(message string) error {
	return newError(message, goerrors.CategoryNotFound, http.StatusNotFound, CodeOfferNotFound, nil)
}

func PriceInvalid(message string, cause error) error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, CodePriceInvalid, cause)
}

func SellerPayoutNotConfigured(sellerID string) error {
	return newError("seller "+sellerID+" has no payout account configured", goerrors.CategoryBadInput, http.StatusUnprocessableEntity, CodeSellerPayoutNotConfigured, nil)
}

func PaymentSessionCreationFailed(cause error) error {
	return newError("could not create payment session", goerrors.CategoryExternal, http.StatusBadGateway, CodePaymentSessionCreationFailed, cause)
}

func DeliveryInProgress(sessionID string) error {
	return newError("delivery for session "+sessionID+" is already being processed", goerrors.CategoryConflict, http.StatusConflict, CodeDeliveryInProgress, nil)
}

func OfferAlreadyExists(gigID, tier string) error {
	return newError("gig "+gigID+" already has a "+tier+" offer", goerrors.CategoryConflict, http.StatusConflict, CodeOfferAlreadyExists, nil)
}

func PayoutAccountNotReady(accountID string) error {
	return newError("payout account "+accountID+" cannot accept charges yet", goerrors.CategoryOperation, http.StatusUnprocessableEntity, CodePayoutAccountNotReady, nil)
}

func ProcessorUnavailable(message string, cause error) error {
	return newError(message, goerrors.CategoryExternal, http.StatusBadGateway, CodeProcessorUnavailable, cause)
}

func NotFound(message string) error {
	return newError(message, goerrors.CategoryNotFound, http.StatusNotFound, CodeNotFound, nil)
}

func BadInput(message string, cause error) error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, CodeBadInput, cause)
}

func StoreFailure(message string, cause error) error {
	return newError(message, goerrors.CategoryInternal, http.StatusInternalServerError, CodeStoreFailure, cause)
}

// Is reports whether err carries the given text code.
func Is(err error, textCode string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == textCode
}

// From returns the rich error inside err, classifying unknown errors as internal.
func From(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return newError("an unexpected error occurred", goerrors.CategoryInternal, http.StatusInternalServerError, CodeInternal, err)
}
