package public

import (
	"errors"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError maps a service error onto an API error response.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var cartCommonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrCartLockTimeout, code: response.CodeLockTimeout, msg: "cart busy, retry shortly"},
	{target: service.ErrCartStoreUnavailable, code: response.CodeInternal, msg: "cart unavailable"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrPaymentGateway, code: response.CodeBadRequest, msg: "payment failed"},
}

var orderLookupErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotCancelable, code: response.CodeBadRequest, msg: "order can no longer be canceled"},
}

var paymentConfirmErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentNotRequired, code: response.CodeBadRequest, msg: "order has no pending payment"},
	{target: service.ErrPaymentGateway, code: response.CodeBadRequest, msg: "payment lookup failed"},
}

var userAuthErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid email or password"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "account disabled"},
	{target: service.ErrEmailTaken, code: response.CodeConflict, msg: "email already registered"},
	{target: service.ErrPasswordTooWeak, code: response.CodeBadRequest, msg: "password too weak"},
	{target: service.ErrInvalidPassword, code: response.CodeBadRequest, msg: "old password incorrect"},
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart update failed")
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCreateErrorRules, cartCommonErrorRules), response.CodeInternal, "order create failed")
}

func respondOrderCancelError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderLookupErrorRules, orderCancelErrorRules), response.CodeInternal, "order update failed")
}

func respondPaymentConfirmError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderLookupErrorRules, paymentConfirmErrorRules), response.CodeInternal, "payment confirm failed")
}

func respondUserAuthError(c *gin.Context, err error) {
	respondWithMappedError(c, err, userAuthErrorRules, response.CodeInternal, "request failed")
}
