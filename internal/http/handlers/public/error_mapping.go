package public

import (
	"errors"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// errorRule 把一个业务错误翻译成接口错误码与文案 key。
type errorRule struct {
	match error
	code  int
	key   string
}

// errorRules 按声明顺序匹配，未命中走 error.internal 兜底。
type errorRules []errorRule

func (rules errorRules) respond(c *gin.Context, err error) {
	for _, rule := range rules {
		if !errors.Is(err, rule.match) {
			continue
		}
		respondError(c, rule.code, rule.key, nil)
		return
	}
	respondError(c, response.CodeInternal, "error.internal", err)
}

var cartErrorRules = errorRules{
	{match: service.ErrInvalidQuantity, code: response.CodeBadRequest, key: "error.invalid_quantity"},
	{match: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{match: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{match: service.ErrProductOutOfStock, code: response.CodeBadRequest, key: "error.product_out_of_stock"},
}

var orderCreateErrorRules = errorRules{
	{match: service.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{match: service.ErrInvalidQuantity, code: response.CodeBadRequest, key: "error.invalid_quantity"},
	{match: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{match: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{match: service.ErrProductOutOfStock, code: response.CodeBadRequest, key: "error.product_out_of_stock"},
}

var orderLookupErrorRules = errorRules{
	{match: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{match: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
	{match: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}

var paymentCreateErrorRules = errorRules{
	{match: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{match: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
	{match: service.ErrPaymentChannelDisabled, code: response.CodeBadRequest, key: "error.payment_channel_disabled"},
	{match: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}

var wishlistErrorRules = errorRules{
	{match: service.ErrWishlistExists, code: response.CodeBadRequest, key: "error.wishlist_exists"},
	{match: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{match: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}

func respondCartError(c *gin.Context, err error) {
	cartErrorRules.respond(c, err)
}

func respondOrderCreateError(c *gin.Context, err error) {
	orderCreateErrorRules.respond(c, err)
}

func respondOrderLookupError(c *gin.Context, err error) {
	orderLookupErrorRules.respond(c, err)
}

func respondPaymentCreateError(c *gin.Context, err error) {
	paymentCreateErrorRules.respond(c, err)
}

func respondWishlistError(c *gin.Context, err error) {
	wishlistErrorRules.respond(c, err)
}
