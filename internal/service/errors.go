package service

import "errors"

// 业务语义错误，供 handler 用 errors.Is 映射为响应码与 i18n 文案
var (
	// 通用
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrSlugExists   = errors.New("slug already exists")

	// 购物车 / 商品
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrProductNotAvailable = errors.New("product not available")
	ErrProductOutOfStock   = errors.New("product out of stock")
	ErrCartEmpty           = errors.New("cart is empty")

	// 订单
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status does not allow this operation")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrOrderFetchFailed   = errors.New("order fetch failed")
	ErrOrderUpdateFailed  = errors.New("order update failed")

	// 拣货单
	ErrFulfillmentExists           = errors.New("fulfillment already exists")
	ErrFulfillmentNotFound         = errors.New("fulfillment not found")
	ErrFulfillmentInvalid          = errors.New("fulfillment params invalid")
	ErrFulfillmentStatusInvalid    = errors.New("fulfillment status does not allow this operation")
	ErrFulfillmentItemNotFound     = errors.New("fulfillment item not found")
	ErrFulfillmentQuantityExceeded = errors.New("fulfilled quantity exceeds ordered quantity")
	ErrFulfillmentCreateFailed     = errors.New("fulfillment create failed")

	// 发票
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceExists   = errors.New("invoice already exists")

	// 支付
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrPaymentChannelDisabled = errors.New("payment channel disabled")
	ErrPaymentSignature       = errors.New("payment signature verification failed")
	ErrPaymentCreateFailed    = errors.New("payment create failed")

	// 心愿单
	ErrWishlistExists = errors.New("product already in wishlist")

	// 内容
	ErrInvalidPostType = errors.New("invalid post type")

	// 商户
	ErrVendorNotFound = errors.New("vendor not found")

	// 认证
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password too weak")
	ErrUserDisabled       = errors.New("user disabled")

	// 邮件
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
