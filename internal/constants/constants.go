package constants

// 订单状态
const (
	OrderStatusPendingPayment = "pending_payment" // 待支付
	OrderStatusPaid           = "paid"            // 已支付
	OrderStatusFulfilling     = "fulfilling"      // 拣货配货中
	OrderStatusCompleted      = "completed"       // 已完成
	OrderStatusCanceled       = "canceled"        // 已取消
	OrderStatusRefunded       = "refunded"        // 已退款
)

// 拣货单状态
const (
	FulfillmentStatusPending    = "pending"     // 待开始
	FulfillmentStatusInProgress = "in_progress" // 拣货中
	FulfillmentStatusCompleted  = "completed"   // 已完成
	FulfillmentStatusCancelled  = "cancelled"   // 已取消（终态）
)

// 拣货单明细状态
const (
	FulfillmentItemStatusPending    = "pending"      // 未处理
	FulfillmentItemStatusAdded      = "added"        // 已拣齐
	FulfillmentItemStatusOutOfStock = "out_of_stock" // 缺货
	FulfillmentItemStatusPartial    = "partial"      // 部分拣货
)

// 支付状态
const (
	PaymentStatusCreated   = "created"   // 已创建
	PaymentStatusSucceeded = "succeeded" // 支付成功
	PaymentStatusFailed    = "failed"    // 支付失败
	PaymentStatusExpired   = "expired"   // 已过期
)

// 支付服务商
const (
	PaymentProviderStripe = "stripe"
)

// 支付渠道展示类型
const (
	PaymentChannelTypeRedirect = "redirect" // 跳转收银台
)

// 发票状态
const (
	InvoiceStatusIssued = "issued" // 已开具
	InvoiceStatusVoided = "voided" // 已作废
)

// 商品计价单位
const (
	ProductUnitEach  = "each"  // 按件
	ProductUnitPound = "lb"    // 按磅
	ProductUnitBunch = "bunch" // 按把
	ProductUnitDozen = "dozen" // 按打
)

// 内容文章类型
const (
	PostTypeBlog   = "blog"   // 博客
	PostTypeNotice = "notice" // 公告
	PostTypeRecipe = "recipe" // 食谱
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 商户状态
const (
	VendorStatusActive    = "active"    // 营业中
	VendorStatusSuspended = "suspended" // 暂停营业
)

// 队列任务类型
const (
	TaskFulfillmentCreate  = "fulfillment:create"
	TaskOrderStatusEmail   = "order:status_email"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskRestockNotify      = "wishlist:restock_notify"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
	QueueLow      = "low"
)

// 语言
const (
	LocaleZHCN = "zh-CN"
	LocaleZHTW = "zh-TW"
	LocaleENUS = "en-US"
)

// SupportedLocales 支持的语言列表
var SupportedLocales = []string{LocaleZHCN, LocaleZHTW, LocaleENUS}

// 请求头
const (
	HeaderRequestID  = "X-Request-ID"
	HeaderAcceptLang = "Accept-Language"
	HeaderStripeSig  = "Stripe-Signature"
)

// 默认值
const (
	DefaultPageSize     = 20
	MaxPageSize         = 100
	DefaultCurrency     = "USD"
	OrderNoPrefix       = "MKT"
	InvoiceNoPrefix     = "INV"
	DefaultAdminAccount = "admin"
)
