package i18n

import (
	"fmt"
	"strings"
)

// 支持的语言
const (
	LocaleZH = "zh-CN"
	LocaleTW = "zh-TW"
	LocaleEN = "en-US"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleEN

// ResolveLocale 从 Accept-Language 解析受支持的语言
func ResolveLocale(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch {
		case strings.HasPrefix(tag, "zh-tw"), strings.HasPrefix(tag, "zh-hk"), strings.HasPrefix(tag, "zh-mo"), strings.HasPrefix(tag, "zh-hant"):
			return LocaleTW
		case strings.HasPrefix(tag, "zh"):
			return LocaleZH
		case strings.HasPrefix(tag, "en"):
			return LocaleEN
		}
	}
	return DefaultLocale
}

// T 按语言取文案，缺失时回退英文，再缺失返回 key 本身
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[LocaleEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 按语言取带占位符的文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

var catalogs = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":                   "invalid request",
		"error.unauthorized":                  "unauthorized",
		"error.auth_header_missing":           "authorization header missing",
		"error.auth_header_invalid":           "authorization header invalid",
		"error.jwt_secret_missing":            "server auth is not configured",
		"error.token_invalid":                 "token invalid",
		"error.token_revoked":                 "token revoked, please sign in again",
		"error.rate_limited":                  "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":        "rate limiter unavailable",
		"error.forbidden":                     "permission denied",
		"error.not_found":                     "resource not found",
		"error.internal":                      "internal server error",
		"error.too_many_requests":             "too many requests, please retry later",
		"error.invalid_quantity":              "invalid quantity",
		"error.product_not_available":         "product is not available",
		"error.product_out_of_stock":          "product is out of stock",
		"error.cart_empty":                    "cart is empty",
		"error.order_not_found":               "order not found",
		"error.order_status_invalid":          "order status does not allow this operation",
		"error.fulfillment_exists":            "order already has a fulfillment sheet",
		"error.fulfillment_not_found":         "fulfillment sheet not found",
		"error.fulfillment_status_invalid":    "fulfillment status does not allow this operation",
		"error.fulfillment_item_not_found":    "fulfillment item not found",
		"error.fulfillment_quantity_exceeded": "fulfilled quantity exceeds ordered quantity",
		"error.slug_exists":                   "slug already exists",
		"error.invalid_post_type":             "invalid post type",
		"error.invalid_credentials":           "incorrect account or password",
		"error.email_taken":                   "email already registered",
		"error.weak_password":                 "password does not meet strength requirements",
		"error.user_disabled":                 "account is disabled",
		"error.vendor_not_found":              "vendor not found",
		"error.invoice_not_found":             "invoice not found",
		"error.payment_channel_disabled":      "payment channel is unavailable",
		"error.payment_not_found":             "payment record not found",
		"error.payment_signature":             "payment callback signature verification failed",
		"error.wishlist_exists":               "product is already in wishlist",

		"order.status.pending_payment": "awaiting payment",
		"order.status.paid":            "paid",
		"order.status.fulfilling":      "being prepared",
		"order.status.completed":       "completed",
		"order.status.canceled":        "canceled",
		"order.status.refunded":        "refunded",

		"email.order_status.subject":        "Your order is %s",
		"email.order_status.body":           "Order %s is now %s.\nTotal: %s %s",
		"email.order_status.body_paid":      "We received your payment for order %s (%s).\nTotal: %s %s\nYour local vendors are preparing your items.",
		"email.order_status.body_completed": "Order %s is %s. All items were picked and handed over.\nTotal: %s %s",
		"email.order_status.body_canceled":  "Order %s was %s.\nTotal: %s %s\nIf you already paid, the amount will be refunded.",
		"email.restock.subject":             "%s is back in stock",
		"email.restock.body":                "Good news! %s is back in stock. Items on your wishlist can sell out quickly.",

		"error.password_min_length":      "password must be at least %d characters",
		"error.password_require_upper":   "password must contain an uppercase letter",
		"error.password_require_lower":   "password must contain a lowercase letter",
		"error.password_require_number":  "password must contain a digit",
		"error.password_require_special": "password must contain a special character",

		"error.admin_username_invalid":       "invalid username",
		"error.admin_username_exists":        "username already exists",
		"error.admin_id_invalid":             "staff account not found",
		"error.admin_delete_self_forbidden":  "cannot delete your own account",
		"error.admin_delete_protected":       "cannot delete the built-in super admin",
		"error.admin_delete_last_forbidden":  "cannot delete the last staff account",
	},
	LocaleZH: {
		"error.bad_request":                   "请求参数不合法",
		"error.unauthorized":                  "未登录或登录已过期",
		"error.auth_header_missing":           "缺少认证头",
		"error.auth_header_invalid":           "认证头格式错误",
		"error.jwt_secret_missing":            "服务端未配置鉴权密钥",
		"error.token_invalid":                 "凭证无效",
		"error.token_revoked":                 "凭证已失效，请重新登录",
		"error.rate_limited":                  "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":        "限流服务不可用",
		"error.forbidden":                     "没有操作权限",
		"error.not_found":                     "资源不存在",
		"error.internal":                      "服务器内部错误",
		"error.too_many_requests":             "请求过于频繁，请稍后再试",
		"error.invalid_quantity":              "数量不合法",
		"error.product_not_available":         "商品不可购买",
		"error.product_out_of_stock":          "商品缺货",
		"error.cart_empty":                    "购物车为空",
		"error.order_not_found":               "订单不存在",
		"error.order_status_invalid":          "当前订单状态不允许该操作",
		"error.fulfillment_exists":            "该订单已存在拣货单",
		"error.fulfillment_not_found":         "拣货单不存在",
		"error.fulfillment_status_invalid":    "当前拣货单状态不允许该操作",
		"error.fulfillment_item_not_found":    "拣货明细不存在",
		"error.fulfillment_quantity_exceeded": "拣货数量超过下单数量",
		"error.slug_exists":                   "slug 已存在",
		"error.invalid_post_type":             "文章类型不合法",
		"error.invalid_credentials":           "账号或密码错误",
		"error.email_taken":                   "邮箱已被注册",
		"error.weak_password":                 "密码强度不足",
		"error.user_disabled":                 "账号已被禁用",
		"error.vendor_not_found":              "商户不存在",
		"error.invoice_not_found":             "发票不存在",
		"error.payment_channel_disabled":      "支付渠道不可用",
		"error.payment_not_found":             "支付记录不存在",
		"error.payment_signature":             "支付回调签名校验失败",
		"error.wishlist_exists":               "商品已在心愿单中",

		"order.status.pending_payment": "待支付",
		"order.status.paid":            "已支付",
		"order.status.fulfilling":      "拣货配货中",
		"order.status.completed":       "已完成",
		"order.status.canceled":        "已取消",
		"order.status.refunded":        "已退款",

		"email.order_status.subject":        "您的订单已%s",
		"email.order_status.body":           "订单 %s 当前状态：%s。\n金额：%s %s",
		"email.order_status.body_paid":      "订单 %s 已收到付款（%s）。\n金额：%s %s\n本地商户正在为您备货。",
		"email.order_status.body_completed": "订单 %s %s，所有商品已拣货完成并交付。\n金额：%s %s",
		"email.order_status.body_canceled":  "订单 %s %s。\n金额：%s %s\n若已付款，款项将原路退回。",
		"email.restock.subject":             "%s 已到货",
		"email.restock.body":                "好消息！%s 已补货。心愿单商品售罄很快，请尽快下单。",

		"error.password_min_length":      "密码长度至少 %d 位",
		"error.password_require_upper":   "密码必须包含大写字母",
		"error.password_require_lower":   "密码必须包含小写字母",
		"error.password_require_number":  "密码必须包含数字",
		"error.password_require_special": "密码必须包含特殊字符",

		"error.admin_username_invalid":       "用户名不合法",
		"error.admin_username_exists":        "用户名已存在",
		"error.admin_id_invalid":             "员工账号不存在",
		"error.admin_delete_self_forbidden":  "不能删除自己的账号",
		"error.admin_delete_protected":       "不能删除内置超级管理员",
		"error.admin_delete_last_forbidden":  "不能删除最后一个员工账号",
	},
	LocaleTW: {
		"error.bad_request":                   "請求參數不合法",
		"error.unauthorized":                  "未登入或登入已過期",
		"error.auth_header_missing":           "缺少認證標頭",
		"error.auth_header_invalid":           "認證標頭格式錯誤",
		"error.jwt_secret_missing":            "伺服端未設定鑑權密鑰",
		"error.token_invalid":                 "憑證無效",
		"error.token_revoked":                 "憑證已失效，請重新登入",
		"error.rate_limited":                  "請求過於頻繁，請 %d 秒後重試",
		"error.rate_limit_unavailable":        "限流服務不可用",
		"error.forbidden":                     "沒有操作權限",
		"error.not_found":                     "資源不存在",
		"error.internal":                      "伺服器內部錯誤",
		"error.too_many_requests":             "請求過於頻繁，請稍後再試",
		"error.invalid_quantity":              "數量不合法",
		"error.product_not_available":         "商品不可購買",
		"error.product_out_of_stock":          "商品缺貨",
		"error.cart_empty":                    "購物車為空",
		"error.order_not_found":               "訂單不存在",
		"error.order_status_invalid":          "目前訂單狀態不允許該操作",
		"error.fulfillment_exists":            "該訂單已存在揀貨單",
		"error.fulfillment_not_found":         "揀貨單不存在",
		"error.fulfillment_status_invalid":    "目前揀貨單狀態不允許該操作",
		"error.fulfillment_item_not_found":    "揀貨明細不存在",
		"error.fulfillment_quantity_exceeded": "揀貨數量超過下單數量",
		"error.slug_exists":                   "slug 已存在",
		"error.invalid_post_type":             "文章類型不合法",
		"error.invalid_credentials":           "帳號或密碼錯誤",
		"error.email_taken":                   "郵箱已被註冊",
		"error.weak_password":                 "密碼強度不足",
		"error.user_disabled":                 "帳號已被停用",
		"error.vendor_not_found":              "商戶不存在",
		"error.invoice_not_found":             "發票不存在",
		"error.payment_channel_disabled":      "支付渠道不可用",
		"error.payment_not_found":             "支付記錄不存在",
		"error.payment_signature":             "支付回調簽名校驗失敗",
		"error.wishlist_exists":               "商品已在心願單中",

		"order.status.pending_payment": "待支付",
		"order.status.paid":            "已支付",
		"order.status.fulfilling":      "揀貨配貨中",
		"order.status.completed":       "已完成",
		"order.status.canceled":        "已取消",
		"order.status.refunded":        "已退款",

		"email.order_status.subject":        "您的訂單已%s",
		"email.order_status.body":           "訂單 %s 目前狀態：%s。\n金額：%s %s",
		"email.order_status.body_paid":      "訂單 %s 已收到付款（%s）。\n金額：%s %s\n本地商戶正在為您備貨。",
		"email.order_status.body_completed": "訂單 %s %s，所有商品已揀貨完成並交付。\n金額：%s %s",
		"email.order_status.body_canceled":  "訂單 %s %s。\n金額：%s %s\n若已付款，款項將原路退回。",
		"email.restock.subject":             "%s 已到貨",
		"email.restock.body":                "好消息！%s 已補貨。心願單商品售罄很快，請盡快下單。",

		"error.password_min_length":      "密碼長度至少 %d 位",
		"error.password_require_upper":   "密碼必須包含大寫字母",
		"error.password_require_lower":   "密碼必須包含小寫字母",
		"error.password_require_number":  "密碼必須包含數字",
		"error.password_require_special": "密碼必須包含特殊字符",

		"error.admin_username_invalid":       "使用者名稱不合法",
		"error.admin_username_exists":        "使用者名稱已存在",
		"error.admin_id_invalid":             "員工帳號不存在",
		"error.admin_delete_self_forbidden":  "不能刪除自己的帳號",
		"error.admin_delete_protected":       "不能刪除內建超級管理員",
		"error.admin_delete_last_forbidden":  "不能刪除最後一個員工帳號",
	},
}
