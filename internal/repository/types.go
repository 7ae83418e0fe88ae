package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   string
	VendorID     string
	Search       string
	OnlyActive   bool
	InStockOnly  bool
	OnSaleOnly   bool
	WithCategory bool
	WithVendor   bool
}

// VendorListFilter 查询商户列表的过滤条件
type VendorListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// PostListFilter 查询文章列表的过滤条件
type PostListFilter struct {
	Page          int
	PageSize      int
	Type          string
	Search        string
	OnlyPublished bool
	OrderBy       string
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// FulfillmentListFilter 查询拣货单列表的过滤条件
type FulfillmentListFilter struct {
	Page        int
	PageSize    int
	Status      string
	OrderNo     string
	CustomerID  uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// InvoiceListFilter 查询发票列表的过滤条件
type InvoiceListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	InvoiceNo   string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentListFilter 查询支付列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	ChannelID   uint
	Provider    string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentChannelListFilter 查询支付渠道列表的过滤条件
type PaymentChannelListFilter struct {
	Page       int
	PageSize   int
	Provider   string
	ActiveOnly bool
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
