package dto

// ==================== 请求 DTO ====================

// ProductCreateReq 创建商品请求
type ProductCreateReq struct {
	SKU         string `json:"sku" binding:"required,max=64"`
	Name        string `json:"name" binding:"max=255"`
	Description string `json:"description"`

	// 十进制字符串，如 "12.50"，最多两位小数；留空按 0
	Price string `json:"price"`

	// 不传默认上架
	IsActive *bool `json:"is_active,omitempty"`
}

// ProductUpdateReq 更新商品请求（IsActive 不传 = 保持现状）
type ProductUpdateReq struct {
	SKU         string `json:"sku" binding:"required,max=64"`
	Name        string `json:"name" binding:"max=255"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// ProductListReq 商品列表请求
type ProductListReq struct {
	SKU         string `form:"sku"`         // 模糊匹配，大小写不敏感
	Name        string `form:"name"`        // 模糊匹配
	Description string `form:"description"` // 模糊匹配
	Active      string `form:"active"`      // "true" / "false"，留空不筛选
	Page        int    `form:"page"`        // 默认1
	PageSize    int    `form:"page_size"`   // 默认50
}

// ==================== 响应 DTO ====================

// ProductResp 商品响应
type ProductResp struct {
	ID          int64  `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"` // 十进制字符串，固定两位小数
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ProductListResp 商品列表响应
type ProductListResp struct {
	Code     int           `json:"code"`
	Message  string        `json:"message"`
	Data     []ProductResp `json:"data"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
