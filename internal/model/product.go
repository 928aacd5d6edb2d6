package model

// Product 商品目录条目
//
// SKU 全局唯一且大小写不敏感（"abc" 和 "ABC" 视为同一个商品），
// 入库前统一规范为大写，唯一性由 lower(sku) 表达式索引兜底。
type Product struct {
	BaseModel

	// --- 身份 ---
	SKU string `gorm:"size:64;not null;index:uniq_product_sku_ci,class:UNIQUE,expression:lower(sku)"`

	// --- 基本信息 ---
	Name        string `gorm:"size:255;index"`
	Description string `gorm:"type:text"`

	// --- 价格（定点存储，单位：分）---
	PriceCents int64 `gorm:"not null;default:0"`

	// --- 上下架开关，导入流程永远不碰这个字段 ---
	IsActive bool `gorm:"not null;default:true;index"`
}

func (Product) TableName() string {
	return "products"
}
