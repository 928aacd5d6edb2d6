package model

import (
	"time"
)

// BaseModel 通用主键与时间戳
// 商品删除必须是物理删除（删掉后 SKU 要能重新导入），所以不挂软删除字段
type BaseModel struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
