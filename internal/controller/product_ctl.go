package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"product_importer_v1_202608/internal/api/dto"
	"product_importer_v1_202608/internal/repository"
	"product_importer_v1_202608/internal/service"
)

type ProductController struct {
	productService *service.ProductService
}

func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// ==================== 查询接口 ====================

// ListProducts 获取商品列表
// @Summary 获取商品列表（支持 SKU/名称/描述模糊筛选）
// @Tags Product
// @Param sku query string false "SKU 模糊匹配（大小写不敏感）"
// @Param name query string false "名称模糊匹配"
// @Param description query string false "描述模糊匹配"
// @Param active query string false "上架状态 true/false，留空不筛选"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(50)
// @Success 200 {object} dto.ProductListResp
// @Router /api/v1/products [get]
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	var req dto.ProductListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}

	ctx := c.Request.Context()
	products, total, err := ctrl.productService.ListProducts(ctx, repository.ProductFilter{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	respList := make([]dto.ProductResp, 0, len(products))
	for i := range products {
		respList = append(respList, service.ToProductResp(&products[i]))
	}

	c.JSON(200, dto.ProductListResp{
		Code:     0,
		Message:  "success",
		Data:     respList,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// GetProduct 获取商品详情
// @Summary 获取单个商品详情
// @Tags Product
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ProductResp
// @Router /api/v1/products/{id} [get]
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品ID"})
		return
	}

	ctx := c.Request.Context()
	product, err := ctrl.productService.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "商品不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    service.ToProductResp(product),
	})
}

// ==================== CRUD 接口 ====================

// CreateProduct 创建商品
// @Summary 创建商品（SKU 大小写不敏感唯一）
// @Tags Product
// @Accept json
// @Produce json
// @Param body body dto.ProductCreateReq true "商品信息"
// @Success 201 {object} dto.ProductResp
// @Router /api/v1/products [post]
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req dto.ProductCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	product, err := ctrl.productService.CreateProduct(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSKUExists):
			c.JSON(409, gin.H{"code": 409, "message": "SKU 已存在: " + err.Error()})
		case errors.Is(err, service.ErrInvalidPrice), errors.Is(err, service.ErrInvalidSKU):
			c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		default:
			c.JSON(500, gin.H{"code": 500, "message": "创建失败: " + err.Error()})
		}
		return
	}

	c.JSON(201, gin.H{
		"code":    0,
		"message": "success",
		"data":    service.ToProductResp(product),
	})
}

// UpdateProduct 更新商品
// @Summary 整体更新商品
// @Tags Product
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param body body dto.ProductUpdateReq true "更新内容"
// @Success 200 {object} dto.ProductResp
// @Router /api/v1/products/{id} [put]
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品ID"})
		return
	}

	var req dto.ProductUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	product, err := ctrl.productService.UpdateProduct(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(404, gin.H{"code": 404, "message": "商品不存在"})
		case errors.Is(err, service.ErrSKUExists):
			c.JSON(409, gin.H{"code": 409, "message": "SKU 已存在: " + err.Error()})
		case errors.Is(err, service.ErrInvalidPrice), errors.Is(err, service.ErrInvalidSKU):
			c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		default:
			c.JSON(500, gin.H{"code": 500, "message": "更新失败: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    service.ToProductResp(product),
	})
}

// DeleteProduct 删除商品
// @Summary 删除商品（物理删除，触发 product.deleted）
// @Tags Product
// @Param id path int true "商品ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products/{id} [delete]
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品ID"})
		return
	}

	ctx := c.Request.Context()
	if err := ctrl.productService.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "商品不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "删除失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "删除成功"})
}

// DeleteAllProducts 清空商品
// @Summary 删除全部商品（每个商品各触发一条 product.deleted）
// @Tags Product
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products/bulk-delete [post]
func (ctrl *ProductController) DeleteAllProducts(c *gin.Context) {
	ctx := c.Request.Context()
	deleted, err := ctrl.productService.DeleteAllProducts(ctx)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "删除失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "删除成功",
		"data":    gin.H{"deleted": deleted},
	})
}
