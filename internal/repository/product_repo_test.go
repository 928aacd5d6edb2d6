package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"product_importer_v1_202608/internal/model"
)

// ==================== 测试辅助 ====================

func setupProductRepoTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Product{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func mustCreateProduct(t *testing.T, repo ProductRepository, sku string) *model.Product {
	t.Helper()
	product := &model.Product{SKU: sku, IsActive: true}
	if err := repo.Create(context.Background(), product); err != nil {
		t.Fatalf("创建商品 %s 失败: %v", sku, err)
	}
	return product
}

// ==================== 唯一性 ====================

func TestProductRepo_SKUFoldUniqueIndex(t *testing.T) {
	repo := NewProductRepository(setupProductRepoTestDB(t))
	ctx := context.Background()

	mustCreateProduct(t, repo, "ABC")

	// lower(sku) 表达式索引把大小写变体也挡掉
	if err := repo.Create(ctx, &model.Product{SKU: "abc"}); err == nil {
		t.Error("大小写变体 SKU 应触发唯一索引冲突")
	}
	if err := repo.Create(ctx, &model.Product{SKU: "ABC"}); err == nil {
		t.Error("完全相同 SKU 应触发唯一索引冲突")
	}
}

// ==================== SKU 折叠查询 ====================

func TestProductRepo_GetBySKUFold(t *testing.T) {
	repo := NewProductRepository(setupProductRepoTestDB(t))
	ctx := context.Background()

	mustCreateProduct(t, repo, "MiXeD-1")

	product, err := repo.GetBySKUFold(ctx, "mixed-1")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if product.SKU != "MiXeD-1" {
		t.Errorf("SKU = %s, 应原样返回库内值", product.SKU)
	}

	if _, err := repo.GetBySKUFold(ctx, "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestProductRepo_FindBySKUFold(t *testing.T) {
	repo := NewProductRepository(setupProductRepoTestDB(t))
	ctx := context.Background()

	mustCreateProduct(t, repo, "AAA-1")
	mustCreateProduct(t, repo, "BBB-2")
	mustCreateProduct(t, repo, "CCC-3")

	products, err := repo.FindBySKUFold(ctx, []string{"aaa-1", "ccc-3", "missing"})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("命中 %d 条, want 2", len(products))
	}

	// 空入参直接短路
	products, err = repo.FindBySKUFold(ctx, nil)
	if err != nil || products != nil {
		t.Errorf("空入参: products = %v, err = %v", products, err)
	}
}

// ==================== 批量写入 ====================

func TestProductRepo_BatchCreate(t *testing.T) {
	repo := NewProductRepository(setupProductRepoTestDB(t))
	ctx := context.Background()

	products := make([]*model.Product, 0, 25)
	for i := 0; i < 25; i++ {
		products = append(products, &model.Product{SKU: "BULK-" + string(rune('A'+i))})
	}
	if err := repo.BatchCreate(ctx, products, 10); err != nil {
		t.Fatalf("批量创建失败: %v", err)
	}

	for i, p := range products {
		if p.ID == 0 {
			t.Errorf("products[%d].ID 未回填", i)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(all) != 25 {
		t.Errorf("落库 %d 条, want 25", len(all))
	}

	// 空批次与非法 batchSize 都不报错
	if err := repo.BatchCreate(ctx, nil, 10); err != nil {
		t.Errorf("空批次: %v", err)
	}
	if err := repo.BatchCreate(ctx, []*model.Product{{SKU: "ONE-MORE"}}, 0); err != nil {
		t.Errorf("batchSize=0: %v", err)
	}
}

// ==================== 更新 ====================

func TestProductRepo_UpdateFieldsAdvancesUpdatedAt(t *testing.T) {
	repo := NewProductRepository(setupProductRepoTestDB(t))
	ctx := context.Background()

	product := mustCreateProduct(t, repo, "TOUCH-1")
	prev := product.UpdatedAt

	time.Sleep(20 * time.Millisecond)
	if err := repo.UpdateFields(ctx, product.ID, map[string]interface{}{"name": "renamed"}); err != nil {
		t.Fatalf("更新失败: %v", err)
	}

	got, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if got.Name != "renamed" {
		t.Errorf("Name = %s, want renamed", got.Name)
	}
	if !got.UpdatedAt.After(prev) {
		t.Errorf("UpdatedAt 未推进: prev=%v now=%v", prev, got.UpdatedAt)
	}
}

// ==================== 删除 ====================

func TestProductRepo_DeleteAll(t *testing.T) {
	repo := NewProductRepository(setupProductRepoTestDB(t))
	ctx := context.Background()

	for _, sku := range []string{"D-1", "D-2", "D-3"} {
		mustCreateProduct(t, repo, sku)
	}

	deleted, err := repo.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	all, _ := repo.ListAll(ctx)
	if len(all) != 0 {
		t.Errorf("清空后仍有 %d 条", len(all))
	}

	// 空表再清一次
	deleted, err = repo.DeleteAll(ctx)
	if err != nil || deleted != 0 {
		t.Errorf("空表清空: deleted = %d, err = %v", deleted, err)
	}
}

// ==================== 事务 ====================

func TestProductRepo_TransactionRollback(t *testing.T) {
	repo := NewProductRepository(setupProductRepoTestDB(t))
	ctx := context.Background()

	wantErr := errors.New("boom")
	err := repo.Transaction(ctx, func(txRepo ProductRepository) error {
		if err := txRepo.Create(ctx, &model.Product{SKU: "TX-1"}); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want boom", err)
	}

	// 回滚后什么都不该留下
	if _, err := repo.GetBySKUFold(ctx, "tx-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("事务回滚后商品仍存在: %v", err)
	}
}
