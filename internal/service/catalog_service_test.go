package service

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestCategoryCreateRejectsDuplicateSlug(t *testing.T) {
	db := openCatalogTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))

	if _, err := svc.Create(CreateCategoryInput{Slug: "electronics", Name: "Electronics"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := svc.Create(CreateCategoryInput{Slug: "electronics", Name: "Electronics 2"})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got: %v", err)
	}
}

func TestCategoryDeleteBlockedWhileProductsExist(t *testing.T) {
	db := openCatalogTestDB(t)
	categories := NewCategoryService(repository.NewCategoryRepository(db))
	products := NewProductService(repository.NewProductRepository(db))

	cat, err := categories.Create(CreateCategoryInput{Slug: "lifestyle", Name: "Lifestyle"})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	catID := strconv.FormatUint(uint64(cat.ID), 10)

	prod, err := products.Create(CreateProductInput{
		CategoryID: cat.ID,
		Slug:       "backpack",
		Name:       "Backpack",
		Price:      decimal.NewFromFloat(79.99),
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if err := categories.Delete(catID); !errors.Is(err, ErrCategoryNotEmpty) {
		t.Fatalf("expected ErrCategoryNotEmpty, got: %v", err)
	}

	prodID := strconv.FormatUint(uint64(prod.ID), 10)
	if err := products.Delete(prodID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}
	if err := categories.Delete(catID); err != nil {
		t.Fatalf("delete category after emptying failed: %v", err)
	}
}

func TestProductCreateValidation(t *testing.T) {
	db := openCatalogTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db))

	_, err := svc.Create(CreateProductInput{CategoryID: 1, Slug: "free", Name: "Free", Price: decimal.Zero})
	if !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("expected ErrProductPriceInvalid for zero price, got: %v", err)
	}

	if _, err := svc.Create(CreateProductInput{CategoryID: 1, Slug: "earphones", Name: "Earphones", Price: decimal.NewFromFloat(99.99)}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = svc.Create(CreateProductInput{CategoryID: 1, Slug: "earphones", Name: "Earphones v2", Price: decimal.NewFromFloat(89.99)})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got: %v", err)
	}
}

func TestProductCreateInactivePersistsAsInactive(t *testing.T) {
	db := openCatalogTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db))

	inactive := false
	prod, err := svc.Create(CreateProductInput{CategoryID: 1, Slug: "retired", Name: "Retired", Price: decimal.NewFromFloat(5), IsActive: &inactive})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Read back through a fresh query: the row itself must carry false,
	// not just the returned struct.
	reloaded, err := svc.GetAdminByID(strconv.FormatUint(uint64(prod.ID), 10))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.IsActive {
		t.Fatalf("inactive product persisted as active")
	}

	var stored models.Product
	if err := db.First(&stored, prod.ID).Error; err != nil {
		t.Fatalf("raw load failed: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("is_active column stored true for an inactive product")
	}
}

func TestProductListPublicFiltersInactive(t *testing.T) {
	db := openCatalogTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db))

	inactive := false
	if _, err := svc.Create(CreateProductInput{CategoryID: 1, Slug: "live", Name: "Live", Price: decimal.NewFromFloat(10)}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(CreateProductInput{CategoryID: 1, Slug: "draft", Name: "Draft", Price: decimal.NewFromFloat(10), IsActive: &inactive}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, total, err := svc.ListPublic("", "", 1, 20)
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Slug != "live" {
		t.Fatalf("public list should only contain active products, got total=%d items=%d", total, len(items))
	}

	_, adminTotal, err := svc.ListAdmin("", "", 1, 20)
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if adminTotal != 2 {
		t.Fatalf("admin list should contain all products, got total=%d", adminTotal)
	}

	if _, err := svc.GetPublicBySlug("draft"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive product should be hidden from the storefront, got: %v", err)
	}
}

func TestProductUpdateKeepsOwnSlug(t *testing.T) {
	db := openCatalogTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db))

	prod, err := svc.Create(CreateProductInput{CategoryID: 1, Slug: "watch", Name: "Watch", Price: decimal.NewFromFloat(199.99)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	id := strconv.FormatUint(uint64(prod.ID), 10)
	updated, err := svc.Update(id, CreateProductInput{CategoryID: 1, Slug: "watch", Name: "Watch Pro", Price: decimal.NewFromFloat(249.99)})
	if err != nil {
		t.Fatalf("update with unchanged slug failed: %v", err)
	}
	if updated.Name != "Watch Pro" {
		t.Fatalf("name not updated, got %s", updated.Name)
	}
	if updated.Price.String() != "249.99" {
		t.Fatalf("price not updated, got %s", updated.Price.String())
	}
}
