package main

import (
	"fmt"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	categories := []models.Category{
		{Name: "Electronics", Slug: "electronics", Icon: "cpu", SortOrder: 300},
		{Name: "Lifestyle", Slug: "lifestyle", Icon: "home", SortOrder: 200},
		{Name: "Accessories", Slug: "accessories", Icon: "headphones", SortOrder: 100},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"electronics", "lifestyle", "accessories"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}
	electronicsID := categoryIDs["electronics"]
	lifestyleID := categoryIDs["lifestyle"]
	accessoriesID := categoryIDs["accessories"]

	products := []models.Product{
		{
			Name:        "Wireless Bluetooth Earphones",
			Slug:        "wireless-earphones",
			Description: "High quality sound, long battery life, comfortable to wear. Features Bluetooth 5.0, active noise cancellation, and up to 24 hours of battery.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(99.99)),
			CategoryID:  electronicsID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			}),
			Tags:      models.StringArray([]string{"Audio", "Wireless", "Headphones"}),
			IsActive:  true,
			SortOrder: 400,
		},
		{
			Name:        "Smart Watch",
			Slug:        "smart-watch",
			Description: "24/7 heart rate monitoring, multiple sport modes, waterproof design, supports message push and calling.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(199.99)),
			CategoryID:  electronicsID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1579586337278-3befd40fd17a?w=800",
			}),
			Tags:      models.StringArray([]string{"Wearable", "Health", "Smart"}),
			IsActive:  true,
			SortOrder: 350,
		},
		{
			Name:        "Portable Power Bank",
			Slug:        "power-bank",
			Description: "High capacity, fast charging, multi-device compatible.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(49.99)),
			CategoryID:  accessoriesID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1609091839311-d5365f9ff1c5?w=800",
			}),
			Tags:      models.StringArray([]string{"Charger", "Portable", "Accessory"}),
			IsActive:  true,
			SortOrder: 300,
		},
		{
			Name:        "Multi-function Backpack",
			Slug:        "backpack",
			Description: "Large capacity, waterproof and anti-theft, USB charging port.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(79.99)),
			CategoryID:  lifestyleID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=800",
			}),
			Tags:      models.StringArray([]string{"Bag", "Travel", "Lifestyle"}),
			IsActive:  true,
			SortOrder: 250,
		},
		{
			Name:        "Mechanical Keyboard",
			Slug:        "mechanical-keyboard",
			Description: "Hot-swappable switches, PBT keycaps, tri-mode connectivity.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(129.99)),
			CategoryID:  electronicsID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1511467687858-23d96c32e4ae?w=800",
			}),
			Tags:      models.StringArray([]string{"Keyboard", "Desk", "Mechanical"}),
			IsActive:  true,
			SortOrder: 200,
		},
		{
			Name:        "Ceramic Pour-Over Set",
			Slug:        "pour-over-set",
			Description: "Ceramic dripper with matching carafe for slow-brew coffee at home.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(39.99)),
			CategoryID:  lifestyleID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1495474472287-4d71bcdd2085?w=800",
			}),
			Tags:      models.StringArray([]string{"Coffee", "Kitchen"}),
			IsActive:  true,
			SortOrder: 150,
		},
		{
			Name:        "USB-C Hub (Draft)",
			Slug:        "usb-c-hub",
			Description: "8-in-1 hub with HDMI, card reader and 100W passthrough. Not yet published.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(59.99)),
			CategoryID:  accessoriesID,
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1625842268584-8f3296236761?w=800",
			}),
			Tags:      models.StringArray([]string{"Hub", "USB-C"}),
			IsActive:  false,
			SortOrder: 100,
		},
	}

	for _, prod := range products {
		if prod.CategoryID == 0 {
			stdLog.Printf("Skip product %s: category_id missing", prod.Slug)
			continue
		}
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			existing.Name = prod.Name
			existing.Description = prod.Description
			existing.Price = prod.Price
			existing.CategoryID = prod.CategoryID
			existing.Images = prod.Images
			existing.Tags = prod.Tags
			existing.IsActive = prod.IsActive
			existing.SortOrder = prod.SortOrder
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Updated product: %s", prod.Slug)
			}
		}
	}

	fmt.Println("\nDemo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Categories")
	fmt.Println("- 7 Products (1 inactive draft)")
}
