package models

import "gorm.io/gorm"

// SeedProducts inserts a few demo products in development databases
func SeedProducts(db *gorm.DB, owner string) error {
	demo := []Product{
		{
			Title:       "Organic Cotton Romper",
			Description: "Soft, breathable romper for newborns (0-3 months).",
			Images:      []string{"https://i.ibb.co/demo/romper.jpg"},
		},
		{
			Title:       "Wooden Stacking Rings",
			Description: "Classic stacking toy made from sustainable beech wood.",
			Images:      []string{"https://i.ibb.co/demo/rings.jpg"},
		},
		{
			Title:       "Bamboo Hooded Towel",
			Description: "Extra-absorbent hooded towel, gentle on sensitive skin.",
			Images:      []string{"https://i.ibb.co/demo/towel.jpg"},
		},
	}
	for _, product := range demo {
		product.CreatedBy = owner
		if err := db.FirstOrCreate(&product, "title = ?", product.Title).Error; err != nil {
			return err
		}
	}
	return nil
}
