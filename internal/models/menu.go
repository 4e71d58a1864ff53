package models

type Category struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Description  string `db:"description" json:"description"`
	ImageURL     string `db:"image_url" json:"image_url"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
	Active       bool   `db:"active" json:"active"`
}

type MenuItem struct {
	ID           string  `db:"id" json:"id"`
	CategoryID   string  `db:"category_id" json:"category_id"`
	Name         string  `db:"name" json:"name"`
	Description  string  `db:"description" json:"description"`
	Price        float64 `db:"price" json:"price"`
	ImageURL     string  `db:"image_url" json:"image_url"`
	DisplayOrder int     `db:"display_order" json:"display_order"`
	Available    bool    `db:"available" json:"available"`
}
