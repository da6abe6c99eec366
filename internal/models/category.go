package models

// Category категория услуг с вложенными подкатегориями.
type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory подкатегория, всегда принадлежит ровно одной категории.
type Subcategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	MinPrice   int64  `json:"min_price"`
}
