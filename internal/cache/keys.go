package cache

import "strconv"

const (
	// CategoryListKey holds the serialized category collection.
	CategoryListKey = "category_list"
	// ProductListKey holds the serialized product collection.
	ProductListKey = "products_list"
)

// CategoryKey returns the key of a single category.
func CategoryKey(id int64) string {
	return "category:" + strconv.FormatInt(id, 10)
}

// ProductKey returns the key of a single product.
func ProductKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}
