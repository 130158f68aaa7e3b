package model

import "fmt"

// EventAction represents the type of event action.
type EventAction string

const (
	// EventActionCategoryCreated represents the category creation event action.
	EventActionCategoryCreated EventAction = "category_created"
	// EventActionCategoryUpdated represents the category update event action.
	EventActionCategoryUpdated EventAction = "category_updated"
	// EventActionCategoryDeleted represents the category deletion event action.
	EventActionCategoryDeleted EventAction = "category_deleted"
	// EventActionProductCreated represents the product creation event action.
	EventActionProductCreated EventAction = "product_created"
	// EventActionProductUpdated represents the product update event action.
	EventActionProductUpdated EventAction = "product_updated"
	// EventActionProductDeleted represents the product deletion event action.
	EventActionProductDeleted EventAction = "product_deleted"
)

// CategoryEvent is the payload of category events.
type CategoryEvent struct {
	CategoryID int64       `json:"category_id"`
	Name       string      `json:"name"`
	Action     EventAction `json:"action"`
}

// ProductEvent is the payload of product events.
type ProductEvent struct {
	ProductID  int64       `json:"product_id"`
	Name       string      `json:"name"`
	CategoryID int64       `json:"category_id"`
	Action     EventAction `json:"action"`
}

// CategoryAggregateID returns the outbox aggregate id of a category.
func CategoryAggregateID(id int64) string {
	return fmt.Sprintf("category_%d", id)
}

// ProductAggregateID returns the outbox aggregate id of a product.
func ProductAggregateID(id int64) string {
	return fmt.Sprintf("product_%d", id)
}
