package models

import "github.com/google/uuid"

// All lists every persisted model, parents before children.
func All() []any {
	return []any{
		&User{},
		&UserToken{},
		&Category{},
		&Shop{},
		&Product{},
		&ProductInfo{},
		&Parameter{},
		&ProductParameter{},
		&Contact{},
		&Order{},
		&OrderItem{},
		&CatalogImport{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}

// assignID fills a zero primary key with a time-ordered UUIDv7 so keyset
// pages by id follow insertion order.
func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v
	return nil
}
