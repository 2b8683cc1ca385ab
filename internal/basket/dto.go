package basket

// AddItemsRequest is the body of POST /basket.
type AddItemsRequest struct {
	Items []AddItem `json:"items" validate:"required,min=1,dive"`
}

type AddItem struct {
	ProductInfo string `json:"product_info" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemsRequest is the body of PUT /basket.
type UpdateItemsRequest struct {
	Items []UpdateItem `json:"items" validate:"required,min=1,dive"`
}

type UpdateItem struct {
	ID       string `json:"id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// DeleteItemsRequest carries a comma separated list of basket line ids.
type DeleteItemsRequest struct {
	Items string `json:"items"`
}

type AddResult struct {
	Created int `json:"created"`
}

type UpdateResult struct {
	Updated int64 `json:"updated"`
}

type DeleteResult struct {
	Deleted *int64 `json:"deleted,omitempty"`
}
