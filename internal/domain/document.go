package domain

import "time"

// Document is the envelope every stored payload lives in.
type Document[T any] struct {
	DocID      string    `json:"docId"`
	NumericID  int64     `json:"numericId"`
	Collection string    `json:"collection"`
	Data       T         `json:"data"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

const (
	CollectionResults      = "results"
	CollectionResultFacets = "resultFacets"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}
