package api

import "github.com/platinummonkey/specbook/pkg/publish"

// PublishResponse lists the objects written by a publish request
type PublishResponse struct {
	SpecificationID int64             `json:"specification_id"`
	Objects         []*publish.Result `json:"objects"`
}
