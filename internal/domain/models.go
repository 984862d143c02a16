package domain

import "encoding/base64"

// Stock is the single persisted entity: an image with a price and a free-text detail.
type Stock struct {
	ID          string  `db:"id"`
	Image       []byte  `db:"image"`
	ContentType string  `db:"content_type"`
	Price       float64 `db:"price"`
	Detail      string  `db:"detail"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

// StockView is the transport shape returned by the JSON API.
type StockView struct {
	ID     string  `json:"id"`
	Image  string  `json:"image"` // data URI
	Price  float64 `json:"price"`
	Detail string  `json:"detail"`
}

// DefaultImageType is used for rows stored before content types were recorded.
const DefaultImageType = "image/jpeg"

// DataURI embeds the image bytes as a base64 data URI.
func (s Stock) DataURI() string {
	ct := s.ContentType
	if ct == "" {
		ct = DefaultImageType
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(s.Image)
}

func (s Stock) View() StockView {
	return StockView{ID: s.ID, Image: s.DataURI(), Price: s.Price, Detail: s.Detail}
}
