package vk

import (
	"encoding/json"
	"time"

	"vkbackup/pkg/models"
)

// envelope is the top-level shape of every VK API reply
type envelope struct {
	Error    *apiError       `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

type photosResponse struct {
	Count int         `json:"count"`
	Items []photoItem `json:"items"`
}

type photoItem struct {
	ID      int64       `json:"id"`
	OwnerID int64       `json:"owner_id"`
	Date    int64       `json:"date"`
	Likes   likes       `json:"likes"`
	Sizes   []photoSize `json:"sizes"`
}

type likes struct {
	Count int `json:"count"`
}

type photoSize struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
	Type   string `json:"type"`
}

func (p photoItem) toModel() models.Photo {
	sizes := make([]models.SizeVariant, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizes = append(sizes, models.SizeVariant{
			Width:  s.Width,
			Height: s.Height,
			URL:    s.URL,
			Type:   s.Type,
		})
	}

	likeCount := p.Likes.Count
	if likeCount < 0 {
		likeCount = 0
	}

	return models.Photo{
		ID:      p.ID,
		OwnerID: p.OwnerID,
		Date:    time.Unix(p.Date, 0),
		Likes:   likeCount,
		Sizes:   sizes,
	}
}
