package dto

// SearchResponse is the subset of GET /v1/search the client reads.
type SearchResponse struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Photos       []Photo `json:"photos"`
}

// Photo is a single search hit.
type Photo struct {
	ID           int64    `json:"id"`
	Photographer string   `json:"photographer"`
	Src          PhotoSrc `json:"src"`
}

// PhotoSrc lists the rendered sizes of a photo.
type PhotoSrc struct {
	Original string `json:"original"`
	Medium   string `json:"medium"`
	Small    string `json:"small"`
}
