package catalog

// ProductRef is a snapshot of a catalog product at the moment it was shown
// to the user. It is embedded in chat messages and never refreshed, so
// historical turns keep showing what the user actually saw.
type ProductRef struct {
	ID          string  `json:"id"`
	Handle      string  `json:"handle"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"imageUrl"`
	URL         string  `json:"url,omitempty"`
}
