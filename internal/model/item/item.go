package item

import "github.com/rangkeep/rangs/internal/model"

// Item is a catalog row owned by the external catalog service.
// Read-only to this core.
type Item struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Cost      model.Amount `json:"cost"`
	Available bool         `json:"available"`
}
