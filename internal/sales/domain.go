package sales

import "time"

// DateLayout is the ISO calendar date format used on the wire and in reports.
const DateLayout = "2006-01-02"

// Sale represents one recorded sale of animals.
type Sale struct {
	ID        int64
	Date      time.Time
	Client    string
	Family    *string
	Species   string
	Quantity  float64
	UnitPrice float64
	Total     float64
	Notes     *string
}

// SaleView is the external representation of a Sale.
type SaleView struct {
	ID       int64   `json:"id"`
	Date     string  `json:"fecha"`
	Client   string  `json:"cliente"`
	Family   *string `json:"familia"`
	Species  string  `json:"especie"`
	Quantity float64 `json:"cantidad"`
	Price    float64 `json:"precio"`
	Total    float64 `json:"total"`
	Notes    *string `json:"notas"`
}

// View converts the sale to its external representation.
func (s *Sale) View() SaleView {
	return SaleView{
		ID:       s.ID,
		Date:     s.Date.Format(DateLayout),
		Client:   s.Client,
		Family:   s.Family,
		Species:  s.Species,
		Quantity: s.Quantity,
		Price:    s.UnitPrice,
		Total:    s.Total,
		Notes:    s.Notes,
	}
}
