package models

// ContactStatus — стадия работы с контактом.
type ContactStatus string

const (
	ContactActive   ContactStatus = "active"
	ContactInactive ContactStatus = "inactive"
	ContactProspect ContactStatus = "prospect"
)

// Contact — CRM-контакт (коллекция contacts).
// ID — hex ObjectID, проставляется хранилищем при вставке.
// LastContact/CreatedAt — строки RFC3339 (или YYYY-MM-DD), как их присылает фронт.
type Contact struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	Company     string        `json:"company"`
	Position    string        `json:"position"`
	Avatar      *string       `json:"avatar"`
	Status      ContactStatus `json:"status"`
	LastContact *string       `json:"lastContact"`
	Tags        []string      `json:"tags"`
	Notes       *string       `json:"notes"`
	CreatedAt   *string       `json:"createdAt"`
}
