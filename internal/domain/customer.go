package domain

type CustomerProfile struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// ProfileUpdate — частичное обновление профиля, nil-поля не меняются.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type Address struct {
	ID        string  `json:"id"`
	Label     string  `json:"label,omitempty"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Street    string  `json:"street"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Zip       string  `json:"zip"`
	Country   string  `json:"country"`
	Phone     *string `json:"phone,omitempty"`
	IsDefault bool    `json:"isDefault"`
}

// AddressInput — тело создания и изменения адреса.
type AddressInput struct {
	Label     string  `json:"label,omitempty"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Street    string  `json:"street"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Zip       string  `json:"zip"`
	Country   string  `json:"country"`
	Phone     *string `json:"phone,omitempty"`
	IsDefault bool    `json:"isDefault"`
}
