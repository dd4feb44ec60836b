package domain

import "strings"

const (
	DefaultVenmoUsername  = "@YourVenmoHandle"
	DefaultVenmoQRCodeURL = "https://via.placeholder.com/150?text=Venmo+QR"
)

// PaymentSettings holds the manual Venmo payment instructions shown at checkout.
type PaymentSettings struct {
	VenmoUsername  string `json:"venmoUsername" validate:"required,max=64"`
	VenmoQRCodeURL string `json:"venmoQrCodeUrl,omitempty" validate:"omitempty,url"`
}

func DefaultPaymentSettings() *PaymentSettings {
	return &PaymentSettings{
		VenmoUsername:  DefaultVenmoUsername,
		VenmoQRCodeURL: DefaultVenmoQRCodeURL,
	}
}

func (p *PaymentSettings) Validate() error {
	p.VenmoUsername = strings.TrimSpace(p.VenmoUsername)
	p.VenmoQRCodeURL = strings.TrimSpace(p.VenmoQRCodeURL)
	return validateStruct(p)
}

// VenmoProfileURL is the link encoded into the checkout QR code.
func (p *PaymentSettings) VenmoProfileURL() string {
	return "https://venmo.com/u/" + strings.TrimPrefix(p.VenmoUsername, "@")
}
