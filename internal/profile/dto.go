// AngelaMos | 2026
// dto.go

package profile

import (
	"time"
)

// DueDateLayout is the day/month/year form accepted for paymentDetails.dueDate.
const DueDateLayout = "02/01/2006"

type Address struct {
	Street       string `json:"street"       validate:"required,max=255"`
	Number       string `json:"number"       validate:"required,max=32"`
	Neighborhood string `json:"neighborhood" validate:"required,max=255"`
}

type PaymentDetails struct {
	DueDate      string `json:"dueDate"      validate:"omitempty,datetime=02/01/2006"`
	BillingEmail string `json:"billingEmail" validate:"omitempty,email,max=255"`
}

type CreateProfileRequest struct {
	UserID                 string         `json:"userId"                 validate:"required,uuid"`
	Name                   string         `json:"name"                   validate:"required,max=255"`
	CellPhone              string         `json:"cellPhone"              validate:"required,max=32"`
	PhotoURL               *string        `json:"photoUrl,omitempty"     validate:"omitempty,url"`
	IdentificationDocument string         `json:"identificationDocument" validate:"max=32"`
	Address                Address        `json:"address"`
	PaymentDetails         PaymentDetails `json:"paymentDetails"`
}

type AddressResponse struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
}

type PaymentDetailsResponse struct {
	DueDate      *string `json:"dueDate"`
	BillingEmail string  `json:"billingEmail"`
}

type ProfileResponse struct {
	ID                     string                 `json:"id"`
	TenantID               string                 `json:"tenantId"`
	UserID                 string                 `json:"userId"`
	Name                   string                 `json:"name"`
	CellPhone              string                 `json:"cellPhone"`
	PhotoURL               *string                `json:"photoUrl"`
	IdentificationDocument string                 `json:"identificationDocument"`
	Address                AddressResponse        `json:"address"`
	PaymentDetails         PaymentDetailsResponse `json:"paymentDetails"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

type PhotoResponse struct {
	Profile ProfileResponse `json:"profile"`
	URL     string          `json:"url"`
}

func ToProfileResponse(p *Profile) ProfileResponse {
	var due *string
	if p.DueDate != nil {
		s := p.DueDate.Format(time.DateOnly)
		due = &s
	}

	return ProfileResponse{
		ID:                     p.ID,
		TenantID:               p.TenantID,
		UserID:                 p.UserID,
		Name:                   p.Name,
		CellPhone:              p.CellPhone,
		PhotoURL:               p.PhotoURL,
		IdentificationDocument: p.IdentificationDocument,
		Address: AddressResponse{
			Street:       p.Street,
			Number:       p.Number,
			Neighborhood: p.Neighborhood,
		},
		PaymentDetails: PaymentDetailsResponse{
			DueDate:      due,
			BillingEmail: p.BillingEmail,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
