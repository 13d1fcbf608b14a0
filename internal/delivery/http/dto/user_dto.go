package dto

import "pilgrimtrader/internal/domain"

// UserOutput represents user details in API responses
type UserOutput struct {
	ID            string  `json:"id"`
	AccountNumber string  `json:"account_number"`
	SerialNumber  string  `json:"serial_number"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Role          string  `json:"role"`
	Balance       float64 `json:"balance"`
	Profit        float64 `json:"profit"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

// NewUserOutput maps a domain user to its API representation
func NewUserOutput(u *domain.User) *UserOutput {
	return &UserOutput{
		ID:            u.ID.String(),
		AccountNumber: u.AccountNumber,
		SerialNumber:  u.SerialNumber,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		Balance:       u.Balance,
		Profit:        u.Profit,
		Status:        u.Status,
		CreatedAt:     u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// NewUserOutputs maps a slice of domain users
func NewUserOutputs(users []*domain.User) []*UserOutput {
	out := make([]*UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserOutput(u))
	}
	return out
}
