package models

import (
	"time"

	"seragon/internal/domain"
)

// User is keyed by "<provider>:<subject>" so ids from different identity providers never collide.
type User struct {
	ID                string    `gorm:"primaryKey;size:191" json:"id"`
	Email             *string   `gorm:"uniqueIndex;size:255" json:"email"`
	FirstName         string    `gorm:"size:255" json:"firstName"`
	LastName          string    `gorm:"size:255" json:"lastName"`
	ProfileImageURL   string    `gorm:"size:512" json:"profileImageUrl"`
	Role              string    `gorm:"size:20;not null;default:'customer';index" json:"role"`
	PasswordHash      string    `gorm:"size:255" json:"-"`
	PaymentCustomerID *string   `gorm:"size:255" json:"paymentCustomerId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

// EmailAddress returns the email or "" when the provider did not share one.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
