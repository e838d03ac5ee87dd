package models

import "time"

type SupportTicket struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:191;not null;index" json:"userId"`
	TicketNumber string    `gorm:"size:40;not null;uniqueIndex" json:"ticketNumber"`
	Subject      string    `gorm:"size:255;not null" json:"subject"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Status       string    `gorm:"size:20;not null;index" json:"status"`
	Priority     string    `gorm:"size:20;not null" json:"priority"`
	AssignedTo   *string   `gorm:"size:191" json:"assignedTo,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	User     *User                  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Messages []SupportTicketMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}

type SupportTicketMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"not null;index" json:"ticketId"`
	UserID    string    `gorm:"size:191;not null" json:"userId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsStaff   bool      `gorm:"not null" json:"isStaff"`
	CreatedAt time.Time `json:"createdAt"`
}

func (SupportTicketMessage) TableName() string {
	return "support_ticket_messages"
}
