package models

import "time"

// InquiryKind identifies which public form produced an inquiry
type InquiryKind string

const (
	InquiryContact InquiryKind = "contact"
	InquiryDemo    InquiryKind = "demo"
	InquiryService InquiryKind = "service"
)

type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "new"
	InquiryStatusContacted InquiryStatus = "contacted"
	InquiryStatusClosed    InquiryStatus = "closed"
)

// Inquiry is a contact message, demo request or service booking
type Inquiry struct {
	ID            string        `gorm:"primaryKey;type:text" json:"id"`
	Kind          InquiryKind   `gorm:"index;not null" json:"kind"`
	Status        InquiryStatus `gorm:"index;not null;default:new" json:"status"`
	Name          string        `gorm:"not null" json:"name"`
	Email         string        `gorm:"not null" json:"email"`
	Phone         string        `json:"phone"`
	Company       string        `json:"company,omitempty"`
	Subject       string        `json:"subject,omitempty"`
	Service       string        `json:"service,omitempty"`
	PropertyID    string        `gorm:"index" json:"property_id,omitempty"`
	PreferredDate *time.Time    `json:"preferred_date,omitempty"`
	Message       string        `json:"message"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ContactRequest is the body of POST /api/contact
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,max=40"`
	Subject string `json:"subject" binding:"omitempty,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// DemoBookingRequest is the body of POST /api/demo-bookings
type DemoBookingRequest struct {
	Name          string     `json:"name" binding:"required,max=120"`
	Email         string     `json:"email" binding:"required,email"`
	Phone         string     `json:"phone" binding:"omitempty,max=40"`
	Company       string     `json:"company" binding:"omitempty,max=200"`
	Service       string     `json:"service" binding:"required,max=120"`
	PreferredDate *time.Time `json:"preferred_date"`
	Message       string     `json:"message" binding:"omitempty,max=5000"`
}

// ServiceBookingRequest is the body of POST /api/service-bookings
type ServiceBookingRequest struct {
	Name          string     `json:"name" binding:"required,max=120"`
	Email         string     `json:"email" binding:"required,email"`
	Phone         string     `json:"phone" binding:"required,max=40"`
	Service       string     `json:"service" binding:"required,max=120"`
	PropertyID    string     `json:"property_id" binding:"omitempty,max=64"`
	PreferredDate *time.Time `json:"preferred_date" binding:"required"`
	Message       string     `json:"message" binding:"omitempty,max=5000"`
}

type InquiryStatusRequest struct {
	Status InquiryStatus `json:"status" binding:"required,oneof=new contacted closed"`
}
