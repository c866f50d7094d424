package domain

import "time"

// Role of a member account
type Role string

const (
	RoleMember Role = "MEMBER" // Regular cooperative member
	RoleAdmin  Role = "ADMIN"  // Cooperative administrator
	RoleVendor Role = "VENDOR" // Group-buy vendor
)

// KycStatus of a member's identity verification
type KycStatus string

const (
	KycPending  KycStatus = "PENDING"
	KycVerified KycStatus = "VERIFIED"
	KycFailed   KycStatus = "FAILED"
)

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                       // Primary key
	Email        string    `gorm:"size:191;uniqueIndex;not null" json:"email"` // Unique login email
	PhoneNumber  string    `gorm:"size:32" json:"phone_number"`                // Phone number for SMS
	FullName     string    `gorm:"size:191" json:"full_name"`                  // Display name
	PasswordHash string    `gorm:"not null" json:"-"`                          // Hashed password
	Bvn          *string   `gorm:"size:11;uniqueIndex" json:"bvn,omitempty"`   // Verified BVN, unique when set
	KycStatus    KycStatus `gorm:"size:16;default:PENDING" json:"kyc_status"`  // Identity verification state
	MembershipID string    `gorm:"size:32" json:"membership_id,omitempty"`     // Cooperative membership number
	Role         Role      `gorm:"size:16;default:MEMBER" json:"role"`         // Role: MEMBER, ADMIN or VENDOR
	Wallet       *Wallet   `gorm:"foreignKey:UserID" json:"wallet,omitempty"`  // One-to-one relationship with Wallet
	CreatedAt    time.Time `json:"created_at"`
}
