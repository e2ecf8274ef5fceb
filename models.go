package main

import (
	"time"
)

const (
	RoleAdmin            = "Admin"
	RoleWarehouseManager = "Warehouse Manager"
	RoleVolunteer        = "Volunteer"
	RoleFieldCoordinator = "Field Coordinator"
)

var validRoles = map[string]bool{
	RoleAdmin:            true,
	RoleWarehouseManager: true,
	RoleVolunteer:        true,
	RoleFieldCoordinator: true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

const (
	AlertStatusSent    = "Sent"
	AlertStatusPending = "Pending"
	AlertStatusFailed  = "Failed"

	AlertTypeSMS       = "SMS"
	AlertTypeEmail     = "Email"
	AlertTypeBroadcast = "Broadcast"
)

const (
	ConditionNew     = "New"
	ConditionGood    = "Good"
	ConditionFair    = "Fair"
	ConditionDamaged = "Damaged"
)

// LowStockThreshold is the quantity below which a resource counts as low stock.
const LowStockThreshold = 100

// User is a registered account. Role is one of the Role* constants.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role" gorm:"type:varchar(32);index;not null"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Resource struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Name       string     `json:"name" gorm:"not null"`
	Quantity   int        `json:"quantity" gorm:"not null;default:0"`
	Unit       string     `json:"unit"`
	Location   string     `json:"location" gorm:"index"`
	Category   string     `json:"category" gorm:"index"`
	Condition  string     `json:"condition" gorm:"type:varchar(16)"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Alert is a logged message. Nothing is actually delivered over SMS or email.
type Alert struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"not null"`
	Message   string    `json:"message"`
	Status    string    `json:"status" gorm:"type:varchar(16)"`
	Timestamp time.Time `json:"timestamp" gorm:"index;not null"`
	Type      string    `json:"type" gorm:"type:varchar(16)"`
	Recipient string    `json:"recipient"`
	Sender    string    `json:"sender"`
}

type Team struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TeamName  string    `json:"team_name" gorm:"not null"`
	LeaderID  *uint     `json:"leader_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`

	Leader *User `json:"-" gorm:"foreignKey:LeaderID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TeamMember links a user to the one team they belong to.
type TeamMember struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	TeamID    uint      `json:"team_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Team *Team `json:"-" gorm:"foreignKey:TeamID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TeamView is the aggregated roster shown to a volunteer.
type TeamView struct {
	TeamID     uint     `json:"teamId"`
	TeamName   string   `json:"teamName"`
	LeaderName string   `json:"leaderName"`
	Members    []string `json:"members"`
}

type CategoryTotal struct {
	Category string `json:"category"`
	Quantity int64  `json:"quantity"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UserSummary is the public projection of a User.
type UserSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Location string `json:"location"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		Location: u.Location,
	}
}

type ResourceFilter struct {
	Location string
	Category string
}

// UserUpdate carries the mutable profile columns. Email, Role and Location
// are left unchanged when empty.
type UserUpdate struct {
	Name     string
	Email    string
	Phone    string
	Role     string
	Location string
}
