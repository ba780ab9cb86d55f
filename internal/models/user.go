package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"

	SystemAccount    = "system"
	AnonymousAccount = "anonymoususer"

	DefaultLanguage = "en"
)

// Authority is a named role granted to users.
type Authority struct {
	Name string `gorm:"primaryKey;size:50" json:"name"`
}

// User is an account. Login and email are always stored lower-cased.
type User struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Login         string      `gorm:"size:50;not null;uniqueIndex:idx_users_login" json:"login"`
	PasswordHash  string      `gorm:"column:password_hash;size:60;not null" json:"-"`
	FirstName     string      `gorm:"size:50" json:"first_name"`
	LastName      string      `gorm:"size:50" json:"last_name"`
	Email         string      `gorm:"size:254;not null;uniqueIndex:idx_users_email" json:"email"`
	ImageURL      string      `gorm:"size:256" json:"image_url"`
	Activated     bool        `gorm:"not null;default:false;index" json:"activated"`
	LangKey       string      `gorm:"size:10" json:"lang_key"`
	ActivationKey *string     `gorm:"size:20;index" json:"-"`
	ResetKey      *string     `gorm:"size:20;index" json:"-"`
	ResetDate     *time.Time  `json:"reset_date,omitempty"`
	Authorities   []Authority `gorm:"many2many:user_authorities;joinForeignKey:UserID;joinReferences:AuthorityName" json:"authorities"`

	CreatedBy      string    `gorm:"size:50;not null" json:"created_by"`
	CreatedAt      time.Time `gorm:"index" json:"created_date"`
	LastModifiedBy string    `gorm:"size:50" json:"last_modified_by"`
	UpdatedAt      time.Time `json:"last_modified_date"`
}

// AuthorityNames returns the role names granted to the user.
func (u *User) AuthorityNames() []string {
	names := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		names = append(names, a.Name)
	}
	return names
}

// HasAuthority reports whether the user holds the named role.
func (u *User) HasAuthority(name string) bool {
	for _, a := range u.Authorities {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.normalize()
	auditor := AuditorFrom(tx.Statement.Context)
	if u.CreatedBy == "" {
		u.CreatedBy = auditor
	}
	u.LastModifiedBy = auditor
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.normalize()
	u.LastModifiedBy = AuditorFrom(tx.Statement.Context)
	return nil
}

func (u *User) normalize() {
	u.Login = strings.ToLower(u.Login)
	u.Email = strings.ToLower(u.Email)
}
