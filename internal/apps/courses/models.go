package courses

const EntityName = "course"

// Address is owned by exactly one course and is saved and deleted with it.
type Address struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Line1   string `gorm:"column:line_1;size:128;not null" json:"line1" validate:"required,min=3,max=128"`
	Line2   string `gorm:"column:line_2;size:255" json:"line2" validate:"max=255"`
	City    string `gorm:"size:255;not null" json:"city" validate:"required,max=255"`
	State   string `gorm:"size:255;not null" json:"state" validate:"required,max=255"`
	Zip     string `gorm:"size:255;not null" json:"zip" validate:"required,max=255"`
	Country string `gorm:"size:255;not null" json:"country" validate:"required,max=255"`
}

type Course struct {
	ID          int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string   `gorm:"size:128;not null" json:"name" validate:"required,min=3,max=128"`
	Description string   `gorm:"size:1024" json:"description" validate:"max=1024"`
	AddressID   int64    `gorm:"not null;uniqueIndex" json:"-"`
	Address     *Address `gorm:"constraint:OnDelete:CASCADE" json:"address" validate:"required"`
}
