package model

// AdminAccountID is the fixed primary key of the singleton admin row. Every
// insert uses it, so a second bootstrap attempt fails at the database
// instead of adding a row.
const AdminAccountID = 1

// AdminAccount is the singleton admin identity. At most one row ever exists;
// it is created by the first successful login (bootstrap) and never
// overwritten afterwards.
type AdminAccount struct {
	ID           uint   `gorm:"primaryKey;autoIncrement:false"`
	Username     string `gorm:"size:128;not null"`
	PasswordHash string `gorm:"size:64;not null"` // hex sha256(salt + password)
	Salt         string `gorm:"size:32;not null"`
}

func (AdminAccount) TableName() string { return "admin" }

// Session is an opaque admin authentication token.
type Session struct {
	Token     string `gorm:"primaryKey;size:64"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

func (Session) TableName() string { return "sessions" }
