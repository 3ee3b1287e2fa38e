package models

import "time"

type BrokerModel struct {
	ID                 int64       `gorm:"primaryKey;column:id"`
	Username           string      `gorm:"column:username;type:varchar(256);not null"`
	NormalizedUsername string      `gorm:"column:normalized_username;type:varchar(256);not null;uniqueIndex"`
	PasswordHash       []byte      `gorm:"column:password_hash;not null"`
	Roles              []RoleModel `gorm:"many2many:broker_roles;joinForeignKey:BrokerID;joinReferences:RoleID"`
	CreatedAt          time.Time   `gorm:"column:created_at;type:timestamp;default:CURRENT_TIMESTAMP"`
}

func (BrokerModel) TableName() string {
	return "brokers"
}

type RoleModel struct {
	ID   int64  `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name;type:varchar(64);not null;uniqueIndex"`
}

func (RoleModel) TableName() string {
	return "roles"
}

func (b BrokerModel) RoleNames() []string {
	names := make([]string, 0, len(b.Roles))
	for _, role := range b.Roles {
		names = append(names, role.Name)
	}
	return names
}
