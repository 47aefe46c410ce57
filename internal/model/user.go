package model

// Role 用户角色（封闭枚举）
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// User 用户表，对应 users
// 员工 ManagerID 必填且指向经理；经理 ManagerID 为空。除 IsActive 外注册后不再修改
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	FullName     string  `gorm:"type:varchar(100);not null"                     json:"full_name"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         Role    `gorm:"type:varchar(20);not null"                      json:"role"`
	ManagerID    *string `gorm:"type:uuid"                                      json:"manager_id,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Manager *User `gorm:"foreignKey:ManagerID;references:UserID" json:"manager,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// ReportsTo 是否为指定经理的直属下属
func (u *User) ReportsTo(managerID string) bool {
	return u.Role == RoleEmployee && u.ManagerID != nil && *u.ManagerID == managerID
}
