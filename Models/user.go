package Models

import "golang.org/x/crypto/bcrypt"

// Roles and the permission level each one grants
const (
	RoleReader     = "lecteur"
	RoleManager    = "gestionnaire"
	RoleAccountant = "comptable"
	RoleAdmin      = "admin"
)

var rolePermissions = map[string]int{
	RoleReader:     1,
	RoleManager:    2,
	RoleAccountant: 3,
	RoleAdmin:      4,
}

type User struct {
	Base
	Nom      string `json:"nom" gorm:"size:100;not null"`
	Email    string `json:"email" gorm:"size:150;not null;uniqueIndex"`
	Password []byte `json:"-"`
	Role     string `json:"role" gorm:"size:20;not null;default:lecteur"`
}

func (User) TableName() string {
	return "users"
}

// Permission maps the role to its level. Unknown roles get nothing.
func (u User) Permission() int {
	return rolePermissions[u.Role]
}

func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

func (u User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(plain)) == nil
}
