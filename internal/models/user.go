// Package models содержит доменные сущности CRM-сервиса.
package models

// Role — роль пользователя в системе.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid сообщает, входит ли роль в допустимый набор.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User — запись пользователя в MongoDB (коллекция users).
// Важно:
//   - ID — ObjectID MongoDB; наружу отдаётся hex-строкой.
//   - Email уникален, хранится в нижнем регистре и служит subject токенов.
//   - PasswordHash никогда не попадает в ответы: наружу только Profile.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	JobTitle     *string
	Company      *string
	Department   *string
	PasswordHash string
	Role         Role
}

// Profile — публичная проекция User без секретных полей.
type Profile struct {
	ID         string  `json:"_id"`
	FirstName  string  `json:"firstname"`
	LastName   string  `json:"lastname"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone"`
	JobTitle   *string `json:"job_title"`
	Company    *string `json:"company"`
	Department *string `json:"department"`
	Role       Role    `json:"role"`
}

// ProfileFromUser строит публичную проекцию записи пользователя.
func ProfileFromUser(u *User) *Profile {
	if u == nil {
		return nil
	}

	return &Profile{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Phone:      u.Phone,
		JobTitle:   u.JobTitle,
		Company:    u.Company,
		Department: u.Department,
		Role:       u.Role,
	}
}

// ProfileUpdate — частичное обновление профиля.
// nil-поле означает «не менять». Идентификатор и email сюда не входят.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Phone      *string
	JobTitle   *string
	Company    *string
	Department *string
}

// Empty сообщает, что обновление не затрагивает ни одного поля.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil &&
		u.JobTitle == nil && u.Company == nil && u.Department == nil
}

// NewUser — входные данные для административного создания пользователя.
type NewUser struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      *string
	JobTitle   *string
	Company    *string
	Department *string
	Password   string
	Role       Role
}
