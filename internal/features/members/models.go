// Package members ведёт справочник участников: user ID ↔ @username и имя.
// Нужен для упоминаний в отчётах и для поиска цели админ-команд по @username.
// models.go описывает структуры данных.
package members

import (
	"strconv"
	"time"
)

// Member — участник, которого бот видел хотя бы раз.
type Member struct {
	UserID    int64     `json:"user_id"`    // Telegram user ID
	Username  string    `json:"username"`   // @username без @ (может быть пустым)
	FirstName string    `json:"first_name"` // Имя
	LastName  string    `json:"last_name"`  // Фамилия (может быть пустой)
	UpdatedAt time.Time `json:"updated_at"` // Последнее изменение имени/username
}

// Key — строковый ключ пользователя в журнале очков.
func (m *Member) Key() string {
	return strconv.FormatInt(m.UserID, 10)
}

// DisplayName возвращает имя + фамилию, а если их нет — @username.
func (m *Member) DisplayName() string {
	name := m.FirstName
	if m.LastName != "" {
		if name != "" {
			name += " "
		}
		name += m.LastName
	}
	if name != "" {
		return name
	}
	if m.Username != "" {
		return "@" + m.Username
	}
	return m.Key()
}

// Mention возвращает @username (Telegram подсветит его как упоминание),
// иначе — отображаемое имя.
func (m *Member) Mention() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	return m.DisplayName()
}

// sameInfo сообщает, совпадают ли имя и username.
func (m *Member) sameInfo(username, firstName, lastName string) bool {
	return m.Username == username && m.FirstName == firstName && m.LastName == lastName
}
