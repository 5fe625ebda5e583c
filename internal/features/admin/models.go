// Package admin — команды владельца: очки, стрики, взнос, игроки, состав подъёма.
// models.go описывает команды, цели и записи журнала действий.
package admin

import "time"

// Имена команд (без префикса).
const (
	CmdSetPoints      = "setpoints"
	CmdSetStreak      = "setstreak"
	CmdSetStake       = "setstake"
	CmdSetPlayers     = "setplayers"
	CmdSetPlayer      = "setplayer" // старое имя
	CmdSetWakePlayers = "setwakeplayers"
	CmdKnecht         = "knecht"
	CmdStake          = "stake"
)

// Ответы
const (
	DenialText        = "Эту команду может использовать только владелец. Он не будет ею злоупотреблять. Честно."
	MissingOptionText = "Не хватает параметров."
)

var usage = map[string]string{
	CmdSetPoints:      "/setpoints <@username|id или ответ> <очки>",
	CmdSetStreak:      "/setstreak <@username|id или ответ> <стрик>",
	CmdSetStake:       "/setstake <сумма, например 10,50>",
	CmdSetPlayers:     "/setplayers <количество>",
	CmdSetWakePlayers: "/setwakeplayers <@username|id ...>",
	CmdKnecht:         "/knecht <@username|id или ответ>",
}

// Target — пользователь, к которому применяется команда.
type Target struct {
	UserID      int64
	DisplayName string
	Mention     string
}

// Action — запись журнала админ-действий.
type Action struct {
	ID        int64     `db:"id"`
	ActorID   int64     `db:"actor_id"`
	Command   string    `db:"command"`
	TargetID  *int64    `db:"target_id"` // nil для команд без цели
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
}
