package model

// UserContact is the delivery information for a user's notifications.
type UserContact struct {
	UserID         string
	Email          string
	Name           string
	TelegramChatID int64
}

func (u *UserContact) IsZero() bool { return u == nil || u.UserID == "" }
