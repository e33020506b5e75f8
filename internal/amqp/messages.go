package amqp

import (
	"encoding/json"
	"time"
)

// ActivationMail asks the mailer to send an account activation link.
type ActivationMail struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivationMail(userID int64, username, email, link string, expiresAt time.Time) *ActivationMail {
	return &ActivationMail{
		UserID:    userID,
		Username:  username,
		Email:     email,
		Link:      link,
		ExpiresAt: expiresAt,
		Timestamp: time.Now(),
	}
}

func (m *ActivationMail) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
