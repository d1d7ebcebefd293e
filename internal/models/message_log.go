package models

import "time"

const (
	KindSMS = "sms"
	KindMMS = "mms"

	StatusSent   = "sent"
	StatusFailed = "failed"
)

type MessageRecord struct {
	Id        string    `json:"id"`
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *MessageRecord) ToTuple() []any {
	return []any{
		r.Id,
		r.Kind,
		r.Recipient,
		nullable(r.Subject),
		nullable(r.MimeType),
		r.Status,
		nullable(r.Error),
		nullable(r.Response),
		r.CreatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type DeliveryStatistics struct {
	Total       int            `json:"total"`
	ByKind      map[string]int `json:"by_kind"`
	ByStatus    map[string]int `json:"by_status"`
	ByRecipient map[string]int `json:"by_recipient"`
	SuccessRate float64        `json:"success_rate"`
	LastSent    *time.Time     `json:"last_sent,omitempty"`
}

type MessagesResponse struct {
	Messages   []MessageRecord     `json:"messages"`
	Statistics *DeliveryStatistics `json:"statistics"`
}
