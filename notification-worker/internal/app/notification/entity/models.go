package entity

import "time"

// Типы событий, публикуемых storefront-service
const (
	EventOrderPaid      = "ORDER_PAID"
	EventOrderDelivered = "ORDER_DELIVERED"
	EventContactReply   = "CONTACT_REPLY"
)

// NotificationEvent - сообщение из топика storefront_events
type NotificationEvent struct {
	EventType    string                 `json:"event_type"`
	AggregateID  string                 `json:"aggregate_id"`
	Recipient    string                 `json:"recipient"`
	Subject      string                 `json:"subject"`
	TemplateData map[string]interface{} `json:"template_data"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Email - письмо на основе динамического шаблона провайдера
type Email struct {
	To           string
	Subject      string
	TemplateID   string
	TemplateData map[string]interface{}
}
