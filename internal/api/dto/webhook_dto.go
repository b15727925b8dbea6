package dto

import "encoding/json"

// GatewayWebhookRequest is the raw webhook body. Gateway builds disagree on
// field naming (Portuguese vs English, snake vs camel), so unmarshalling
// accepts every known alias; first non-empty wins in the order listed.
type GatewayWebhookRequest struct {
	GatewayMessageID string
	ChatID           string
	SenderName       string
	Type             string
	Content          string
	MediaURL         string
	FromMe           bool
}

type gatewayWebhookAliases struct {
	MessageID  string `json:"message_id"`
	ID         string `json:"id"`
	ChatID     string `json:"chat_id"`
	ChatIDAlt  string `json:"chatId"`
	From       string `json:"from"`
	Telefone   string `json:"telefone"`
	Phone      string `json:"phone"`
	SenderName string `json:"sender_name"`
	PushName   string `json:"pushName"`
	Nome       string `json:"nome"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Tipo       string `json:"tipo"`
	Content    string `json:"content"`
	Body       string `json:"body"`
	Mensagem   string `json:"mensagem"`
	Message    string `json:"message"`
	Text       string `json:"text"`
	MediaURL   string `json:"media_url"`
	MediaAlt   string `json:"mediaUrl"`
	URL        string `json:"url"`
	FromMe     bool   `json:"from_me"`
	FromMeAlt  bool   `json:"fromMe"`
}

// UnmarshalJSON folds the alias fields into the canonical ones.
func (r *GatewayWebhookRequest) UnmarshalJSON(data []byte) error {
	var raw gatewayWebhookAliases
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.GatewayMessageID = firstNonEmpty(raw.MessageID, raw.ID)
	r.ChatID = firstNonEmpty(raw.ChatID, raw.ChatIDAlt, raw.From, raw.Telefone, raw.Phone)
	r.SenderName = firstNonEmpty(raw.SenderName, raw.PushName, raw.Nome, raw.Name)
	r.Type = firstNonEmpty(raw.Type, raw.Tipo)
	r.Content = firstNonEmpty(raw.Content, raw.Body, raw.Mensagem, raw.Message, raw.Text)
	r.MediaURL = firstNonEmpty(raw.MediaURL, raw.MediaAlt, raw.URL)
	r.FromMe = raw.FromMe || raw.FromMeAlt
	return nil
}

// WebhookResponse acknowledges a gateway delivery.
type WebhookResponse struct {
	Status         string `json:"status"`
	SkipReason     string `json:"skip_reason,omitempty"`
	LeadID         string `json:"lead_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
