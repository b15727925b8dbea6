package domain

import "time"

// FunnelStage enumerates pipeline positions for a lead.
type FunnelStage string

const (
	FunnelStageNew         FunnelStage = "NEW"
	FunnelStageContacted   FunnelStage = "CONTACTED"
	FunnelStageQualified   FunnelStage = "QUALIFIED"
	FunnelStageProposal    FunnelStage = "PROPOSAL"
	FunnelStageNegotiation FunnelStage = "NEGOTIATION"
	FunnelStageWon         FunnelStage = "WON"
	FunnelStageLost        FunnelStage = "LOST"
)

// LeadTemperature classifies lead engagement.
type LeadTemperature string

const (
	LeadTemperatureCold LeadTemperature = "COLD"
	LeadTemperatureWarm LeadTemperature = "WARM"
	LeadTemperatureHot  LeadTemperature = "HOT"
)

// Lead is the CRM contact aggregate, identified by a phone number.
// Phone holds the local number (digits only); CountryCode the calling code.
type Lead struct {
	ID            string
	TenantID      string
	Phone         string
	CountryCode   string
	Name          string
	WhatsappName  string
	Email         *string
	FunnelStage   FunnelStage
	Temperature   LeadTemperature
	Labels        []string
	AssignedTo    *string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastContactAt *time.Time
}

// FullPhone returns the dialable number with the country code prepended.
func (l *Lead) FullPhone() string {
	return l.CountryCode + l.Phone
}
