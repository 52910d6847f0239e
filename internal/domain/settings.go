package domain

// CompanySettings is the per-tenant configuration snapshot consumed
// read-only by the routing engine.
type CompanySettings struct {
	CompanyID                 int64
	EnableLGPD                bool
	LGPDConsent               bool
	LGPDMessage               string
	LGPDLink                  string
	UserRating                bool
	SendTransferMessage       bool
	SendFarewellWaitingTicket bool
}
