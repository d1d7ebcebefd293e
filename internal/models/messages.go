package models

// SMSRequest is the body of POST /messages/sms.
type SMSRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type MMSContent struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Payload  string `json:"payload"`
}

// MMSRequest is the body of POST /messages/mms. Subject is left out of the
// encoded body when empty.
type MMSRequest struct {
	To         string       `json:"to"`
	MMSContent []MMSContent `json:"MMSContent"`
	Subject    string       `json:"subject,omitempty"`
}

// ProvisioningResult is the decoded provisioning response. Nothing in it is
// needed by later calls.
type ProvisioningResult map[string]any
