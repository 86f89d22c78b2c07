package api

import (
	"encoding/json"
	"time"
)

// Domain represents an entry of GET /domains.
type Domain struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	IsActive  bool      `json:"isActive"`
	IsPrivate bool      `json:"isPrivate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Account represents the account resource (POST /accounts, GET /me).
type Account struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	Quota      int64     `json:"quota"`
	Used       int64     `json:"used"`
	IsDisabled bool      `json:"isDisabled"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Credentials is the body of POST /accounts and POST /token.
type Credentials struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Token represents the POST /token response.
type Token struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Address is a mailbox in a message header.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// MessageSummary represents an entry of GET /messages.
type MessageSummary struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"accountId"`
	MsgID          string    `json:"msgid"`
	From           Address   `json:"from"`
	To             []Address `json:"to"`
	Subject        string    `json:"subject"`
	Intro          string    `json:"intro"`
	Seen           bool      `json:"seen"`
	IsDeleted      bool      `json:"isDeleted"`
	HasAttachments bool      `json:"hasAttachments"`
	Size           int64     `json:"size"`
	DownloadURL    string    `json:"downloadUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Message represents the GET /messages/{id} response.
type Message struct {
	MessageSummary
	CC            []Address       `json:"cc"`
	BCC           []Address       `json:"bcc"`
	Flagged       bool            `json:"flagged"`
	Verifications json.RawMessage `json:"verifications,omitempty"`
	Retention     bool            `json:"retention"`
	RetentionDate time.Time       `json:"retentionDate"`
	Text          string          `json:"text"`
	HTML          []string        `json:"html"`
	Attachments   []Attachment    `json:"attachments"`
}

// Attachment is a file attached to a message.
type Attachment struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	ContentType      string `json:"contentType"`
	Disposition      string `json:"disposition"`
	TransferEncoding string `json:"transferEncoding"`
	Related          bool   `json:"related"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"downloadUrl"`
}

// Source represents the GET /sources/{id} response.
type Source struct {
	ID          string `json:"id"`
	DownloadURL string `json:"downloadUrl"`
	Data        string `json:"data"`
}

type seenRequest struct {
	Seen bool `json:"seen"`
}
