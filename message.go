package mailtm

import "github.com/mailtm/client-go/internal/api"

// Address is a mailbox in a message header.
type Address = api.Address

// MessageSummary is an entry of the message list.
type MessageSummary = api.MessageSummary

// Message is a fully fetched message, including its bodies and attachments.
type Message = api.Message

// Attachment describes a file attached to a message.
type Attachment = api.Attachment

// Source is the raw RFC 822 source of a message.
type Source = api.Source
