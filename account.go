package mailtm

import "github.com/mailtm/client-go/internal/api"

// Domain is a domain on which addresses can be registered.
type Domain = api.Domain

// Account is a registered mail.tm address. The service never returns the
// password.
type Account = api.Account

// Token is the bearer credential returned by Login together with the id of
// the account it belongs to.
type Token = api.Token
