// Package delivery polls the service for newly delivered mail.
//
// mail.tm has no push channel, so waiting for a message means listing the
// inbox repeatedly. [Poll] runs a poll function until it reports done, fails,
// or the context ends. Between polls it sleeps for an interval that starts
// at [Config.InitialInterval] and grows by [Config.Multiplier] up to
// [Config.MaxInterval], without jitter.
//
// A failing poll ends the loop with that error. Poll never retries a
// failed request.
package delivery
