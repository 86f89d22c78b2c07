// Package mailtm provides a Go client for mail.tm, a disposable email
// service with a public REST API.
//
// The client holds one persistent HTTP session against the service and,
// after Login, a bearer token that is attached to every following request.
//
// Basic usage:
//
//	client, err := mailtm.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Register a random address on the first available domain
//	account, password, err := client.GenerateRandomAccount(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := client.Login(ctx, account.Address, password); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Wait for a message
//	msg, err := client.WaitForMessage(ctx, mailtm.WithSubject("Welcome"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Subject:", msg.Subject)
//
// Requests are never retried: any non-2xx response is returned as an
// *APIError that matches the sentinel errors of this package with errors.Is.
package mailtm
