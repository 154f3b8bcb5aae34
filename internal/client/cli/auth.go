package cli

import (
	"context"
	"fmt"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, email and password and creates a new
// account. Registration issues no token, so the user stays logged out and
// is pointed at the login command.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.manager.Signup(ctx, username, email, password)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Account %s created. Use 'login' to sign in.", user.Username))
	return nil
}

// Login prompts for credentials and authenticates through the session
// manager. On success the session is already durable by the time the
// welcome line is printed.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.manager.Login(ctx, username, password)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Welcome, %s!", user.Username))
	return nil
}

// Logout ends the session. Always succeeds locally.
func (a *App) Logout(ctx context.Context) error {
	if err := a.manager.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out.")
	return nil
}

// Whoami prints the cached user of the current session.
func (a *App) Whoami(ctx context.Context) error {
	user := a.manager.User()
	if user == nil {
		printlnFn("Not logged in.")
		return nil
	}
	printlnFn(fmt.Sprintf("%s <%s>", user.Username, user.Email))
	return nil
}
