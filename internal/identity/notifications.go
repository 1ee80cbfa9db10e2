package identity

import (
	"fmt"
	"html"
	"time"
)

const timeLayout = "Jan 2, 2006 at 15:04 MST"

func welcomeMessage(to, name string) Message {
	greeting := greet(name)
	return Message{
		To:      to,
		Subject: "Welcome! Please confirm your email",
		Text: fmt.Sprintf("%s,\n\nThanks for signing up. We sent you a confirmation code; "+
			"enter it to activate your account.\n", greeting),
		HTML: fmt.Sprintf("<p>%s,</p><p>Thanks for signing up. We sent you a confirmation code; "+
			"enter it to activate your account.</p>", html.EscapeString(greeting)),
	}
}

// signInMessage has no name to greet; the sign-in response carries tokens
// only, not user attributes.
func signInMessage(to string, at time.Time) Message {
	when := at.UTC().Format(timeLayout)
	return Message{
		To:      to,
		Subject: "New sign-in to your account",
		Text: fmt.Sprintf("Hello,\n\nYour account was signed in on %s. "+
			"If this wasn't you, reset your password.\n", when),
		HTML: fmt.Sprintf("<p>Hello,</p><p>Your account was signed in on %s. "+
			"If this wasn't you, reset your password.</p>", when),
	}
}

func loginMessage(to, name, provider string, at time.Time) Message {
	greeting := greet(name)
	when := at.UTC().Format(timeLayout)
	return Message{
		To:      to,
		Subject: "Login notification",
		Text:    fmt.Sprintf("%s,\n\nYou logged in with %s on %s.\n", greeting, provider, when),
		HTML: fmt.Sprintf("<p>%s,</p><p>You logged in with %s on %s.</p>",
			html.EscapeString(greeting), html.EscapeString(provider), when),
	}
}

func greet(name string) string {
	if name == "" {
		return "Hello"
	}
	return "Hello " + name
}
