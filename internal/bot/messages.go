package bot

import (
	"fmt"
	"time"

	"github.com/open-builders/secret-santa-bot/internal/config"
)

const (
	msgWelcome          = "Welcome! To sign up for Secret Santa, please enter your full name."
	msgAskName          = "Please enter your full name."
	msgAskGroup         = "Enter your group number:"
	msgRepeatGroup      = "Please enter your group number."
	msgAskRoom          = "Enter the dormitory room you live in:"
	msgRepeatRoom       = "Please enter your room number."
	msgAskWishes        = "Tell us what you would like to get as a gift:"
	msgAlreadyIn        = "You are already registered for Secret Santa."
	msgCancelled        = "Registration cancelled."
	msgNothingToCancel  = "There is no registration in progress."
	msgNotRegistered    = "You are not registered yet. Send /start to join."
	msgRegisterFailed   = "Registration failed, please try again later."
	msgProfileFailed    = "Could not load your profile, please try again later."
	msgUnknownCommand   = "Unknown command. Send /help for the list of commands."
	msgAdminOnly        = "Only the organizers can run the distribution."
	msgNoDistributor    = "Manual distribution is not available."
	msgRunInProgress    = "A distribution is already running."
	msgRunFailed        = "Distribution failed, see the logs for details."
	msgNotEnough        = "Not enough participants for a distribution."
	msgCallbackAnswered = "Button pressed"
)

const msgHelp = `Secret Santa bot commands:
/start - register for the gift exchange
/cancel - abort the registration
/me - show your registration and recipient
/help - show this message
/distribute_now - run the draw now (organizers)`

func registeredMessage(date time.Time, hasDate bool) string {
	when := "You will get a message once the draw takes place."
	if hasDate {
		when = fmt.Sprintf("The draw will take place on %s.", config.HumanDate(date))
	}
	return "You are registered for Secret Santa.\n" + when +
		"\n\nIf you have any questions, contact the organizers."
}

func distributedMessage(pairs int, fallback bool) string {
	msg := fmt.Sprintf("Distribution completed: %d pairs.", pairs)
	if fallback {
		msg += " A rotation was used because no random draw was found."
	}
	return msg
}

func callbackEcho(data string) string {
	return "Button pressed: " + data
}
