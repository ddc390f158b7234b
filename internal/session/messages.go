// internal/session/messages.go
//
// Chat message templates produced by the session engine. The engine returns
// these as notification instructions; it never talks to the transport itself.

package session

const (
	msgWordPrompt      = "Great! Now, %s, think of a word of %d to %d letters."
	msgWaitForWord     = "Player %s is choosing a word. Please wait."
	msgWordSet         = "The word is set!"
	msgGuessPrompt     = "%s has set a %d-letter word in %s. Try to guess it!"
	msgAttempt         = "Attempt %d (of %d):\n`%s` | `%s`"
	msgTryAgain        = "Try again. Attempts left: %d"
	msgGuesserWin      = "🎉 Congratulations! You guessed the word! 🎉"
	msgSetterWin       = "Player %s guessed your word!"
	msgOutOfAttempts   = "Out of attempts. You could not guess the word '%s'."
	msgSetterLoss      = "Player %s could not guess your word in %d attempts."
	msgAttemptAdded    = "You have added one extra attempt for the guessing player."
	msgAttemptGiven    = "The word setter has added one extra attempt for you."
	msgCancelled       = "Game cancelled."
	msgCancelledByPeer = "Player %s cancelled the game."
)
