// internal/dispatcher/messages.go
//
// Chat copy owned by the dispatcher: prompts for the conversation stages and
// the rejection texts mapped from engine errors.

package dispatcher

const (
	msgStart = "Hi! This is a two-player Wordle-style game.\n" +
		"Use /new_game to start a new game."
	msgNewGame     = "Send the name of the player you want to play with."
	msgNewGameLast = "Send the name of the player you want to play with.\n" +
		"Your last partner was %s — send their name again to rematch."
	msgPartnerUnknown   = "Player %s has not talked to the gateway yet. Ask them to register and send /start first."
	msgPartnerBusy      = "You already have a game with player %s. Cancel it before inviting them again."
	msgDuplicateGame    = "You already have an active game with this player. Cancel it first."
	msgNoActiveGame     = "You have no active games. Start one with /new_game."
	msgInvalidWord      = "The word must be %d to %d letters long and contain only letters. Try again."
	msgMixedAlphabet    = "The word must use only Russian or only English letters. Try again."
	msgInvalidGuess     = "Your guess must match the length of the secret word and contain only letters."
	msgAlphabetMismatch = "Please use letters from the same alphabet as the secret word."
	msgSayPrompt        = "Type the message you want to send:"
	msgSayNoGame        = "You can use /say only while a game is in progress."
	msgSayRelay         = "_%s_: %s"
	msgNoAttemptToAdd   = "You have no active game to add an attempt to."
	msgUnknownCommand   = "Unknown command. Available: /start, /new_game, /cancel, /say, /addtry."
	msgInternalError    = "Something went wrong. Please try starting a new game."
)
