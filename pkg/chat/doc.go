// Package chat assembles the conversation graph used for every user turn:
//
//	respond -> analyze -> __end__
//
// respond asks a ports.Completer for the assistant reply; analyze stamps
// the turn's metadata (timestamp and user-turn count).
package chat
