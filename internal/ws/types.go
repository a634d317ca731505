package ws

const (
	// client - server
	MsgTap  = "tap"
	MsgPing = "ping"

	// server - client
	MsgState      = "state"
	MsgTapResult  = "tap_result"
	MsgTransferIn = "transfer_in"
	MsgPong       = "pong"
	MsgError      = "error"
)
