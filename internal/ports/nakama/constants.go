package nakama

const (
	// RpcIdFindTable is the Nakama RPC id clients call to find or create a
	// table with open seats.
	RpcIdFindTable = "find_table"

	// RpcIdCreateTable creates a fresh table for an explicit variant.
	RpcIdCreateTable = "create_table"

	// RpcIdRejoinTable resolves a rejoin token back to the table id it was
	// issued for.
	RpcIdRejoinTable = "rejoin_table"

	// MatchNameTrickTable is the authoritative match handler name registered
	// with Nakama.
	MatchNameTrickTable = "tricktable_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame      int64 = 1
	OpDispatchAction int64 = 2

	// Server -> Client events
	OpTableState    int64 = 100
	OpPlayerJoined  int64 = 101
	OpPlayerLeft    int64 = 102
	OpRoundStarted  int64 = 103
	OpHandDealt     int64 = 104 // sent privately
	OpBidPlaced     int64 = 105
	OpBidRevealed   int64 = 106
	OpDeclared      int64 = 107
	OpCardsPassed   int64 = 108
	OpCardPlayed    int64 = 109
	OpTrickResolved int64 = 110
	OpRoundScored   int64 = 111
	OpPhaseChanged  int64 = 112
	OpGameEnded     int64 = 113
	OpGameError     int64 = 120
)
