package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"tricktable/internal/bot"
	"tricktable/internal/config"
	"tricktable/internal/domain"
	"tricktable/internal/engine"
	"tricktable/internal/ports"
	"tricktable/internal/session"
	"tricktable/internal/store"
	"tricktable/internal/variant"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	// MatchLabelKey_OpenSeats is the label key used by the find-table query.
	MatchLabelKey_OpenSeats = "open"

	rejoinTokenTTL = 2 * time.Hour
)

// Label is the JSON match label indexed by Nakama for match listing.
type Label struct {
	Open    int    `json:"open"`
	Variant string `json:"variant"`
	State   string `json:"state"` // "lobby" or "playing"
}

// MatchState holds the authoritative runtime state for one table.
type MatchState struct {
	VariantID string   `json:"variant_id"`
	Seats     []string `json:"seats"` // user ids, "" means the seat is empty
	OwnerSeat int      `json:"owner_seat"`
	Tick      int64    `json:"tick"`

	Presences map[string]runtime.Presence `json:"-"`
	Variant   variant.GameVariant         `json:"-"`
	Session   *engine.Session             `json:"-"` // nil while in the lobby
	Bots      map[string]*bot.Agent       `json:"-"`
	Store     ports.SnapshotStore         `json:"-"`
	Tokens    *session.TokenService       `json:"-"`
	Rng       *rand.Rand                  `json:"-"`

	BotsEnabled      bool  `json:"bots_enabled"`
	BotMinDelay      int   `json:"bot_min_delay"`
	BotMaxDelay      int   `json:"bot_max_delay"`
	BotAutoFillDelay int   `json:"bot_auto_fill_delay"`
	BotWaitUntil     int64 `json:"bot_wait_until"`
	// BotGeneration is the session generation captured when the bot delay was
	// armed. A deal resets the generation, so a stale deferred turn is
	// dropped instead of acting on the new round.
	BotGeneration        uint64 `json:"bot_generation"`
	LastSinglePlayerTick int64  `json:"last_single_player_tick"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1
// if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing table handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadTableConfig("data/table_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load table config: %v", err)
	}
	cfg := config.GetTableConfig()

	variantID := cfg.DefaultVariant
	if val, ok := params["variant"].(string); ok && val != "" {
		variantID = val
	}
	v, err := variant.New(variantID)
	if err != nil {
		logger.Error("MatchInit: Unknown variant %q: %v", variantID, err)
		return nil, 0, ""
	}

	state := &MatchState{
		VariantID:        variantID,
		Seats:            make([]string, v.MaxPlayers()),
		OwnerSeat:        -1,
		Presences:        make(map[string]runtime.Presence),
		Variant:          v,
		Bots:             make(map[string]*bot.Agent),
		Tokens:           session.NewTokenService(cfg.RejoinTokenSecret),
		Rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		BotsEnabled:      cfg.BotsEnabled,
		BotMinDelay:      cfg.BotMinDelaySeconds,
		BotMaxDelay:      cfg.BotMaxDelaySeconds,
		BotAutoFillDelay: cfg.BotAutoFillDelaySeconds,
	}

	// Environment variables override the file config.
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["tricktable_bots_enabled"]; ok {
			state.BotsEnabled = val == "true"
		}
		if val, ok := env["tricktable_bot_min_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.BotMinDelay = i
			}
		}
		if val, ok := env["tricktable_bot_max_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.BotMaxDelay = i
			}
		}
		if val, ok := env["tricktable_bot_auto_fill_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.BotAutoFillDelay = i
			}
		}
	}

	if cfg.SnapshotDBPath != "" {
		st, err := store.Open(cfg.SnapshotDBPath)
		if err != nil {
			logger.Warn("MatchInit: Snapshot store unavailable: %v", err)
		} else {
			state.Store = st
		}
	}

	labelBytes, err := json.Marshal(Label{
		Open:    state.GetOpenSeatsCount(),
		Variant: variantID,
		State:   "lobby",
	})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Seated players may always reconnect.
	for _, seat := range matchState.Seats {
		if seat == presence.GetUserId() {
			return state, true, ""
		}
	}

	// A valid rejoin token also readmits its holder mid-game, but only into
	// the table it was issued for.
	if token := metadata["rejoin_token"]; token != "" {
		tableID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		claims, err := matchState.Tokens.VerifyRejoinToken(token)
		switch {
		case err != nil:
			logger.Warn("MatchJoinAttempt: Rejected rejoin token from %s: %v", presence.GetUserId(), err)
		case claims.PlayerID != presence.GetUserId():
			logger.Warn("MatchJoinAttempt: Rejoin token from %s names another player.", presence.GetUserId())
		case claims.TableID != tableID:
			logger.Warn("MatchJoinAttempt: Rejoin token from %s was issued for table %s.", presence.GetUserId(), claims.TableID)
		default:
			return state, true, ""
		}
	}

	if matchState.Session != nil {
		return state, false, "match in progress"
	}
	if matchState.GetOpenSeatsCount() <= 0 {
		// A bot can yield its seat while the table is still in the lobby.
		for _, seat := range matchState.Seats {
			if isBotUserId(seat) {
				return state, true, ""
			}
		}
		return state, false, "match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		matchState.Presences[uid] = p

		if seat := seatOf(matchState.Seats, uid); seat >= 0 {
			logger.Debug("MatchJoin: User %s reconnected to seat %d.", uid, seat)
			mh.sendPrivateState(ctx, matchState, dispatcher, logger, uid)
			continue
		}

		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = uid
				assigned = true
				break
			}
		}
		if !assigned && matchState.Session == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, uid, i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = uid
					assigned = true
					break
				}
			}
		}
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", uid)
			continue
		}

		payload, _ := json.Marshal(map[string]any{"user_id": uid, "seat": seatOf(matchState.Seats, uid)})
		dispatcher.BroadcastMessage(OpPlayerJoined, payload, nil, nil, true)
	}

	if !isHumanSeat(matchState.Seats, matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastTableState(ctx, matchState, dispatcher, logger)
	return matchState
}

// MatchLeave frees lobby seats; mid-game seats are held for rejoin.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		delete(matchState.Presences, uid)

		if matchState.Session == nil {
			for i, seatUserId := range matchState.Seats {
				if seatUserId == uid {
					matchState.Seats[i] = ""
					logger.Debug("MatchLeave: User %s left, seat %d freed.", uid, i)
					break
				}
			}
		}

		payload, _ := json.Marshal(map[string]any{"user_id": uid})
		dispatcher.BroadcastMessage(OpPlayerLeft, payload, nil, nil, true)
	}

	if !isHumanSeat(matchState.Seats, matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats)
	}

	if matchState.Session == nil && shouldTerminateNoHumans(matchState.Seats) {
		logger.Info("MatchLeave: Terminating table with no humans.")
		return nil
	}
	if matchState.Session != nil && len(matchState.Presences) == 0 && matchState.GetHumanPlayerCount() > 0 {
		// All humans dropped mid-game; keep the table alive for rejoin, the
		// snapshot store has the state either way.
		logger.Info("MatchLeave: Table empty mid-game, holding seats for rejoin.")
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpDispatchAction:
			mh.handleDispatchAction(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}
	return matchState
}

// handleStartGame creates the engine session once the owner is ready. Open
// seats are filled with bots when enabled.
func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if seatOf(state.Seats, senderID) != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start but is not owner.", senderID)
		mh.sendError(state, dispatcher, logger, senderID, domain.NewGameStateError("only the table owner can start the game"))
		return
	}
	if state.Session != nil {
		mh.sendError(state, dispatcher, logger, senderID, domain.NewGameStateError("game already running"))
		return
	}

	if state.GetOpenSeatsCount() > 0 {
		if !state.BotsEnabled {
			mh.sendError(state, dispatcher, logger, senderID, domain.NewGameStateError(
				"need %d players", len(state.Seats)))
			return
		}
		mh.fillWithBots(state, logger)
	}

	seats := make([]variant.PlayerSeat, 0, len(state.Seats))
	for _, uid := range state.Seats {
		name := uid
		if p, exists := state.Presences[uid]; exists {
			name = p.GetUsername()
		} else if identity, ok := bot.GetBotConfig(uid); ok && identity.DisplayName != "" {
			name = identity.DisplayName
		}
		seats = append(seats, variant.PlayerSeat{ID: uid, Name: name})
	}

	sess, err := engine.NewSession(state.Variant, seats, state.Rng)
	if err != nil {
		logger.Error("StartGame: Failed to create session: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, domain.NewUnknownError("could not start game: %v", err))
		return
	}
	state.Session = sess

	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastTableState(ctx, state, dispatcher, logger)
	mh.sendRejoinTokens(ctx, state, dispatcher, logger)
	logger.Info("StartGame: %s session started with %d seats.", state.VariantID, len(seats))
}

// handleDispatchAction applies one client action to the session. The sender
// is always the acting player; the payload cannot act for someone else.
func (mh *matchHandler) handleDispatchAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Session == nil {
		mh.sendError(state, dispatcher, logger, senderID, domain.NewGameStateError("game not started"))
		return
	}

	var act domain.Action
	if err := json.Unmarshal(msg.GetData(), &act); err != nil {
		logger.Warn("DispatchAction: Bad payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, domain.NewValidationError("malformed action payload"))
		return
	}
	act.PlayerID = senderID

	mh.dispatch(ctx, state, dispatcher, logger, act)
}

// dispatch runs one action through the engine and fans out the results.
func (mh *matchHandler) dispatch(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, act domain.Action) {
	events, err := state.Session.Dispatch(act)
	if err != nil {
		gerr := state.Session.LastError()
		state.Session.ClearError()
		if gerr == nil {
			gerr = domain.NewUnknownError("%v", err)
		}
		logger.Warn("Dispatch: %s by %s rejected: %v", act.Name, act.PlayerID, gerr)
		mh.sendError(state, dispatcher, logger, act.PlayerID, gerr)
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	mh.persist(ctx, state, logger, events)

	for _, ev := range events {
		if ev.Kind == engine.EventGameEnded {
			state.Session = nil
			mh.updateLabel(state, dispatcher, logger)
			break
		}
	}
}

// persist saves the session snapshot and appends scored rounds.
func (mh *matchHandler) persist(ctx context.Context, state *MatchState, logger runtime.Logger, events []engine.Event) {
	if state.Store == nil || state.Session == nil {
		return
	}
	tableID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if tableID == "" {
		return
	}

	if err := state.Store.SaveSnapshot(ctx, tableID, state.Session.Snapshot()); err != nil {
		logger.Error("Persist: Failed to save snapshot: %v", err)
	}
	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case engine.RoundScoredPayload:
			err := state.Store.RecordRoundResult(ctx, ports.RoundResult{
				TableID: tableID,
				Round:   p.Round,
				Points:  p.RoundPoints,
				Totals:  p.Totals,
			})
			if err != nil {
				logger.Error("Persist: Failed to record round result: %v", err)
			}
		case engine.GameEndedPayload:
			err := state.Store.RecordRoundResult(ctx, ports.RoundResult{
				TableID:  tableID,
				Round:    state.Session.Round(),
				Totals:   p.Totals,
				WinnerID: p.WinnerID,
			})
			if err != nil {
				logger.Error("Persist: Failed to record final result: %v", err)
			}
			if err := state.Store.DeleteSnapshot(ctx, tableID); err != nil {
				logger.Error("Persist: Failed to delete snapshot: %v", err)
			}
		}
	}
}

// processBots fills solo lobbies and plays deferred bot turns.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Session == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount == 1 && state.GetOpenSeatsCount() > 0 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				mh.fillWithBots(state, logger)
				mh.updateLabel(state, dispatcher, logger)
				mh.broadcastTableState(ctx, state, dispatcher, logger)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	uid, agent := mh.nextBotWithMove(state)
	if agent == nil {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := state.BotMinDelay
		if state.BotMaxDelay > state.BotMinDelay {
			delay += state.Rng.Intn(state.BotMaxDelay - state.BotMinDelay + 1)
		}
		state.BotWaitUntil = state.Tick + int64(delay)
		state.BotGeneration = state.Session.Generation()
		logger.Debug("processBots: Bot %s will act at tick %d.", uid, state.BotWaitUntil)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	// The round was re-dealt while the turn was pending; drop the stale move.
	if state.Session.Generation() != state.BotGeneration {
		logger.Debug("processBots: Dropping stale bot turn for %s.", uid)
		return
	}

	act, ok, err := agent.Play(state.Session)
	if err != nil {
		logger.Error("processBots: Bot %s failed to choose a move: %v", uid, err)
		return
	}
	if !ok {
		return
	}
	mh.dispatch(ctx, state, dispatcher, logger, act)
}

// nextBotWithMove finds the first seated bot the game is waiting on.
func (mh *matchHandler) nextBotWithMove(state *MatchState) (string, *bot.Agent) {
	for _, uid := range state.Seats {
		if uid == "" || !isBotUserId(uid) {
			continue
		}
		if len(state.Session.RequiredActions(uid)) == 0 {
			continue
		}
		agent, exists := state.Bots[uid]
		if !exists {
			agent = bot.NewAgent(uid, state.Rng)
			state.Bots[uid] = agent
		}
		return uid, agent
	}
	return "", nil
}

// fillWithBots seats a bot in every open seat.
func (mh *matchHandler) fillWithBots(state *MatchState, logger runtime.Logger) {
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		identity := bot.GetBotIdentity(i)
		state.Seats[i] = identity.UserID
		state.Bots[identity.UserID] = bot.NewAgent(identity.UserID, state.Rng)
		logger.Info("fillWithBots: Added bot %s to seat %d.", identity.UserID, i)
	}
}

// tableStatePayload is the lobby/table snapshot broadcast on membership
// changes.
type tableStatePayload struct {
	Variant   string            `json:"variant"`
	Seats     []string          `json:"seats"`
	OwnerSeat int               `json:"owner_seat"`
	Phase     string            `json:"phase,omitempty"`
	Round     int               `json:"round,omitempty"`
	Scores    map[string]int    `json:"scores,omitempty"`
	Names     map[string]string `json:"names"`
}

func (mh *matchHandler) tableState(state *MatchState) tableStatePayload {
	payload := tableStatePayload{
		Variant:   state.VariantID,
		Seats:     state.Seats,
		OwnerSeat: state.OwnerSeat,
		Names:     make(map[string]string),
	}
	for _, uid := range state.Seats {
		if uid == "" {
			continue
		}
		if p, exists := state.Presences[uid]; exists {
			payload.Names[uid] = p.GetUsername()
		} else if identity, ok := bot.GetBotConfig(uid); ok {
			payload.Names[uid] = identity.DisplayName
		} else {
			payload.Names[uid] = uid
		}
	}
	if state.Session != nil {
		payload.Phase = string(state.Session.Phase())
		payload.Round = state.Session.Round()
		payload.Scores = state.Session.ScoreTable()
	}
	return payload
}

func (mh *matchHandler) broadcastTableState(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	bytes, err := json.Marshal(mh.tableState(state))
	if err != nil {
		logger.Error("Failed to marshal table state: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpTableState, bytes, nil, nil, true)
}

// sendPrivateState brings a reconnecting player back up to date, hand
// included.
func (mh *matchHandler) sendPrivateState(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}

	bytes, err := json.Marshal(mh.tableState(state))
	if err != nil {
		logger.Error("Failed to marshal table state: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpTableState, bytes, []runtime.Presence{presence}, nil, true)

	if state.Session != nil {
		hand, err := json.Marshal(engine.HandDealtPayload{
			PlayerID: userID,
			Hand:     state.Session.PlayerHand(userID),
		})
		if err != nil {
			logger.Error("Failed to marshal hand: %v", err)
			return
		}
		dispatcher.BroadcastMessage(OpHandDealt, hand, []runtime.Presence{presence}, nil, true)
	}
}

// sendRejoinTokens hands every connected human a token to reclaim their seat.
func (mh *matchHandler) sendRejoinTokens(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	tableID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if tableID == "" {
		return
	}
	for seat, uid := range state.Seats {
		presence, connected := state.Presences[uid]
		if !connected || isBotUserId(uid) {
			continue
		}
		token, err := state.Tokens.GenerateRejoinToken(tableID, uid, seat, rejoinTokenTTL)
		if err != nil {
			logger.Debug("sendRejoinTokens: %v", err)
			return
		}
		payload, _ := json.Marshal(map[string]string{"rejoin_token": token})
		dispatcher.BroadcastMessage(OpTableState, payload, []runtime.Presence{presence}, nil, true)
	}
}

// broadcastEvent maps an engine event to its opcode and fans it out,
// honoring targeted recipients.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev engine.Event) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, exists := state.Presences[uid]; exists {
				recipients = append(recipients, p)
			}
		}
		// All intended recipients are offline or bots; do not leak a private
		// payload by falling back to broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

var eventOpCodes = map[engine.EventKind]int64{
	engine.EventRoundStarted:  OpRoundStarted,
	engine.EventHandDealt:     OpHandDealt,
	engine.EventBidPlaced:     OpBidPlaced,
	engine.EventBidRevealed:   OpBidRevealed,
	engine.EventDeclared:      OpDeclared,
	engine.EventCardsPassed:   OpCardsPassed,
	engine.EventCardPlayed:    OpCardPlayed,
	engine.EventTrickResolved: OpTrickResolved,
	engine.EventRoundScored:   OpRoundScored,
	engine.EventPhaseChanged:  OpPhaseChanged,
	engine.EventGameEnded:     OpGameEnded,
}

// sendError sends a typed game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, gerr *domain.GameError) {
	presence, ok := state.Presences[userID]
	if !ok {
		// Bots and disconnected players get no error payloads.
		return
	}
	bytes, err := json.Marshal(gerr)
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	tableState := "lobby"
	if state.Session != nil {
		tableState = "playing"
	}
	labelBytes, err := json.Marshal(Label{
		Open:    state.GetOpenSeatsCount(),
		Variant: state.VariantID,
		State:   tableState,
	})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func seatOf(seats []string, userID string) int {
	for i, uid := range seats {
		if uid == userID {
			return i
		}
	}
	return -1
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Table terminated for reason %d", reason)
	if matchState, ok := state.(*MatchState); ok && matchState.Store != nil {
		matchState.Store.Close()
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
