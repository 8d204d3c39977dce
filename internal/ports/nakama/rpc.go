package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tricktable/internal/config"
	"tricktable/internal/session"
	"tricktable/internal/variant"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RpcFindTable searches for a table with open seats and returns its match ID,
// creating a fresh one when none is listed.
//
// Payload: (Optional) {"variant": "<id>"} to restrict the search.
// Returns: String containing the Match ID.
func RpcFindTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req struct {
		Variant string `json:"variant"`
	}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("malformed payload", 3)
		}
	}
	if req.Variant == "" {
		req.Variant = config.GetTableConfig().DefaultVariant
	}
	if _, err := variant.New(req.Variant); err != nil {
		return "", runtime.NewError(fmt.Sprintf("unknown variant %q", req.Variant), 3)
	}

	limit := 1
	authoritative := true
	labelQuery := fmt.Sprintf("+label.%s:>=1 +label.variant:%s", MatchLabelKey_OpenSeats, req.Variant)
	minSize := 0
	maxSize := 4

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, labelQuery)
	if err != nil {
		logger.Error("RpcFindTable [User:%s]: Failed to list matches: %v", userId, err)
		return "", err
	}
	if len(matches) > 0 {
		matchId := matches[0].MatchId
		logger.Info("RpcFindTable [User:%s]: Found existing table %s", userId, matchId)
		return matchId, nil
	}

	matchId, err := nk.MatchCreate(ctx, MatchNameTrickTable, map[string]interface{}{"variant": req.Variant})
	if err != nil {
		logger.Error("RpcFindTable [User:%s]: Failed to create table: %v", userId, err)
		return "", err
	}
	logger.Info("RpcFindTable [User:%s]: Created new %s table %s", userId, req.Variant, matchId)
	return matchId, nil
}

// RpcCreateTable always creates a fresh table for the requested variant.
//
// Payload: {"variant": "<id>"}; variant is required.
// Returns: String containing the Match ID.
func RpcCreateTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req struct {
		Variant string `json:"variant"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Variant == "" {
		return "", runtime.NewError("variant is required", 3)
	}
	if _, err := variant.New(req.Variant); err != nil {
		return "", runtime.NewError(fmt.Sprintf("unknown variant %q", req.Variant), 3)
	}

	matchId, err := nk.MatchCreate(ctx, MatchNameTrickTable, map[string]interface{}{"variant": req.Variant})
	if err != nil {
		logger.Error("RpcCreateTable [User:%s]: Failed to create table: %v", userId, err)
		return "", err
	}
	logger.Info("RpcCreateTable [User:%s]: Created %s table %s", userId, req.Variant, matchId)
	return matchId, nil
}

// RpcRejoinTable verifies a rejoin token and returns the table it was issued
// for. The client then joins that match with the token in its metadata.
//
// Payload: {"token": "<jwt>"}
// Returns: {"match_id": "...", "seat": n}
func RpcRejoinTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Token == "" {
		return "", runtime.NewError("token is required", 3)
	}

	tokens := session.NewTokenService(config.GetTableConfig().RejoinTokenSecret)
	claims, err := tokens.VerifyRejoinToken(req.Token)
	if err != nil {
		logger.Warn("RpcRejoinTable [User:%s]: Invalid token: %v", userId, err)
		return "", runtime.NewError("invalid rejoin token", 16)
	}
	if claims.PlayerID != userId {
		return "", runtime.NewError("token belongs to another player", 7)
	}

	resp, err := json.Marshal(map[string]interface{}{
		"match_id": claims.TableID,
		"seat":     claims.Seat,
	})
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

// RegisterRPCs wires all table RPCs with the initializer.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcIdFindTable, RpcFindTable); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcIdCreateTable, RpcCreateTable); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcIdRejoinTable, RpcRejoinTable)
}
