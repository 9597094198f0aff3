package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/model"
	"wordrooms/internal/realtime"
	"wordrooms/internal/service"
)

// Inbound actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionGuess       = "guess"
	ActionLeaveRoom   = "leave_room"
	ActionPing        = "ping"
)

// Reply event types
const (
	EventAck  = "ack"
	EventPong = "pong"
)

// Inbound is a client request. Fields beyond Action depend on the action.
type Inbound struct {
	Action    string `json:"action"`
	RequestID string `json:"requestId,omitempty"`
	Channel   string `json:"channel,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
	GameID    string `json:"gameId,omitempty"`
	Guess     string `json:"guess,omitempty"`
}

type AckPayload struct {
	RequestID string      `json:"requestId,omitempty"`
	Action    string      `json:"action"`
	Result    interface{} `json:"result,omitempty"`
}

type errorReply struct {
	model.ErrorPayload
	RequestID string `json:"requestId,omitempty"`
	Action    string `json:"action,omitempty"`
}

var (
	errUnknownAction = service.ErrInvalidInput.Withf("unknown action")
	errBadChannel    = service.ErrInvalidInput.Withf("unknown channel")
	errForbidden     = service.ErrPlayerNotInRoom.Withf("not allowed to subscribe to this channel")
	errRateLimited   = &service.Error{Kind: service.KindConflict, Code: "RATE_LIMITED", Message: "too many guesses"}
)

func (h *Handler) dispatch(c *Client, data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		h.replyError(c, in, service.ErrInvalidInput.Withf("malformed message"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var (
		result interface{}
		err    error
	)
	switch in.Action {
	case ActionPing:
		h.hub.Send(c, reply(EventPong, AckPayload{RequestID: in.RequestID, Action: in.Action}))
		return
	case ActionSubscribe:
		err = h.subscribe(ctx, c, in.Channel)
		result = map[string]string{"channel": in.Channel}
	case ActionUnsubscribe:
		h.hub.Registry().Unsubscribe(c, in.Channel)
		result = map[string]string{"channel": in.Channel}
	case ActionGuess:
		if !c.limiter.Allow() {
			err = errRateLimited
			break
		}
		result, err = h.games.SubmitGuess(ctx, in.GameID, c.UserID, in.Guess)
	case ActionLeaveRoom:
		var res *service.ExitResult
		res, err = h.rooms.ExitRoom(ctx, in.RoomID, c.UserID)
		if err == nil {
			h.hub.Registry().Unsubscribe(c, realtime.RoomChannel(in.RoomID))
			result = res
		}
	default:
		err = errUnknownAction
	}

	if err != nil {
		h.replyError(c, in, err)
		return
	}
	h.hub.Send(c, reply(EventAck, AckPayload{RequestID: in.RequestID, Action: in.Action, Result: result}))
}

// subscribe authorizes room and game channels against membership; a user channel is
// only open to its owner and is joined on connect.
func (h *Handler) subscribe(ctx context.Context, c *Client, channel string) error {
	kind, id, ok := realtime.ParseChannel(channel)
	if !ok {
		return errBadChannel
	}

	var (
		allowed bool
		err     error
	)
	switch kind {
	case "room":
		allowed, err = h.rooms.IsMember(ctx, id, c.UserID)
	case "game":
		allowed, err = h.games.IsPlayer(ctx, id, c.UserID)
	case "user":
		allowed = id == c.UserID
	}
	if err != nil {
		return err
	}
	if !allowed {
		return errForbidden
	}
	h.hub.Registry().Subscribe(c, channel)
	return nil
}

func (h *Handler) replyError(c *Client, in Inbound, err error) {
	se := service.AsError(err)
	if se.Kind == service.KindInternal {
		log.Error().Err(err).Str("userId", c.UserID).Str("action", in.Action).Msg("socket action failed")
	}
	h.hub.Send(c, reply(model.EventError, errorReply{
		ErrorPayload: model.ErrorPayload{Code: se.Code, Message: se.Message},
		RequestID:    in.RequestID,
		Action:       in.Action,
	}))
}

func reply(eventType string, payload interface{}) realtime.Event {
	ev, err := realtime.NewEvent("", eventType, 0, payload)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("encode reply")
	}
	return ev
}
