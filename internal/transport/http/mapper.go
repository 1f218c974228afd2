package http

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

// inboundToCommand converts a wire message into a core command. The sender
// field of send-message payloads is dropped here: identity belongs to the
// session, not the payload.
func inboundToCommand(in *proto.Inbound) (*core.Command, error) {
	switch in.Type {
	case proto.InboundTypeJoinRoom:
		var data proto.RoomData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, fmt.Errorf("decode join-room: %w", err)
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: data.Room}, nil

	case proto.InboundTypeLeaveRoom:
		var data proto.RoomData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, fmt.Errorf("decode leave-room: %w", err)
		}
		return &core.Command{Kind: core.CommandLeaveRoom, Room: data.Room}, nil

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, fmt.Errorf("decode send-message: %w", err)
		}
		return &core.Command{
			Kind:          core.CommandSendRoomMessage,
			Room:          data.Room,
			Content:       data.Content,
			CorrelationID: data.ClientID,
		}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", in.Type)
	}
}

// outboundFromEvent converts a core event into its wire representation.
func outboundFromEvent(ev *core.Event) *proto.Outbound {
	switch ev.Kind {
	case core.EventRoomMessage:
		return &proto.Outbound{
			Type: proto.OutboundTypeNewMessage,
			Data: proto.MessageData{
				ID:        ev.Message.ID,
				Room:      ev.Message.Room,
				Sender:    ev.Message.Sender,
				Content:   ev.Message.Content,
				CreatedAt: ev.Message.CreatedAt,
				ClientID:  ev.CorrelationID,
			},
		}

	case core.EventHistory:
		messages := make([]proto.MessageData, 0, len(ev.Messages))
		for _, m := range ev.Messages {
			messages = append(messages, proto.MessageData{
				ID:        m.ID,
				Room:      m.Room,
				Sender:    m.Sender,
				Content:   m.Content,
				CreatedAt: m.CreatedAt,
			})
		}
		return &proto.Outbound{
			Type: proto.OutboundTypeHistory,
			Data: proto.HistoryData{Room: ev.Room, Messages: messages},
		}

	case core.EventUserJoined:
		return &proto.Outbound{
			Type: proto.OutboundTypeUserJoined,
			Data: proto.PresenceData{Room: ev.Room, User: ev.User},
		}

	case core.EventUserLeft:
		return &proto.Outbound{
			Type: proto.OutboundTypeUserLeft,
			Data: proto.PresenceData{Room: ev.Room, User: ev.User},
		}

	case core.EventError:
		return &proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message},
		}

	default:
		return nil
	}
}
