package http

import (
	"github.com/vovakirdan/collegechat-server/internal/core"
	"github.com/vovakirdan/collegechat-server/internal/proto"
)

// inboundToCommand maps a client frame to a hub command. Unknown events map to nil.
func inboundToCommand(client *core.Client, inbound proto.Inbound) *core.Command {
	switch inbound.Event {
	case proto.InboundEventJoin:
		join := proto.ParseJoin(inbound.Data)
		return &core.Command{
			Kind:   core.CommandJoin,
			Client: client,
			Name:   join.Name,
			Branch: join.Branch,
		}
	case proto.InboundEventChatMessage:
		return &core.Command{
			Kind:   core.CommandChatMessage,
			Client: client,
			Text:   proto.ChatText(inbound.Data),
		}
	default:
		return nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventSystemMessage:
		return proto.Outbound{
			Event: proto.OutboundEventSystemMessage,
			Data:  proto.SystemMessage{Text: event.Text},
		}
	case core.EventUsers:
		return proto.Outbound{
			Event: proto.OutboundEventUsers,
			Data:  usersPayload(event.Users),
		}
	case core.EventChatMessage:
		msg := event.Message
		return proto.Outbound{
			Event: proto.OutboundEventChatMessage,
			Data: proto.ChatMessage{
				Name:   msg.Name,
				Branch: msg.Branch,
				Text:   msg.Text,
				Time:   proto.FormatTime(msg.Time),
			},
		}
	default:
		return proto.Outbound{}
	}
}

func usersPayload(sessions []core.Session) []proto.User {
	users := make([]proto.User, 0, len(sessions))
	for _, s := range sessions {
		users = append(users, proto.User{Name: s.Name, Branch: s.Branch})
	}
	return users
}
