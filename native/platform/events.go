package platform

import (
	"strconv"

	"crowdledger/core/events"
	"crowdledger/core/types"
	"crowdledger/native/content"
)

const (
	// EventTypeUploaded is emitted when new content enters the ledger.
	EventTypeUploaded = "platform.content.uploaded"
	// EventTypeLiked is emitted when a voter approves content.
	EventTypeLiked = "platform.content.liked"
	// EventTypeDisliked is emitted when a voter disapproves content.
	EventTypeDisliked = "platform.content.disliked"
	// EventTypeHarvested is emitted when a creator is paid for net likes.
	EventTypeHarvested = "platform.content.harvested"
	// EventTypeDeleted is emitted when moderation removes content.
	EventTypeDeleted = "platform.content.deleted"
	// EventTypeReplied is emitted when two records are linked as reply and target.
	EventTypeReplied = "platform.content.replied"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func idAttributes(attrs map[string]string, id content.Identifier) map[string]string {
	attrs["index"] = strconv.FormatUint(id.Index, 10)
	attrs["type"] = id.Type.String()
	return attrs
}

// UploadedEvent announces freshly created content.
func UploadedEvent(creator string, id content.Identifier) *types.Event {
	return &types.Event{
		Type: EventTypeUploaded,
		Attributes: idAttributes(map[string]string{
			"creator": creator,
		}, id),
	}
}

// LikedEvent announces an approval vote.
func LikedEvent(id content.Identifier) *types.Event {
	return &types.Event{Type: EventTypeLiked, Attributes: idAttributes(map[string]string{}, id)}
}

// DislikedEvent announces a disapproval vote.
func DislikedEvent(id content.Identifier) *types.Event {
	return &types.Event{Type: EventTypeDisliked, Attributes: idAttributes(map[string]string{}, id)}
}

// HarvestedEvent announces a reward payout for net likes.
func HarvestedEvent(id content.Identifier, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeHarvested,
		Attributes: idAttributes(map[string]string{
			"amount": amount,
		}, id),
	}
}

// DeletedEvent announces a moderation removal.
func DeletedEvent(owner string, contentHash, metadataHash string, id content.Identifier) *types.Event {
	return &types.Event{
		Type: EventTypeDeleted,
		Attributes: idAttributes(map[string]string{
			"owner":        owner,
			"contentHash":  contentHash,
			"metadataHash": metadataHash,
		}, id),
	}
}

// RepliedEvent announces a new reply edge.
func RepliedEvent(reply, target content.Identifier) *types.Event {
	return &types.Event{
		Type: EventTypeReplied,
		Attributes: map[string]string{
			"replyIndex":  strconv.FormatUint(reply.Index, 10),
			"replyType":   reply.Type.String(),
			"targetIndex": strconv.FormatUint(target.Index, 10),
			"targetType":  target.Type.String(),
		},
	}
}
