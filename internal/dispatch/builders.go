// ABOUTME: Convenience builders translating common application events into notification intents
// ABOUTME: Resolves human-readable titles, deep links, and chat fan-out with mention duplication

package dispatch

import (
	"context"
	"fmt"

	"github.com/reslab/notify-gateway/internal/store"
)

// NotifyProjectAddition notifies a user that they were added to a project.
func (d *Dispatcher) NotifyProjectAddition(ctx context.Context, receiverID, senderID, projectID, projectName string) (*store.Notification, error) {
	return d.CreateNotification(ctx, Intent{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Title:      "Added to project",
		Message:    fmt.Sprintf("%s added you to the project %q", d.senderName(ctx, senderID), projectName),
		Type:       store.TypeProjectAdded,
		ActionURL:  "/projects/" + projectID,
		EntityType: "project",
		EntityID:   projectID,
	})
}

// NotifyActivityAddition notifies a user that an activity was added to one
// of their projects.
func (d *Dispatcher) NotifyActivityAddition(ctx context.Context, receiverID, senderID, activityID, activityName string) (*store.Notification, error) {
	return d.CreateNotification(ctx, Intent{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Title:      "New activity",
		Message:    fmt.Sprintf("%s added the activity %q", d.senderName(ctx, senderID), activityName),
		Type:       store.TypeActivityAdded,
		ActionURL:  "/activities/" + activityID,
		EntityType: "activity",
		EntityID:   activityID,
	})
}

// NotifyActivityUpdate notifies a user that an activity they follow changed.
func (d *Dispatcher) NotifyActivityUpdate(ctx context.Context, receiverID, senderID, activityID, activityName string) (*store.Notification, error) {
	return d.CreateNotification(ctx, Intent{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Title:      "Activity updated",
		Message:    fmt.Sprintf("%s updated the activity %q", d.senderName(ctx, senderID), activityName),
		Type:       store.TypeActivityUpdated,
		ActionURL:  "/activities/" + activityID,
		EntityType: "activity",
		EntityID:   activityID,
	})
}

// NotifyTaskAssignment notifies a user that a task was assigned to them.
func (d *Dispatcher) NotifyTaskAssignment(ctx context.Context, receiverID, senderID, taskID, taskName string) (*store.Notification, error) {
	return d.CreateNotification(ctx, Intent{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Title:      "Task assigned",
		Message:    fmt.Sprintf("%s assigned you the task %q", d.senderName(ctx, senderID), taskName),
		Type:       store.TypeTaskAssigned,
		ActionURL:  "/tasks/" + taskID,
		EntityType: "task",
		EntityID:   taskID,
	})
}

// NotifyDocumentShare notifies a user that a document was shared with them.
func (d *Dispatcher) NotifyDocumentShare(ctx context.Context, receiverID, senderID, documentID, documentName string) (*store.Notification, error) {
	return d.CreateNotification(ctx, Intent{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Title:      "Document shared",
		Message:    fmt.Sprintf("%s shared the document %q with you", d.senderName(ctx, senderID), documentName),
		Type:       store.TypeDocumentShared,
		ActionURL:  "/documents/" + documentID,
		EntityType: "document",
		EntityID:   documentID,
	})
}

// ChatMessage describes a posted chat message for notification fan-out.
type ChatMessage struct {
	ChannelID    string
	ChannelName  string
	AuthorID     string
	Preview      string   // first part of the message body
	MemberIDs    []string // current channel members, author included or not
	MentionedIDs []string // users explicitly @-mentioned in the message
}

// NotifyNewChatMessage fans a chat message out to the channel: one
// CHAT_MESSAGE notification per member (author excluded), plus one
// CHAT_MENTION notification per mentioned user. A mentioned member
// therefore receives two notifications for the same message; the mention
// is a deliberate second signal, not a duplicate send. Mentioned users who
// are not channel members still receive the mention, since mention intent
// does not depend on membership. Per-receiver store failures abort the
// fan-out and propagate.
func (d *Dispatcher) NotifyNewChatMessage(ctx context.Context, msg ChatMessage) ([]*store.Notification, error) {
	authorName := d.senderName(ctx, msg.AuthorID)
	var created []*store.Notification

	for _, memberID := range msg.MemberIDs {
		if memberID == msg.AuthorID {
			continue
		}
		n, err := d.CreateNotification(ctx, Intent{
			ReceiverID: memberID,
			SenderID:   msg.AuthorID,
			Title:      fmt.Sprintf("New message in #%s", msg.ChannelName),
			Message:    fmt.Sprintf("%s: %s", authorName, msg.Preview),
			Type:       store.TypeChatMessage,
			ActionURL:  "/channels/" + msg.ChannelID,
			EntityType: "channel",
			EntityID:   msg.ChannelID,
		})
		if err != nil {
			return created, err
		}
		created = append(created, n)
	}

	for _, mentionedID := range msg.MentionedIDs {
		if mentionedID == msg.AuthorID {
			continue
		}
		n, err := d.CreateNotification(ctx, Intent{
			ReceiverID: mentionedID,
			SenderID:   msg.AuthorID,
			Title:      fmt.Sprintf("You were mentioned in #%s", msg.ChannelName),
			Message:    fmt.Sprintf("%s mentioned you: %s", authorName, msg.Preview),
			Type:       store.TypeChatMention,
			ActionURL:  "/channels/" + msg.ChannelID,
			EntityType: "channel",
			EntityID:   msg.ChannelID,
		})
		if err != nil {
			return created, err
		}
		created = append(created, n)
	}

	return created, nil
}

// senderName resolves a display name for notification text. Falls back to
// a generic label when the sender is absent or unknown.
func (d *Dispatcher) senderName(ctx context.Context, senderID string) string {
	if senderID == "" {
		return "Someone"
	}
	sender, err := d.store.GetUserSummary(ctx, senderID)
	if err != nil {
		return "Someone"
	}
	return sender.FirstName + " " + sender.LastName
}
