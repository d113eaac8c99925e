// ABOUTME: Tests for the per-event convenience builders
// ABOUTME: Covers title/link resolution and the intentional chat mention duplication

package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reslab/notify-gateway/internal/store"
)

func seedSender(st *store.MockStore) {
	st.PutUser(&store.UserSummary{
		ID:        "sender-1",
		FirstName: "Alan",
		LastName:  "Turing",
		Email:     "alan@example.org",
	})
}

func TestNotifyProjectAddition(t *testing.T) {
	d, st, _ := newTestDispatcher()
	seedSender(st)

	n, err := d.NotifyProjectAddition(t.Context(), "user-1", "sender-1", "p-42", "Enigma")
	require.NoError(t, err)

	assert.Equal(t, store.TypeProjectAdded, n.Type)
	assert.Equal(t, "Added to project", n.Title)
	assert.Equal(t, `Alan Turing added you to the project "Enigma"`, n.Message)
	require.NotNil(t, n.ActionURL)
	assert.Equal(t, "/projects/p-42", *n.ActionURL)
	require.NotNil(t, n.EntityType)
	assert.Equal(t, "project", *n.EntityType)
	require.NotNil(t, n.EntityID)
	assert.Equal(t, "p-42", *n.EntityID)
}

func TestNotifyActivityAdditionAndUpdate(t *testing.T) {
	d, st, _ := newTestDispatcher()
	seedSender(st)
	ctx := t.Context()

	added, err := d.NotifyActivityAddition(ctx, "user-1", "sender-1", "a-1", "Field survey")
	require.NoError(t, err)
	assert.Equal(t, store.TypeActivityAdded, added.Type)
	require.NotNil(t, added.ActionURL)
	assert.Equal(t, "/activities/a-1", *added.ActionURL)

	updated, err := d.NotifyActivityUpdate(ctx, "user-1", "sender-1", "a-1", "Field survey")
	require.NoError(t, err)
	assert.Equal(t, store.TypeActivityUpdated, updated.Type)
}

func TestNotifyTaskAssignment(t *testing.T) {
	d, st, _ := newTestDispatcher()
	seedSender(st)

	n, err := d.NotifyTaskAssignment(t.Context(), "user-1", "sender-1", "t-9", "Draft report")
	require.NoError(t, err)
	assert.Equal(t, store.TypeTaskAssigned, n.Type)
	assert.Equal(t, `Alan Turing assigned you the task "Draft report"`, n.Message)
}

func TestNotifyDocumentShare(t *testing.T) {
	d, st, _ := newTestDispatcher()
	seedSender(st)

	n, err := d.NotifyDocumentShare(t.Context(), "user-1", "sender-1", "doc-3", "Annual plan")
	require.NoError(t, err)
	assert.Equal(t, store.TypeDocumentShared, n.Type)
	require.NotNil(t, n.ActionURL)
	assert.Equal(t, "/documents/doc-3", *n.ActionURL)
}

func TestBuilders_UnknownSenderFallsBack(t *testing.T) {
	d, _, _ := newTestDispatcher()

	n, err := d.NotifyProjectAddition(t.Context(), "user-1", "ghost", "p-1", "Phantom")
	require.NoError(t, err)
	assert.Equal(t, `Someone added you to the project "Phantom"`, n.Message)
}

func TestNotifyNewChatMessage_MentionDuplication(t *testing.T) {
	// The literal scenario: members [A,B,C], author A, mentioned [B].
	// Exactly 3 records: CHAT_MESSAGE for B and C, CHAT_MENTION for B.
	// The second notification for B is intentional fan-out, not a bug.
	d, _, _ := newTestDispatcher()

	created, err := d.NotifyNewChatMessage(t.Context(), ChatMessage{
		ChannelID:    "ch-1",
		ChannelName:  "general",
		AuthorID:     "A",
		Preview:      "lunch?",
		MemberIDs:    []string{"A", "B", "C"},
		MentionedIDs: []string{"B"},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	type recv struct {
		receiver string
		typ      store.NotificationType
	}
	var got []recv
	for _, n := range created {
		got = append(got, recv{n.ReceiverID, n.Type})
	}
	assert.ElementsMatch(t, []recv{
		{"B", store.TypeChatMessage},
		{"C", store.TypeChatMessage},
		{"B", store.TypeChatMention},
	}, got)
}

func TestNotifyNewChatMessage_AuthorNeverNotified(t *testing.T) {
	d, _, _ := newTestDispatcher()

	created, err := d.NotifyNewChatMessage(t.Context(), ChatMessage{
		ChannelID:    "ch-1",
		ChannelName:  "general",
		AuthorID:     "A",
		Preview:      "hello",
		MemberIDs:    []string{"A"},
		MentionedIDs: []string{"A"}, // self-mention is ignored
	})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestNotifyNewChatMessage_MentionedNonMemberStillNotified(t *testing.T) {
	// Mention intent does not depend on channel membership.
	d, _, _ := newTestDispatcher()

	created, err := d.NotifyNewChatMessage(t.Context(), ChatMessage{
		ChannelID:    "ch-1",
		ChannelName:  "general",
		AuthorID:     "A",
		Preview:      "pulling in an expert",
		MemberIDs:    []string{"A", "B"},
		MentionedIDs: []string{"Z"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	byReceiver := map[string]store.NotificationType{}
	for _, n := range created {
		byReceiver[n.ReceiverID] = n.Type
	}
	assert.Equal(t, store.TypeChatMessage, byReceiver["B"])
	assert.Equal(t, store.TypeChatMention, byReceiver["Z"])
}

func TestNotifyNewChatMessage_ChatTitles(t *testing.T) {
	d, st, _ := newTestDispatcher()
	seedSender(st)

	created, err := d.NotifyNewChatMessage(t.Context(), ChatMessage{
		ChannelID:    "ch-1",
		ChannelName:  "planning",
		AuthorID:     "sender-1",
		Preview:      "numbers are in",
		MemberIDs:    []string{"sender-1", "B"},
		MentionedIDs: []string{"B"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, "New message in #planning", created[0].Title)
	assert.Equal(t, "Alan Turing: numbers are in", created[0].Message)
	assert.Equal(t, "You were mentioned in #planning", created[1].Title)
	assert.Equal(t, "Alan Turing mentioned you: numbers are in", created[1].Message)
}
