package backendws

import (
	"encoding/json"

	"github.com/voclink/voclink/pkg/client"
)

// envelope is the JSON frame exchanged with the server. Requests carry
// an ID the server echoes on the response; push events have no ID.
type envelope struct {
	ID      uint64          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   int             `json:"error,omitempty"`
}

// Request types
const (
	typeSessionAuth         = "session_auth"
	typeLogin               = "login"
	typeRegister            = "register"
	typeLogout              = "logout"
	typeGetChannelMessages  = "get_channel_messages"
	typeSendMessage         = "send_message"
	typeSendFriendRequest   = "send_friend_request"
	typeApproveFriendReq    = "approve_friend_request"
	typeRejectFriendReq     = "reject_friend_request"
	typeRemoveFriend        = "remove_friend"
	typeCall                = "call"
	typeJoinCall            = "join_call"
	typeLeaveCall           = "leave_call"
	typeSetVoiceState       = "set_voice_state"
	typeGetChannelCalls     = "get_channel_calls"
)

// Push event types
const (
	pushMessage           = "message"
	pushFriendRequest     = "friend_request"
	pushFriendApproved    = "friend_request_approved"
	pushFriendRejected    = "friend_request_rejected"
	pushFriendRemoved     = "friend_removed"
	pushVoiceState        = "voice_state"
	pushVoiceActivation   = "voice_activation"
	pushIncomingCall      = "incoming_call"
	pushCallEnded         = "call_ended"
)

type wireFriendRequest struct {
	FriendID  string `json:"friendId"`
	Direction string `json:"direction"`
	SentAt    int64  `json:"sentAt"`
}

func (w wireFriendRequest) toRequest() client.FriendRequest {
	direction := client.RequestReceived
	if w.Direction == "sent" {
		direction = client.RequestSent
	}
	return client.FriendRequest{FriendID: w.FriendID, Direction: direction, SentAt: w.SentAt}
}

type wireUser struct {
	ID             string              `json:"id"`
	Username       string              `json:"username"`
	Email          string              `json:"email"`
	Friends        []string            `json:"friends"`
	FriendRequests []wireFriendRequest `json:"friendRequests"`
}

func (w wireUser) toUser() client.User {
	user := client.User{
		ID:       w.ID,
		Username: w.Username,
		Email:    w.Email,
		Friends:  w.Friends,
	}
	for _, req := range w.FriendRequests {
		user.FriendRequests = append(user.FriendRequests, req.toRequest())
	}
	return user
}

type wireMessage struct {
	ID           string `json:"id"`
	ChannelID    string `json:"channelId"`
	SenderID     string `json:"senderId"`
	Content      string `json:"content"`
	AttachmentID string `json:"attachmentId,omitempty"`
	SentAt       int64  `json:"sentAt"`
}

func (w wireMessage) toMessage() client.Message {
	return client.Message{
		ID:           w.ID,
		SenderID:     w.SenderID,
		Content:      w.Content,
		AttachmentID: w.AttachmentID,
		SentAt:       w.SentAt,
	}
}

type authPayload struct {
	User         wireUser `json:"user"`
	SessionToken string   `json:"sessionToken,omitempty"`
}

type wireVoiceState struct {
	UserID   string `json:"userId"`
	Phase    string `json:"phase"`
	Muted    bool   `json:"muted"`
	Deafened bool   `json:"deafen"`
	Speaking bool   `json:"speaking"`
}

func (w wireVoiceState) toVoiceState() client.VoiceState {
	phase := client.PhaseIdle
	switch w.Phase {
	case "pending":
		phase = client.PhasePending
	case "active":
		phase = client.PhaseActive
	}
	return client.VoiceState{
		Phase:    phase,
		Muted:    w.Muted,
		Deafened: w.Deafened,
		Speaking: w.Speaking,
	}
}
