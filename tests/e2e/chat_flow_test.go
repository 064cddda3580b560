package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

const baseURL = "http://localhost:8080/api/v1"

type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	IsOnline bool   `json:"is_online"`
}

type SignInResponse struct {
	Profile      Profile `json:"profile"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
}

type MessageRequest struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

type Conversation struct {
	ID string `json:"id"`
}

type RespondResponse struct {
	Status       string        `json:"status"`
	Conversation *Conversation `json:"conversation"`
}

type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Content        string `json:"content"`
	Type           string `json:"type"`
	Status         string `json:"status"`
}

type MessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

type ConversationsResponse struct {
	Conversations []struct {
		ID          string `json:"id"`
		UnreadCount int    `json:"unread_count"`
	} `json:"conversations"`
	Total int `json:"total"`
}

func requireServer(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", "localhost:8080", time.Second)
	if err != nil {
		t.Skip("server not running on localhost:8080")
	}
	conn.Close()
}

func doJSON(t *testing.T, method, url, token string, body, out interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response from %s %s: %v", method, url, err)
		}
	}
	return resp
}

// signUpAndIn registers a fresh user and returns their session
func signUpAndIn(t *testing.T, name string) SignInResponse {
	t.Helper()

	email := fmt.Sprintf("%s-%d@e2e.test", name, time.Now().UnixNano())
	password := "e2e-password"

	resp := doJSON(t, http.MethodPost, baseURL+"/auth/signup", "", map[string]string{
		"email":     email,
		"password":  password,
		"full_name": name,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup returned %d", resp.StatusCode)
	}

	var session SignInResponse
	resp = doJSON(t, http.MethodPost, baseURL+"/auth/signin", "", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin returned %d", resp.StatusCode)
	}
	if session.AccessToken == "" {
		t.Fatal("signin returned no access token")
	}
	return session
}

func TestChatFlow(t *testing.T) {
	requireServer(t)

	alice := signUpAndIn(t, "Alice")
	bob := signUpAndIn(t, "Bob")

	// Alice asks to chat with Bob
	var req MessageRequest
	resp := doJSON(t, http.MethodPost, baseURL+"/chat/requests", alice.AccessToken, map[string]string{
		"receiver_id": bob.Profile.ID,
		"message":     "hi, about your listing",
	}, &req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating request returned %d", resp.StatusCode)
	}
	if req.Status != "pending" {
		t.Fatalf("expected pending request, got %s", req.Status)
	}

	// A receiver id with no profile behind it looks missing
	resp = doJSON(t, http.MethodPost, baseURL+"/chat/requests", alice.AccessToken, map[string]string{
		"receiver_id": "11111111-2222-3333-4444-555555555555",
		"message":     "anyone there",
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("request to unknown receiver returned %d, want 404", resp.StatusCode)
	}

	// A duplicate while pending is rejected
	resp = doJSON(t, http.MethodPost, baseURL+"/chat/requests", alice.AccessToken, map[string]string{
		"receiver_id": bob.Profile.ID,
		"message":     "hello again",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate request returned %d, want 409", resp.StatusCode)
	}

	// Bob sees it in his inbox
	var inbox struct {
		Requests []MessageRequest `json:"requests"`
	}
	doJSON(t, http.MethodGet, baseURL+"/chat/requests", bob.AccessToken, nil, &inbox)
	found := false
	for _, r := range inbox.Requests {
		if r.ID == req.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("request missing from receiver's inbox")
	}

	// Alice cannot respond to a request addressed to Bob
	resp = doJSON(t, http.MethodPost, baseURL+"/chat/requests/"+req.ID+"/respond", alice.AccessToken, map[string]bool{"accept": true}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign respond returned %d, want 404", resp.StatusCode)
	}

	// Bob accepts
	var accepted RespondResponse
	resp = doJSON(t, http.MethodPost, baseURL+"/chat/requests/"+req.ID+"/respond", bob.AccessToken, map[string]bool{"accept": true}, &accepted)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept returned %d", resp.StatusCode)
	}
	if accepted.Conversation == nil {
		t.Fatal("accept must create a conversation")
	}
	convID := accepted.Conversation.ID

	// The open chat screen shows Alice on the other side
	var header struct {
		ID           string `json:"id"`
		Participants []struct {
			ID string `json:"id"`
		} `json:"participants"`
	}
	resp = doJSON(t, http.MethodGet, baseURL+"/chat/conversations/"+convID, bob.AccessToken, nil, &header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetching conversation returned %d", resp.StatusCode)
	}
	if len(header.Participants) != 1 || header.Participants[0].ID != alice.Profile.ID {
		t.Fatalf("expected Alice as the only peer, got %+v", header.Participants)
	}

	// A second respond is rejected
	resp = doJSON(t, http.MethodPost, baseURL+"/chat/requests/"+req.ID+"/respond", bob.AccessToken, map[string]bool{"accept": false}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double respond returned %d, want 409", resp.StatusCode)
	}

	// Alice sends a message
	var sent Message
	resp = doJSON(t, http.MethodPost, baseURL+"/chat/conversations/"+convID+"/messages", alice.AccessToken, map[string]string{
		"content": "thanks for accepting!",
	}, &sent)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send message returned %d", resp.StatusCode)
	}
	if sent.Status != "sent" {
		t.Fatalf("new message status %s, want sent", sent.Status)
	}

	// Bob sees one unread conversation
	var convs ConversationsResponse
	doJSON(t, http.MethodGet, baseURL+"/chat/conversations", bob.AccessToken, nil, &convs)
	foundConv := false
	for _, c := range convs.Conversations {
		if c.ID == convID {
			foundConv = true
			if c.UnreadCount != 1 {
				t.Fatalf("unread count %d, want 1", c.UnreadCount)
			}
		}
	}
	if !foundConv {
		t.Fatal("conversation missing from receiver's directory")
	}

	// Bob fetches the stream; that acknowledges delivery
	var stream MessagesResponse
	doJSON(t, http.MethodGet, baseURL+"/chat/conversations/"+convID+"/messages", bob.AccessToken, nil, &stream)
	if stream.Total != 1 {
		t.Fatalf("expected 1 message, got %d", stream.Total)
	}

	// After the fetch the message is no longer counted unread
	doJSON(t, http.MethodGet, baseURL+"/chat/conversations", bob.AccessToken, nil, &convs)
	for _, c := range convs.Conversations {
		if c.ID == convID && c.UnreadCount != 0 {
			t.Fatalf("unread count after fetch %d, want 0", c.UnreadCount)
		}
	}

	// Bob marks the conversation seen
	var marked struct {
		Updated int `json:"updated"`
	}
	resp = doJSON(t, http.MethodPost, baseURL+"/chat/conversations/"+convID+"/seen", bob.AccessToken, nil, &marked)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark seen returned %d", resp.StatusCode)
	}
	if marked.Updated != 1 {
		t.Fatalf("seen updated %d rows, want 1", marked.Updated)
	}

	// Alice now reads her own stream and sees the status advanced
	doJSON(t, http.MethodGet, baseURL+"/chat/conversations/"+convID+"/messages", alice.AccessToken, nil, &stream)
	if stream.Messages[0].Status != "seen" {
		t.Fatalf("message status %s, want seen", stream.Messages[0].Status)
	}

	// An outsider cannot read the conversation
	carol := signUpAndIn(t, "Carol")
	resp = doJSON(t, http.MethodGet, baseURL+"/chat/conversations/"+convID+"/messages", carol.AccessToken, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("outsider read returned %d, want 404", resp.StatusCode)
	}
}

func TestDirectMessageFlow(t *testing.T) {
	requireServer(t)

	alice := signUpAndIn(t, "Alice")
	bob := signUpAndIn(t, "Bob")

	var sent struct {
		ID     string `json:"id"`
		IsRead bool   `json:"is_read"`
	}
	resp := doJSON(t, http.MethodPost, baseURL+"/direct/11111111-2222-3333-4444-555555555555", alice.AccessToken, map[string]string{
		"content": "anyone there",
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("message to unknown receiver returned %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, baseURL+"/direct/"+bob.Profile.ID, alice.AccessToken, map[string]string{
		"content": "quick question",
	}, &sent)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send returned %d", resp.StatusCode)
	}
	if sent.IsRead {
		t.Fatal("new direct message must start unread")
	}

	var marked struct {
		Updated int `json:"updated"`
	}
	doJSON(t, http.MethodPost, baseURL+"/direct/"+alice.Profile.ID+"/read", bob.AccessToken, nil, &marked)
	if marked.Updated != 1 {
		t.Fatalf("read marked %d rows, want 1", marked.Updated)
	}
}

func TestAuthRequired(t *testing.T) {
	requireServer(t)

	resp, err := http.Get(baseURL + "/chat/conversations")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated request returned %d, want 401", resp.StatusCode)
	}
}
