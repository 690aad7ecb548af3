package bridge

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/naufalh/wabot/internal/domain"
)

func decodeLine(t *testing.T, line string) (action string, params map[string]any) {
	t.Helper()
	var out struct {
		Action string         `json:"action"`
		Params map[string]any `json:"params"`
	}
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return out.Action, out.Params
}

func TestGatewaySendShapes(t *testing.T) {
	var out syncBuffer
	g := NewGateway(NewConn(strings.NewReader(""), &out, testLogger()))
	ctx := context.Background()

	quote := &domain.Event{ID: "m1", ChatID: "120@g.us", SenderJID: "628@s.whatsapp.net"}
	if err := g.SendText(ctx, "120@g.us", "hello", quote); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if err := g.SendMention(ctx, "120@g.us", "hi @628", []string{"628@s.whatsapp.net"}, nil); err != nil {
		t.Fatalf("SendMention: %v", err)
	}
	if err := g.RemoveParticipants(ctx, "120@g.us", []string{"629@s.whatsapp.net"}); err != nil {
		t.Fatalf("RemoveParticipants: %v", err)
	}
	if err := g.SetGroupAnnounce(ctx, "120@g.us", true); err != nil {
		t.Fatalf("SetGroupAnnounce: %v", err)
	}
	if err := g.RejectCall(ctx, "call-1", "630@s.whatsapp.net"); err != nil {
		t.Fatalf("RejectCall: %v", err)
	}
	if err := g.SendReaction(ctx, "120@g.us", "m1", "🔥"); err != nil {
		t.Fatalf("SendReaction: %v", err)
	}

	lines := out.Lines()
	if len(lines) != 6 {
		t.Fatalf("wrote %d lines, want 6", len(lines))
	}

	action, params := decodeLine(t, lines[0])
	if action != "send_text" || params["text"] != "hello" {
		t.Fatalf("line 0 = %s %v", action, params)
	}
	q, ok := params["quote"].(map[string]any)
	if !ok || q["message_id"] != "m1" || q["sender_jid"] != "628@s.whatsapp.net" {
		t.Fatalf("quote = %v", params["quote"])
	}

	action, params = decodeLine(t, lines[1])
	if action != "send_mention" {
		t.Fatalf("line 1 action = %s", action)
	}
	if params["quote"] != nil {
		t.Fatalf("nil quote should marshal as null, got %v", params["quote"])
	}

	action, params = decodeLine(t, lines[2])
	if action != "remove_participants" {
		t.Fatalf("line 2 action = %s", action)
	}
	jids, _ := params["jids"].([]any)
	if len(jids) != 1 || jids[0] != "629@s.whatsapp.net" {
		t.Fatalf("jids = %v", params["jids"])
	}

	action, params = decodeLine(t, lines[3])
	if action != "set_group_announce" || params["announce"] != true {
		t.Fatalf("line 3 = %s %v", action, params)
	}

	action, params = decodeLine(t, lines[4])
	if action != "reject_call" || params["call_id"] != "call-1" {
		t.Fatalf("line 4 = %s %v", action, params)
	}

	action, params = decodeLine(t, lines[5])
	if action != "send_reaction" || params["message_id"] != "m1" || params["emoji"] != "🔥" {
		t.Fatalf("line 5 = %s %v", action, params)
	}
}

// answer runs a one-shot peer that replies to the first waiting action with
// the given data payload.
func answer(t *testing.T, out *syncBuffer, pw io.Writer, data any) {
	t.Helper()
	var id uint64
	deadline := time.After(2 * time.Second)
	for id == 0 {
		select {
		case <-deadline:
			t.Error("no waiting action observed")
			return
		default:
		}
		for _, l := range out.Lines() {
			var a struct {
				ID   uint64 `json:"id"`
				Wait bool   `json:"wait"`
			}
			if json.Unmarshal([]byte(l), &a) == nil && a.Wait {
				id = a.ID
			}
		}
		time.Sleep(time.Millisecond)
	}
	reply, _ := json.Marshal(map[string]any{"type": "result", "id": id, "ok": true, "data": data})
	if _, err := pw.Write(append(reply, '\n')); err != nil {
		t.Errorf("write reply: %v", err)
	}
}

func TestGatewayQueries(t *testing.T) {
	pr, pw := io.Pipe()
	var out syncBuffer
	conn := NewConn(pr, &out, testLogger())
	g := NewGateway(conn)
	go conn.Run(context.Background(), func(context.Context, domain.RawEvent) {})
	defer pw.Close()

	go answer(t, &out, pw, map[string]string{"code": "INVITE"})
	code, err := g.GroupInviteCode(context.Background(), "120@g.us")
	if err != nil {
		t.Fatalf("GroupInviteCode: %v", err)
	}
	if code != "INVITE" {
		t.Fatalf("code = %q", code)
	}

	go answer(t, &out, pw, map[string]bool{"registered": true})
	reg, err := g.IsRegistered(context.Background(), "628@s.whatsapp.net")
	if err != nil {
		t.Fatalf("IsRegistered: %v", err)
	}
	if !reg {
		t.Fatal("registered = false, want true")
	}
}

func TestGatewayFetchGroupMetadata(t *testing.T) {
	pr, pw := io.Pipe()
	var out syncBuffer
	conn := NewConn(pr, &out, testLogger())
	g := NewGateway(conn)
	go conn.Run(context.Background(), func(context.Context, domain.RawEvent) {})
	defer pw.Close()

	go answer(t, &out, pw, map[string]any{
		"subject": "gophers",
		"participants": []map[string]any{
			{"id": "628@s.whatsapp.net", "is_admin": true},
			{"id": "629@s.whatsapp.net"},
		},
	})
	md, err := g.FetchGroupMetadata(context.Background(), "120@g.us")
	if err != nil {
		t.Fatalf("FetchGroupMetadata: %v", err)
	}
	if md.ChatID != "120@g.us" {
		t.Fatalf("ChatID = %q, want the queried chat backfilled", md.ChatID)
	}
	if md.Subject != "gophers" || len(md.Participants) != 2 {
		t.Fatalf("metadata = %+v", md)
	}
	if !md.IsAdmin("628@s.whatsapp.net") || md.IsAdmin("629@s.whatsapp.net") {
		t.Fatal("admin flags did not survive the wire")
	}
}
