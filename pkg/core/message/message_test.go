package message_test

import (
	"errors"
	"testing"

	"github.com/easyops/legalqa-go/pkg/core/message"
)

func TestLastUserContent(t *testing.T) {
	msgs := []message.Message{
		message.NewUserMessage("第一问"),
		message.NewAssistantMessage("第一答"),
		message.NewUserMessage("第二问"),
		message.NewAssistantMessage("第二答"),
	}

	got, ok := message.LastUserContent(msgs)
	if !ok {
		t.Fatal("expected a user message to be found")
	}
	if got != "第二问" {
		t.Fatalf("expected last user content, got %q", got)
	}
}

func TestLastUserContent_NoUserMessage(t *testing.T) {
	msgs := []message.Message{
		message.NewSystemMessage("系统提示"),
		message.NewAssistantMessage("回答"),
	}

	if _, ok := message.LastUserContent(msgs); ok {
		t.Fatal("expected no user message")
	}
	if _, ok := message.LastUserContent(nil); ok {
		t.Fatal("expected no user message for empty list")
	}
}

func TestRole_DisplayName(t *testing.T) {
	if message.RoleUser.DisplayName() != "User" {
		t.Errorf("unexpected user display name %q", message.RoleUser.DisplayName())
	}
	if message.RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("unexpected assistant display name %q", message.RoleAssistant.DisplayName())
	}
}

func TestMessage_Validate(t *testing.T) {
	valid := message.NewUserMessage("内容")
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}

	empty := message.NewUserMessage("")
	if err := empty.Validate(); !errors.Is(err, message.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	bad := message.Message{Role: "robot", Content: "内容"}
	if err := bad.Validate(); !errors.Is(err, message.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
