package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/ytsweep/internal/config"
)

func TestShowBanner(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "1.0.0-test")
	out := buf.String()

	if !strings.Contains(out, Tagline) {
		t.Errorf("Expected banner to contain %q, got: %s", Tagline, out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator symbols, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
}

func TestShowBannerDevVersion(t *testing.T) {
	var buf bytes.Buffer
	ShowBanner(&buf, "dev")
	if strings.Contains(buf.String(), "vdev") {
		t.Errorf("dev builds should not get a version tag: %s", buf.String())
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "▀█▀") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestApplyTheme(t *testing.T) {
	defer ApplyTheme(config.UIColors{Primary: "#FF6B6B", Error: "#EF4444"})

	ApplyTheme(config.UIColors{Error: "#EF4444"})
	ApplyTheme(config.UIColors{Primary: "#123456"})
	if PrimaryColor != lipgloss.Color("#123456") {
		t.Errorf("PrimaryColor = %v", PrimaryColor)
	}
	if ErrorColor != lipgloss.Color("#EF4444") {
		t.Errorf("empty entries must keep the current color, got %v", ErrorColor)
	}
}
