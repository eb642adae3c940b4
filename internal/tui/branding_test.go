package tui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/cntry/internal/config"
)

func TestShowBanner(t *testing.T) {
	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	ShowBanner("1.0.0-test")

	w.Close()
	os.Stdout = old
	out := <-outC

	if !strings.Contains(out, "Country Lookup") {
		t.Errorf("Expected banner to contain 'Country Lookup', got: %s", out)
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

func TestBannerWithoutVersion(t *testing.T) {
	for _, v := range []string{"", "dev"} {
		out := Banner(v)
		if !strings.Contains(out, "Country Lookup") {
			t.Errorf("Banner(%q) missing tagline: %s", v, out)
		}
		if strings.Contains(out, "Country Lookup v") {
			t.Errorf("Banner(%q) should not carry a version: %s", v, out)
		}
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "▄████▄") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestGetWelcomeMessage(t *testing.T) {
	result := GetWelcomeMessage()

	if !strings.Contains(result, "Start typing a country name") {
		t.Errorf("Expected welcome message to contain instructions, got: %s", result)
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) != 5 {
		t.Errorf("Expected 5 logo lines, got %d", len(LogoLines))
	}
	if len(BannerColors) != 5 {
		t.Errorf("Expected 5 banner colors, got %d", len(BannerColors))
	}
}

func TestApplyTheme(t *testing.T) {
	saved := []lipgloss.Color{PrimaryColor, SecondaryColor, ErrorColor}
	t.Cleanup(func() {
		PrimaryColor, SecondaryColor, ErrorColor = saved[0], saved[1], saved[2]
		buildStyles()
	})

	ApplyTheme(config.UIColors{Primary: "#000001", Error: "#000002"})

	if PrimaryColor != lipgloss.Color("#000001") {
		t.Errorf("PrimaryColor = %v, want #000001", PrimaryColor)
	}
	if ErrorColor != lipgloss.Color("#000002") {
		t.Errorf("ErrorColor = %v, want #000002", ErrorColor)
	}
	if SecondaryColor != saved[1] {
		t.Errorf("empty entries should keep the current color, got %v", SecondaryColor)
	}
	if LogoStyle.GetForeground() != lipgloss.Color("#000001") {
		t.Errorf("LogoStyle not rebuilt: %v", LogoStyle.GetForeground())
	}
}
