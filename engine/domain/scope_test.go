package domain

import (
	"strings"
	"testing"
)

func TestScopeDetector_Detect(t *testing.T) {
	d := NewScopeDetector([]string{"Acme Corp", "Initech", "Globex"})

	cases := []struct {
		text  string
		scope string
	}{
		{"what did he build at Acme Corp", "Acme Corp"},
		{"databases used while at Initech", "Initech"},
		{"work done for Globex", "Globex"},
		{"experience with Initech", "Initech"},
		{"anything during the Globex project", "Globex"},
		{"what databases has the candidate used", ""},
	}
	for _, c := range cases {
		scope, _ := d.Detect(c.text)
		if scope != c.scope {
			t.Errorf("Detect(%q): scope %q, want %q", c.text, scope, c.scope)
		}
	}
}

func TestScopeDetector_StripsMention(t *testing.T) {
	d := NewScopeDetector([]string{"Acme Corp"})
	scope, stripped := d.Detect("what databases did he use at Acme Corp")
	if scope != "Acme Corp" {
		t.Fatalf("scope = %q", scope)
	}
	if strings.Contains(strings.ToLower(stripped), "acme") {
		t.Errorf("employer name survived in embed text: %q", stripped)
	}
	if !strings.Contains(stripped, "databases") {
		t.Errorf("skill terms should survive: %q", stripped)
	}
}

func TestScopeDetector_NeverEmptyEmbedText(t *testing.T) {
	d := NewScopeDetector([]string{"Acme"})
	_, stripped := d.Detect("at Acme")
	if stripped == "" {
		t.Error("embed text must never be empty")
	}
}

func TestScopeDetector_CaseInsensitive(t *testing.T) {
	d := NewScopeDetector([]string{"Acme"})
	scope, _ := d.Detect("what happened AT ACME")
	if scope != "Acme" {
		t.Errorf("scope = %q, want canonical name", scope)
	}
}

func TestScopeDetector_EmptyNames(t *testing.T) {
	d := NewScopeDetector(nil)
	scope, stripped := d.Detect("anything at all")
	if scope != "" || stripped != "anything at all" {
		t.Errorf("no names configured should detect nothing, got %q / %q", scope, stripped)
	}
}
