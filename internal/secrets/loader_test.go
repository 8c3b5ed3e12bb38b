package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestLoadPrecedence(t *testing.T) {
	keyring.MockInit()

	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := SetKeyring("openai", "from-keyring"); err != nil {
		t.Fatalf("set keyring: %v", err)
	}

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "file wins", src: Source{Name: "key", File: file, KeyringAccount: "openai", Value: "inline"}, want: "from-file"},
		{name: "keyring before value", src: Source{Name: "key", KeyringAccount: "openai", Value: "inline"}, want: "from-keyring"},
		{name: "missing keyring entry falls back", src: Source{Name: "key", KeyringAccount: "anthropic", Value: " inline "}, want: "inline"},
		{name: "inline only", src: Source{Value: "inline"}, want: "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   "), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(Source{Name: "api key", File: empty, Value: "ignored"}); err == nil {
		t.Fatal("expected error for empty file")
	}
	if _, err := Load(Source{Name: "api key", File: filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}

	_, err := Load(Source{Name: "api key", KeyringAccount: "nobody"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadKeyringFailure(t *testing.T) {
	boom := errors.New("keychain locked")
	keyring.MockInitWithError(boom)
	defer keyring.MockInit()

	got, err := Load(Source{Name: "api key", KeyringAccount: "openai", Value: " inline "})
	if err != nil {
		t.Fatalf("expected inline value, got error %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline, got %q", got)
	}

	if _, err := Load(Source{Name: "api key", KeyringAccount: "openai"}); !errors.Is(err, boom) {
		t.Fatalf("expected keyring error, got %v", err)
	}
}

func TestPresent(t *testing.T) {
	keyring.MockInit()

	if Present(Source{Name: "api key"}) {
		t.Fatal("expected empty source to be absent")
	}
	if !Present(Source{Name: "api key", Value: "x"}) {
		t.Fatal("expected inline value to be present")
	}

	if err := SetKeyring("gemini", "secret"); err != nil {
		t.Fatal(err)
	}
	if !Present(Source{KeyringAccount: "gemini"}) {
		t.Fatal("expected keyring value to be present")
	}
	if err := DeleteKeyring("gemini"); err != nil {
		t.Fatal(err)
	}
	if Present(Source{KeyringAccount: "gemini"}) {
		t.Fatal("expected deleted keyring value to be absent")
	}
	if err := DeleteKeyring("gemini"); err != nil {
		t.Fatalf("deleting a missing entry should succeed: %v", err)
	}
}

func TestSetKeyringValidates(t *testing.T) {
	keyring.MockInit()

	if err := SetKeyring(" ", "x"); err == nil {
		t.Fatal("expected error for empty account")
	}
	if err := SetKeyring("openai", " "); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
