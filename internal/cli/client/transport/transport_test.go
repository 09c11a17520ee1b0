package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/crypto/ssh"

	"ssh-clipboard/internal/cli/client/target"
)

func TestBuildArgsMinimal(t *testing.T) {
	cfg := Config{Target: target.Target{User: "alice", Host: "example.com"}}
	got := buildArgs(cfg)
	want := []string{"-T", "alice@example.com", defaultRemoteCommand}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildArgsFullOptionSet(t *testing.T) {
	cfg := Config{
		Target:        target.Target{User: "alice", Host: "example.com", Port: 2022},
		IdentityFile:  "/home/alice/.ssh/id_ed25519",
		Options:       []string{"StrictHostKeyChecking=no", "BatchMode=yes"},
		RemoteCommand: "ssh_clipboard proxy --socket-path /custom.sock",
	}
	got := buildArgs(cfg)
	want := []string{
		"-T", "-p", "2022", "-i", "/home/alice/.ssh/id_ed25519",
		"-o", "StrictHostKeyChecking=no", "-o", "BatchMode=yes",
		"alice@example.com", "ssh_clipboard proxy --socket-path /custom.sock",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildArgsExplicitPortOverridesTargetPort(t *testing.T) {
	cfg := Config{Target: target.Target{User: "alice", Host: "example.com", Port: 22}, Port: 2200}
	got := buildArgs(cfg)
	if got[1] != "-p" || got[2] != "2200" {
		t.Fatalf("got %v, want explicit Port to win", got)
	}
}

func TestValidateIdentityFileEmptyPathIsNoop(t *testing.T) {
	if err := ValidateIdentityFile(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateIdentityFileAcceptsValidKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id_ed25519")

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	if err := ValidateIdentityFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateIdentityFileRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not_a_key")
	if err := os.WriteFile(path, []byte("this is not a key"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := ValidateIdentityFile(path); err == nil {
		t.Fatal("expected error for non-key file")
	}
}

func TestValidateIdentityFileRejectsMissingFile(t *testing.T) {
	if err := ValidateIdentityFile("/nonexistent/path/id_rsa"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
