package password

import (
	"strings"
	"testing"
)

var fast = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify(t *testing.T) {
	t.Parallel()
	h, err := Hash(fast, "correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(h, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected phc: %s", h)
	}
	if !Verify("correct horse", h) {
		t.Fatal("verify should succeed")
	}
	if Verify("wrong horse", h) {
		t.Fatal("verify should fail for wrong password")
	}
	if Verify("correct horse", "$argon2id$garbage") {
		t.Fatal("verify should fail for malformed phc")
	}
	if _, err := Hash(fast, ""); err != ErrEmptyPassword {
		t.Fatalf("want ErrEmptyPassword, got %v", err)
	}
}

func TestHasher(t *testing.T) {
	t.Parallel()
	h, err := NewHasher(fast)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	phc, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Verify("s3cret-pass", phc) {
		t.Fatal("verify")
	}
	h.Burn("anything")
}

func TestPolicy(t *testing.T) {
	t.Parallel()
	bl, err := ReadBlacklist(strings.NewReader("# common\npassword1\n\nQwerty123\n"))
	if err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	p := DefaultPolicy
	p.RequireDigit = true
	p.Blacklist = bl

	if ok, reasons := p.Validate("long-enough-1"); !ok {
		t.Fatalf("expected ok, got %v", reasons)
	}
	if ok, reasons := p.Validate("short1"); ok || reasons[0] != "too_short" {
		t.Fatalf("expected too_short, got %v", reasons)
	}
	if ok, reasons := p.Validate("no-digits-here"); ok || reasons[0] != "missing_digit" {
		t.Fatalf("expected missing_digit, got %v", reasons)
	}
	if ok, reasons := p.Validate("QWERTY123"); ok || reasons[len(reasons)-1] != "too_common" {
		t.Fatalf("expected too_common, got %v", reasons)
	}
}
