package service

import (
	"strings"
	"testing"
)

func TestComputeDigest_Stable(t *testing.T) {
	content := []byte("hello world")

	first := ComputeDigest(content)
	second := ComputeDigest(content)

	if first != second {
		t.Fatalf("digest not stable: %s vs %s", first, second)
	}
	if len(first) != DigestLength {
		t.Fatalf("expected %d hex chars, got %d", DigestLength, len(first))
	}
	if first != strings.ToLower(first) {
		t.Fatalf("digest must be lowercase: %s", first)
	}
}

func TestComputeDigest_DifferentContent(t *testing.T) {
	a := ComputeDigest([]byte("a"))
	b := ComputeDigest([]byte("b"))

	if a == b {
		t.Fatal("different content produced the same digest")
	}
}

func TestComputeDigest_EmptySentinel(t *testing.T) {
	if d := ComputeDigest(nil); d != "" {
		t.Fatalf("nil content should map to empty sentinel, got %s", d)
	}
	if d := ComputeDigest([]byte{}); d != "" {
		t.Fatalf("empty content should map to empty sentinel, got %s", d)
	}
}

func TestVerifyDigest(t *testing.T) {
	content := []byte("verify me")
	digest := ComputeDigest(content)

	if !VerifyDigest(content, digest) {
		t.Fatal("digest should verify against its own content")
	}
	if !VerifyDigest(content, strings.ToUpper(digest)) {
		t.Fatal("verification should accept uppercase expected digests")
	}
	if VerifyDigest([]byte("other"), digest) {
		t.Fatal("digest should not verify against different content")
	}
}

func TestIsValidDigest(t *testing.T) {
	valid := ComputeDigest([]byte("x"))
	if !IsValidDigest(valid) {
		t.Fatalf("computed digest should be valid: %s", valid)
	}

	cases := map[string]string{
		"empty":     "",
		"too short": valid[:DigestLength-1],
		"too long":  valid + "a",
		"uppercase": strings.ToUpper(valid),
		"non-hex":   strings.Repeat("z", DigestLength),
	}
	for name, input := range cases {
		if IsValidDigest(input) {
			t.Errorf("%s should be invalid: %q", name, input)
		}
	}
}
