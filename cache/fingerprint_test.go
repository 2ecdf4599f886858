package cache

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func baseKey() Key {
	return Key{
		ToolPath:        "/usr/bin/samtools",
		CommandPath:     []string{"samtools", "view"},
		HelpText:        "Usage: samtools view [options] <in.bam>",
		ContractVersion: "1",
		ModelID:         "ollama/llama3.1",
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint(baseKey())
	b := Fingerprint(baseKey())
	if a != b {
		t.Errorf("fingerprint not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestFingerprintSegmentBoundaries(t *testing.T) {
	a := baseKey()
	a.CommandPath = []string{"samtools", "view"}
	b := baseKey()
	b.CommandPath = []string{"samtools view"}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("different path segmentations must not collide")
	}
}

func TestFingerprintSensitivityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("changing the contract version always changes the fingerprint", prop.ForAll(
		func(help, v1, v2 string) bool {
			a := baseKey()
			a.HelpText = help
			a.ContractVersion = v1
			b := a
			b.ContractVersion = v2
			return (v1 == v2) == (Fingerprint(a) == Fingerprint(b))
		},
		gen.AnyString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("changing the model always changes the fingerprint", prop.ForAll(
		func(help, m1, m2 string) bool {
			a := baseKey()
			a.HelpText = help
			a.ModelID = m1
			b := a
			b.ModelID = m2
			return (m1 == m2) == (Fingerprint(a) == Fingerprint(b))
		},
		gen.AnyString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("changing the help text changes the fingerprint", prop.ForAll(
		func(h1, h2 string) bool {
			a := baseKey()
			a.HelpText = h1
			b := baseKey()
			b.HelpText = h2
			return (h1 == h2) == (Fingerprint(a) == Fingerprint(b))
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
