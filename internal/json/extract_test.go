package json

import (
	"strings"
	"testing"
)

type TestStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestPureJSON(t *testing.T) {
	response := `{"name": "test", "value": 42}`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestJSONWithPrefix(t *testing.T) {
	response := `Here is the result: {"name": "test", "value": 42}`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestJSONWithSuffix(t *testing.T) {
	response := `{"name": "test", "value": 42} That's the output.`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestJSONWithBoth(t *testing.T) {
	response := `Let me think... {"name": "test", "value": 42} Done!`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestNoJSON(t *testing.T) {
	response := "This is just plain text without any JSON."
	_, err := ExtractJSONFromResponse[TestStruct](response)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// Error should contain a preview of the response
	if !strings.Contains(err.Error(), "failed to extract valid JSON") {
		t.Errorf("expected 'failed to extract valid JSON' in error, got: %v", err)
	}
}

func TestInvalidJSON(t *testing.T) {
	response := `{"name": "test", value: }`
	_, err := ExtractJSONFromResponse[TestStruct](response)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestMarkdownFence(t *testing.T) {
	response := "```json\n{\"name\": \"fenced\", \"value\": 1}\n```"
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "fenced" {
		t.Errorf("expected name 'fenced', got '%s'", result.Name)
	}
}

func TestFenceInsideProse(t *testing.T) {
	response := "Sure! Here is the JSON:\n```json\n{\"name\": \"inner\", \"value\": 2}\n```\nLet me know if you need more."
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "inner" || result.Value != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestTrailingCommas(t *testing.T) {
	response := `{"name": "commas", "value": 3, "list": [1, 2, ],}`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "commas" || result.Value != 3 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestComments(t *testing.T) {
	response := `{
  // the tool name
  "name": "http://example.com/x", /* trailing note */
  "value": 4
}`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "http://example.com/x" {
		t.Errorf("comment stripping damaged string literal: %q", result.Name)
	}
	if result.Value != 4 {
		t.Errorf("expected value 4, got %d", result.Value)
	}
}

func TestBalancedObjectIgnoresLaterBraces(t *testing.T) {
	response := `{"name": "a {brace} in text", "value": 5} and then {not json}`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "a {brace} in text" {
		t.Errorf("unexpected name %q", result.Name)
	}
}

func TestCleanupLeavesStringsAlone(t *testing.T) {
	in := `{"a": "x, }", "b": "// not a comment",}`
	out := cleanupJSON(in)
	want := `{"a": "x, }", "b": "// not a comment"}`
	if out != want {
		t.Errorf("cleanupJSON(%q) = %q, want %q", in, out, want)
	}
}
