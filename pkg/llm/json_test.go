package llm

import (
	"testing"
)

func TestExtractJSONPlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"valid": true}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"valid": true}` {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	response := "Here is the result:\n```json\n{\"email\": \"a@b.com\"}\n```\nLet me know if you need more."
	got, err := ExtractJSON(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"email": "a@b.com"}` {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExtractJSONFenceWithoutLanguage(t *testing.T) {
	got, err := ExtractJSON("```\n[1, 2, 3]\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[1, 2, 3]" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	got, err := ExtractJSON(`The corrected value is {"state": "California"} based on the city.`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"state": "California"}` {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExtractJSONNestedBraces(t *testing.T) {
	response := `{"mapping": {"NYC": "New York"}, "note": "has {braces} in string"}`
	got, err := ExtractJSON(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != response {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExtractJSONArrayBeforeObject(t *testing.T) {
	got, err := ExtractJSON(`[{"a": 1}, {"b": 2}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `[{"a": 1}, {"b": 2}]` {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	if _, err := ExtractJSON("I could not determine the answer."); err == nil {
		t.Fatal("expected error for response without JSON")
	}
}

func TestExtractJSONUnbalanced(t *testing.T) {
	if _, err := ExtractJSON(`{"truncated": "yes`); err == nil {
		t.Fatal("expected error for unbalanced JSON")
	}
}

func TestParseResponse(t *testing.T) {
	type fix struct {
		Email      string  `json:"email"`
		Confidence float64 `json:"confidence"`
	}

	got, err := ParseResponse[fix]("```json\n{\"email\": \"x@y.com\", \"confidence\": 0.9}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "x@y.com" || got.Confidence != 0.9 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestParseResponseTypeMismatch(t *testing.T) {
	type fix struct {
		Count int `json:"count"`
	}
	if _, err := ParseResponse[fix](`{"count": "not a number"}`); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestStripFences(t *testing.T) {
	if got := StripFences("no fences here"); got != "no fences here" {
		t.Errorf("unexpected result: %q", got)
	}
	if got := StripFences("```json\n{}\n```"); got != "{}" {
		t.Errorf("unexpected result: %q", got)
	}
}
