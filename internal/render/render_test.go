package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestRenderXML(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"single", "<doc><id>{{PARSEIT_ID}}</id></doc>", "<doc><id>42</id></doc>"},
		{"repeated", "<a>{{PARSEIT_ID}}</a><b ref=\"{{PARSEIT_ID}}\"/>", "<a>42</a><b ref=\"42\"/>"},
		{"absent", "<doc><id>none</id></doc>", "<doc><id>none</id></doc>"},
		{"not xml at all", "plain {{PARSEIT_ID}} text", "plain 42 text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, "xml", "ignored.path", 42)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderXML_InvalidUTF8(t *testing.T) {
	_, err := Render("<doc>\xff\xfe</doc>", "xml", "", 1)
	if !errors.Is(err, ErrTemplate) {
		t.Fatalf("error = %v, want ErrTemplate", err)
	}
}

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("rendered output is not JSON: %v\n%s", err, s)
	}
	return out
}

func TestRenderJSON_CreatesPath(t *testing.T) {
	got, err := Render("{}", "json", "a.b.c", 42)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := decode(t, got)
	a, _ := doc["a"].(map[string]interface{})
	b, _ := a["b"].(map[string]interface{})
	if n, _ := b["c"].(json.Number); n.String() != "42" {
		t.Fatalf("a.b.c = %v, want 42 in %s", b["c"], got)
	}
	if len(doc) != 1 || len(a) != 1 || len(b) != 1 {
		t.Errorf("unexpected extra keys: %s", got)
	}
}

func TestRenderJSON_PreservesOtherKeys(t *testing.T) {
	payload := `{"invoice":{"number":"INV-1","total":12345678901234567890},"ids":{"other":7},"html":"<b>&</b>"}`
	got, err := Render(payload, "json", "ids.parseit", 9)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := decode(t, got)
	ids := doc["ids"].(map[string]interface{})
	if ids["parseit"].(json.Number).String() != "9" {
		t.Errorf("ids.parseit = %v", ids["parseit"])
	}
	if ids["other"].(json.Number).String() != "7" {
		t.Errorf("ids.other changed: %v", ids["other"])
	}
	invoice := doc["invoice"].(map[string]interface{})
	if invoice["total"].(json.Number).String() != "12345678901234567890" {
		t.Errorf("large number lost precision: %v", invoice["total"])
	}
	if !strings.Contains(got, `"<b>&</b>"`) {
		t.Errorf("html was escaped: %s", got)
	}
}

func TestRenderJSON_NoFieldPathLeavesBody(t *testing.T) {
	got, err := Render(`{"b":1,"a":2}`, "json", "", 5)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "{\n  \"a\": 2,\n  \"b\": 1\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderJSON_Deterministic(t *testing.T) {
	payload := `{"z":{"y":1},"a":[1,2,{"k":"v"}]}`
	first, err := Render(payload, "json", "z.id", 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Render(payload, "json", "z.id", 3)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("rendering is not stable:\n%s\n%s", first, second)
	}
	// Last write wins on re-injection.
	again, err := Render(first, "json", "z.id", 4)
	if err != nil {
		t.Fatal(err)
	}
	z := decode(t, again)["z"].(map[string]interface{})
	if z["id"].(json.Number).String() != "4" {
		t.Errorf("z.id = %v, want 4", z["id"])
	}
}

func TestRenderJSON_Errors(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		fieldPath string
	}{
		{"not json", "<xml/>", "a"},
		{"array root", "[1,2]", "a"},
		{"string root", `"x"`, ""},
		{"empty segment", `{}`, "a..b"},
		{"trailing dot", `{}`, "a."},
		{"trailing bracket", `{"a":1}]`, "x"},
		{"second document", `{"a":1}{"b":2}`, "x"},
		{"trailing text", `{"a":1} trailing garbage`, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Render(tt.payload, "json", tt.fieldPath, 1); !errors.Is(err, ErrTemplate) {
				t.Errorf("error = %v, want ErrTemplate", err)
			}
		})
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{"": "xml", "XML": "xml", " json ": "json", "Json": "json"}
	for in, want := range tests {
		got, err := NormalizeFormat(in)
		if err != nil || got != want {
			t.Errorf("NormalizeFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := NormalizeFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}

func TestRenderJSON_TrailingWhitespace(t *testing.T) {
	got, err := Render("{\"a\":1}\n  \n", "json", "id", 9)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if v := decode(t, got)["id"].(json.Number).String(); v != "9" {
		t.Errorf("id = %s, want 9", v)
	}
}
