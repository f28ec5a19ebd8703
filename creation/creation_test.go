package creation_test

import (
	"encoding/json"
	"strings"
	"testing"

	"ai_creation_broker/creation"
)

func TestNewIDPrefix(t *testing.T) {
	id := creation.NewID()
	if id.IsNil() {
		t.Fatal("expected non-nil id")
	}
	if !strings.HasPrefix(id.String(), "crt_") {
		t.Errorf("id %q missing crt_ prefix", id)
	}
}

func TestParseIDRoundTrip(t *testing.T) {
	orig := creation.NewID()
	parsed, err := creation.ParseID(orig.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("round trip mismatch: %s != %s", parsed, orig)
	}
}

func TestParseIDRejects(t *testing.T) {
	for _, s := range []string{"", "garbage", "plan_01h2xcejqtf2nbrexx3vqjhp41"} {
		if _, err := creation.ParseID(s); err == nil {
			t.Errorf("ParseID(%q) should fail", s)
		}
	}
}

func TestIDScan(t *testing.T) {
	orig := creation.NewID()
	var got creation.ID
	if err := got.Scan(orig.String()); err != nil {
		t.Fatal(err)
	}
	if got.String() != orig.String() {
		t.Errorf("scan mismatch")
	}
	if err := got.Scan(nil); err != nil || !got.IsNil() {
		t.Errorf("scan nil: %v, nil=%v", err, got.IsNil())
	}
	if err := got.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestCreationJSON(t *testing.T) {
	c := creation.New("user_1", "cats", "https://img/1", creation.TypeImage, true)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if m["type"] != "image" || m["publish"] != true || m["user_id"] != "user_1" {
		t.Errorf("unexpected json %s", data)
	}
	if id, _ := m["id"].(string); !strings.HasPrefix(id, "crt_") {
		t.Errorf("id = %v", m["id"])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		c    *creation.Creation
		ok   bool
	}{
		{"ok", creation.New("u", "p", "c", creation.TypeArticle, false), true},
		{"no user", creation.New("", "p", "c", creation.TypeArticle, false), false},
		{"bad type", creation.New("u", "p", "c", creation.Type("video"), false), false},
		{"no id", &creation.Creation{UserID: "u", Type: creation.TypeImage}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok=%v", err, tt.ok)
			}
		})
	}
}

func TestListOptsNormalize(t *testing.T) {
	o := creation.ListOpts{Limit: 0, Offset: -3}.Normalize()
	if o.Limit != creation.DefaultListLimit || o.Offset != 0 {
		t.Errorf("got %+v", o)
	}
	o = creation.ListOpts{Limit: 10, Offset: 5}.Normalize()
	if o.Limit != 10 || o.Offset != 5 {
		t.Errorf("got %+v", o)
	}
}
