package internal

import "testing"

func TestToExportedName(t *testing.T) {
	cases := map[string]string{
		"email":      "Email",
		"user_name":  "UserName",
		"_id":        "ID",
		"api_key":    "APIKey",
		"http_url":   "HTTPURL",
		"last_login": "LastLogin",
	}
	for in, want := range cases {
		if got := ToExportedName(in); got != want {
			t.Errorf("ToExportedName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeStructName(t *testing.T) {
	cases := map[string]string{
		"users":      "User",
		"blog_posts": "BlogPost",
		"categories": "Category",
		"statuses":   "Status",
		"boxes":      "Box",
		"address":    "Address",
	}
	for in, want := range cases {
		if got := SanitizeStructName(in); got != want {
			t.Errorf("SanitizeStructName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMangoTag(t *testing.T) {
	if got := FormatMangoTag(true, false, true); got != "unique,blank" {
		t.Errorf("FormatMangoTag = %q, want unique,blank", got)
	}
	if got := FormatMangoTag(false, false, false); got != "" {
		t.Errorf("FormatMangoTag = %q, want empty", got)
	}
}
