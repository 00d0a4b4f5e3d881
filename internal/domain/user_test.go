package domain

import "testing"

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input  string
		want   Language
		wantOK bool
	}{
		{"1", LangEN, true},
		{"english", LangEN, true},
		{"English", LangEN, true},
		{" EN ", LangEN, true},
		{"2", LangHI, true},
		{"hindi", LangHI, true},
		{"HINDI", LangHI, true},
		{"banana", "", false},
		{"", "", false},
		{"3", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseLanguage(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLanguage(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPreferredLanguage(t *testing.T) {
	u := &User{Language: LangHI}
	if got := u.PreferredLanguage(); got != LangHI {
		t.Errorf("Expected hi, got %s", got)
	}

	u = &User{}
	if got := u.PreferredLanguage(); got != LangEN {
		t.Errorf("Expected en default, got %s", got)
	}
}
