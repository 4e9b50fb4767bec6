package htmlsanitize_test

import (
	"reflect"
	"testing"

	"github.com/dalemusser/tribehub/internal/app/system/htmlsanitize"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Loves board games", "Loves board games"},
		{"strips tags", "<p><strong>Bold</strong> hiker</p>", "Bold hiker"},
		{"drops script", "Hello<script>alert('xss')</script>", "Hello"},
		{"decodes entities", "Tom &amp; Jerry fan", "Tom & Jerry fan"},
		{"keeps ampersand", "Rock & roll", "Rock & roll"},
		{"collapses whitespace", "  quiet \n\n reader  ", "quiet reader"},
		{"drops attributes", `<a href="javascript:alert(1)">link</a>`, "link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextLimit(t *testing.T) {
	if got := htmlsanitize.TextLimit("<b>abcdef</b>", 3); got != "abc" {
		t.Errorf("got %q, want abc", got)
	}
	if got := htmlsanitize.TextLimit("héllo", 10); got != "héllo" {
		t.Errorf("got %q, want héllo", got)
	}
	if got := htmlsanitize.TextLimit("abc", 0); got != "abc" {
		t.Errorf("zero limit should not truncate, got %q", got)
	}
}

func TestTags(t *testing.T) {
	got := htmlsanitize.Tags([]string{"Hiking", " hiking ", "<i>Chess</i>", "", "<script>x</script>", "Yoga"})
	want := []string{"hiking", "chess", "yoga"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v, want %v", got, want)
	}
}
