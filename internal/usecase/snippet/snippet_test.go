package snippet

import (
	"html"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuild_Empty(t *testing.T) {
	if got := Build("", "gas", nil); got != "" {
		t.Errorf("Build() = %q, want empty", got)
	}
}

func TestBuild_NoHitReturnsLeadingWindow(t *testing.T) {
	text := strings.Repeat("alpha   beta\n", 100)
	got := Build(text, "zzz", nil)
	if utf8.RuneCountInString(got) != Window {
		t.Errorf("len = %d, want %d", utf8.RuneCountInString(got), Window)
	}
	if strings.Contains(got, "  ") || strings.Contains(got, "\n") {
		t.Error("whitespace not collapsed")
	}
	if strings.HasPrefix(got, ellipsis) {
		t.Error("leading window must not start with an ellipsis")
	}
}

func TestBuild_ShortTextNoEllipsis(t *testing.T) {
	got := Build("Gas mains shall be  buried.", "gas main", nil)
	if got != "Gas mains shall be buried." {
		t.Errorf("Build() = %q", got)
	}
}

func TestBuild_CentersOnHit(t *testing.T) {
	text := strings.Repeat("x ", 400) + "trench backfill" + strings.Repeat(" y", 400)
	got := Build(text, "trench backfill", nil)
	if !strings.Contains(got, "trench backfill") {
		t.Fatalf("window misses the hit: %q", got)
	}
	if !strings.HasPrefix(got, ellipsis) || !strings.HasSuffix(got, ellipsis) {
		t.Errorf("expected ellipsis at both edges: %q", got)
	}
}

func TestBuild_ClampedAtEnd(t *testing.T) {
	text := strings.Repeat("x ", 400) + "final clause"
	got := Build(text, "clause", nil)
	if !strings.HasSuffix(got, "final clause") {
		t.Errorf("window should end at text end: %q", got)
	}
	if !strings.HasPrefix(got, ellipsis) {
		t.Errorf("window should start with ellipsis: %q", got)
	}
}

func TestBuild_ConceptTermPreferred(t *testing.T) {
	text := "gas " + strings.Repeat("x ", 400) + "right-of-way permit" + strings.Repeat(" y", 400)
	got := Build(text, "gas permit", []string{"right-of-way permit"})
	if !strings.Contains(got, "right-of-way permit") {
		t.Errorf("concept term should center the window: %q", got)
	}
}

func TestBuild_MultibyteSafe(t *testing.T) {
	text := strings.Repeat("é ", 300) + "Ärger clause" + strings.Repeat(" ü", 300)
	got := Build(text, "ärger", nil)
	if !utf8.ValidString(got) {
		t.Fatal("snippet is not valid UTF-8")
	}
	if !strings.Contains(got, "Ärger") {
		t.Errorf("window misses the hit: %q", got)
	}
}

func TestHighlight(t *testing.T) {
	got := Highlight("Gas main & valve", "gas main")
	want := `<span class="hit">Gas main</span> &amp; valve`
	if got != want {
		t.Errorf("Highlight() = %q, want %q", got, want)
	}
}

func TestHighlight_Tokens(t *testing.T) {
	got := Highlight("The main runs under gas pipes", "gas main")
	want := `The <span class="hit">main</span> runs under <span class="hit">gas</span> pipes`
	if got != want {
		t.Errorf("Highlight() = %q, want %q", got, want)
	}
}

func TestHighlight_EscapesInjectedMarkup(t *testing.T) {
	snip := `<script>alert("x")</script> gas`
	got := Highlight(snip, "script")
	if strings.Contains(got, "<script>") {
		t.Errorf("unescaped markup: %q", got)
	}
	if !strings.Contains(got, `&lt;<span class="hit">script</span>&gt;`) {
		t.Errorf("Highlight() = %q", got)
	}
}

func TestHighlight_StripsSentinels(t *testing.T) {
	got := Highlight("a\x00HIT_OPEN\x00b gas", "gas")
	if strings.Contains(got, "\x00") {
		t.Errorf("sentinel leaked: %q", got)
	}
	if strings.Count(got, openMarkup) != 1 {
		t.Errorf("Highlight() = %q", got)
	}
}

func TestHighlight_NoTerms(t *testing.T) {
	if got := Highlight("a < b", ""); got != "a &lt; b" {
		t.Errorf("Highlight() = %q", got)
	}
	if got := Highlight("a < b", "ab"); got != "a &lt; b" {
		t.Errorf("short query Highlight() = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		`Contractor shall restore "sidewalk" & curb <per detail> after trench backfill.`,
		strings.Repeat("filler & more ", 60) + "trench backfill" + strings.Repeat(" <tail>", 80),
	}
	for _, text := range texts {
		snip := Build(text, "trench backfill", nil)
		if !strings.Contains(snip, "trench backfill") {
			t.Fatalf("snippet misses query: %q", snip)
		}
		out := Highlight(snip, "trench backfill")
		bare := strings.ReplaceAll(strings.ReplaceAll(out, openMarkup, ""), closeTag, "")
		if strings.ContainsAny(bare, `<>"`) {
			t.Errorf("unescaped characters outside highlight markup: %q", bare)
		}
		if html.UnescapeString(bare) != snip {
			t.Errorf("unescape mismatch:\n got %q\nwant %q", html.UnescapeString(bare), snip)
		}
	}
}
