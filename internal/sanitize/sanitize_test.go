package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextStripsTagsAndSlashes(t *testing.T) {
	assert.Equal(t, "it's a bake sale", Text(`it\'s a <b>bake</b> sale`))
	assert.Equal(t, "hello", Text("  hello  "))
	assert.Equal(t, "alert(1)", Text("<script>alert(1)</script>"))
}

func TestRichTextKeepsAllowedSubset(t *testing.T) {
	assert.Equal(t, "<p>Bring <strong>plates</strong></p>", RichText(`<p style="x">Bring <strong>plates</strong></p>`))
	assert.Equal(t, "alert(1)", RichText("<script>alert(1)</script>"))
	assert.Equal(t, `<a href="https://example.org">map</a>`, RichText(`<a onclick="x()" href="https://example.org">map</a>`))
	assert.Equal(t, "<a>map</a>", RichText(`<a href="javascript:x()">map</a>`))
}

func TestEmailValidation(t *testing.T) {
	assert.Equal(t, "chair@example.org", Email(" chair@example.org "))
	assert.Equal(t, "", Email("not-an-email"))
	assert.Equal(t, ChairEmailToken, Email(ChairEmailToken))
	assert.Equal(t, "", Email("a@b@c"))
}

func TestDateNormalization(t *testing.T) {
	assert.Equal(t, "2025-06-01", Date("2025-06-01"))
	assert.Equal(t, "2025-06-01", Date("2025-6-1"))
	assert.Equal(t, "", Date("2025-13-40"))
	assert.Equal(t, "", Date("not a date"))
	assert.Equal(t, "", Date(""))
	assert.Equal(t, DateSentinel, Date(DateSentinel))
}

func TestDatesRoundTrip(t *testing.T) {
	assert.Equal(t, "2025-01-01,2025-01-02", Dates("2025-01-01, 2025-01-02"))
	// an embedded invalid member is dropped, not fatal
	assert.Equal(t, "2025-01-01,2025-01-02", Dates("2025-01-01,2025-13-40,2025-01-02"))
	assert.Equal(t, DateSentinel, Dates(DateSentinel))
	assert.Equal(t, "", Dates(" "))
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2025-02-28"))
	assert.False(t, ValidDate("2025-02-30"))
	assert.True(t, ValidDate(DateSentinel))
	assert.False(t, ValidDate("tomorrow"))
}

func TestTimeIsVerbatim(t *testing.T) {
	assert.Equal(t, "6:30 PM", Time(" 6:30 PM "))
	assert.Equal(t, "18:30", Time("18:30"))
}

func TestIntCoercion(t *testing.T) {
	assert.Equal(t, 5, Int("-5"))
	assert.Equal(t, 12, Int("12abc"))
	assert.Equal(t, 0, Int("abc"))
	assert.Equal(t, -5, IntVal("-5"))
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "YES", YesNo("yes"))
	assert.Equal(t, "YES", YesNo("Yes "))
	assert.Equal(t, "NO", YesNo("y"))
	assert.Equal(t, "NO", YesNo(""))
}

func TestArray(t *testing.T) {
	assert.Equal(t, `["a","b"]`, Array(`["a", "b"]`))
	assert.Equal(t, `["loose"]`, Array("loose"))
	assert.Equal(t, "[]", Array(""))
}

func TestSanitizationIdempotence(t *testing.T) {
	inputs := map[Type][]string{
		TypeText:     {`it\'s <b>fine</b>`, "plain", ""},
		TypeRichText: {`<p style="x">hi</p>`, `<a href="https://e.org">x</a>`, "<script>nope</script>"},
		TypeEmail:    {"a@b.org", "junk", ChairEmailToken},
		TypePhone:    {"+1 (555) 123-4567x", "555.1234"},
		TypeDate:     {"2025-06-01", "2025-13-40", DateSentinel},
		TypeDates:    {"2025-01-01, 2025-01-02", "2025-13-40,2025-01-01"},
		TypeTime:     {" 6:30 PM ", "18:30"},
		TypeInt:      {"-5", "12abc", "x"},
		TypeIntVal:   {"-5", "7"},
		TypeFloat:    {"1.5", "junk"},
		TypeBool:     {"yes", "0", "true"},
		TypeYesNo:    {"yes", "nope", "YES"},
		TypeArray:    {`["a"]`, "loose", ""},
	}
	for typ, values := range inputs {
		for _, v := range values {
			once := Value(typ, v)
			twice := Value(typ, once)
			require.Equal(t, once, twice, "type %s input %q", typ, v)
		}
	}
}
