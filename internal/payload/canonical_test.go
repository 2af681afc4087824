package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	obj := Object{
		"zebra": String("z"),
		"apple": String("a"),
		"mango": Number("3"),
	}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"apple":"a","mango":3,"zebra":"z"}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(String("<mets> & </mets>"))
	require.NoError(t, err)
	assert.Equal(t, `"<mets> & </mets>"`, string(got))
}

func TestMarshalCanonical_NFCNormalisesStrings(t *testing.T) {
	// "e" + combining acute accent normalises to the precomposed form.
	got, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_LineSeparatorsAreLiteral(t *testing.T) {
	got, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))
}

func TestMarshalCanonical_EscapedBackslashBeforeU2028Text(t *testing.T) {
	got, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}

func TestMarshalCanonical_Numbers(t *testing.T) {
	tests := []struct {
		in   Number
		want string
	}{
		{"42", "42"},
		{"-7", "-7"},
		{"1.50", "1.5"},
		{"2.0", "2"},
		{"1e3", "1000"},
		{"12345678901234567890123", "12345678901234567890123"},
		{"-98765432109876543210", "-98765432109876543210"},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_PlainGoValues(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"ids":   []any{"CSIP1", "CSIP2"},
		"valid": true,
		"count": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"count":2,"ids":["CSIP1","CSIP2"],"valid":true}`, string(got))
}

func TestMarshalCanonical_RejectsInvalidNumberLiteral(t *testing.T) {
	for _, lit := range []string{"", "abc", "1.", "01", " 1", "1 2"} {
		_, err := MarshalCanonical(Number(lit))
		assert.Error(t, err, "%q", lit)
	}
}

func TestMarshalOrdered_KeepsStringsAndLiterals(t *testing.T) {
	obj := Object{
		"file":  String("Cafe\u0301.xml"),
		"nfd":   String("Cafe\u0301"),
		"big":   Number("12345678901234567890123"),
		"ratio": Number("1.50"),
		"exp":   Number("1e3"),
		"html":  String("<a>"),
	}
	got, err := MarshalOrdered(obj)
	require.NoError(t, err)
	want := "{\"big\":12345678901234567890123,\"exp\":1e3,\"file\":\"Cafe\u0301.xml\",\"html\":\"<a>\",\"nfd\":\"Cafe\u0301\",\"ratio\":1.50}"
	assert.Equal(t, want, string(got))
}

func TestMarshalOrdered_RejectsInvalidNumberLiteral(t *testing.T) {
	_, err := MarshalOrdered(Number("NaN"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestDocument_MarshalsUnnormalised(t *testing.T) {
	data, err := json.Marshal(Document{Value: Object{"m": String("e\u0301")}})
	require.NoError(t, err)

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, String("e\u0301"), back.Value.(Object)["m"])
}

func TestOrderedJSON_Struct(t *testing.T) {
	type record struct {
		Zeta  string `json:"zeta"`
		Alpha string `json:"alpha"`
	}
	got, err := OrderedJSON(record{Zeta: "e\u0301", Alpha: "<a>"})
	require.NoError(t, err)
	assert.Equal(t, "{\"alpha\":\"<a>\",\"zeta\":\"e\u0301\"}", string(got))
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported payload type")
}

func TestDocument_EmbeddedJSONTextStaysAString(t *testing.T) {
	// A tool that prints JSON-looking text inside a message must not have
	// that text spliced into the surrounding document.
	type wrapper struct {
		Report Document `json:"report"`
	}
	msg := `{"level":"ERROR","text":"bad \"quote\"}`
	w := wrapper{Report: Document{Value: Object{"message": String(msg)}}}

	data, err := json.Marshal(w)
	require.NoError(t, err)

	var back wrapper
	require.NoError(t, json.Unmarshal(data, &back))
	obj, ok := back.Report.Value.(Object)
	require.True(t, ok)
	assert.Equal(t, String(msg), obj["message"])
}

func TestDocument_NullRoundTrip(t *testing.T) {
	var d Document
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.True(t, d.IsZero())
}

func TestDigest_StableAcrossKeyOrder(t *testing.T) {
	a, err := ParseObject([]byte(`{"a":1,"b":{"c":"x","d":[1,2]}}`))
	require.NoError(t, err)
	b, err := ParseObject([]byte(`{"b":{"d":[1,2],"c":"x"},"a":1}`))
	require.NoError(t, err)

	assert.Equal(t, MustDigest(DomainReport, a), MustDigest(DomainReport, b))
	assert.NotEqual(t, MustDigest(DomainReport, a), MustDigest(DomainResult, a))
	assert.Len(t, MustDigest(DomainReport, a), 64)
}

func TestCanonicalJSON_Struct(t *testing.T) {
	type record struct {
		Zeta  string `json:"zeta"`
		Alpha int    `json:"alpha"`
		HTML  string `json:"html"`
	}
	got, err := CanonicalJSON(record{Zeta: "z", Alpha: 1, HTML: "<a>"})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":1,"html":"<a>","zeta":"z"}`, string(got))
}
