package decode

import (
	"encoding/base64"
	"encoding/hex"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainTextIdentity(t *testing.T) {
	raw := []byte("temp=21.5,hum=40")
	out, err := Decode(raw, PlainText)
	require.NoError(t, err)
	require.Equal(t, raw, out)

	raw[0] = 'X'
	require.Equal(t, "temp=21.5,hum=40", string(out), "decoded payload aliases frame")

	empty, err := Decode([]byte{}, PlainText)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Len(t, empty, 0)
}

func TestHexadecimalDecode(t *testing.T) {
	out, err := Decode([]byte("DEADbeef00"), Hexadecimal)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x00}, out)

	for _, bad := range []string{"abc", "zz", "0g", "12 34", "0x12"} {
		_, err := Decode([]byte(bad), Hexadecimal)
		require.ErrorIs(t, err, ErrMalformedEncoding, "input %q", bad)
	}
}

func TestBase64Decode(t *testing.T) {
	cases := map[string]string{
		"QUJD":     "ABC",
		"QUI=":     "AB",
		"QUI":      "AB",
		"QQ==":     "A",
		"QQ":       "A",
		"":         "",
		"aGVsbG8=": "hello",
	}
	for in, want := range cases {
		out, err := Decode([]byte(in), Base64)
		require.NoError(t, err, "input %q", in)
		require.Equal(t, want, string(out), "input %q", in)
	}

	for _, bad := range []string{"QQ=", "Q", "QU!D", "QUJD=", "QR==", "-_-_", "QU\nJD", "QUJD\r", "QUJD\r\n", "\n"} {
		_, err := Decode([]byte(bad), Base64)
		require.ErrorIs(t, err, ErrMalformedEncoding, "input %q", bad)
	}
}

func TestHexadecimalRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 64; i++ {
		payload := make([]byte, rng.Intn(96))
		rng.Read(payload)

		encoded := []byte(hex.EncodeToString(payload))
		out, err := Decode(encoded, Hexadecimal)
		require.NoError(t, err)
		require.Equal(t, payload, out)

		upper, err := Decode([]byte(strings.ToUpper(string(encoded))), Hexadecimal)
		require.NoError(t, err)
		require.Equal(t, payload, upper)
	}
}

func TestBase64RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 64; i++ {
		payload := make([]byte, rng.Intn(96))
		rng.Read(payload)

		padded, err := Decode([]byte(base64.StdEncoding.EncodeToString(payload)), Base64)
		require.NoError(t, err)
		require.Equal(t, payload, padded)

		raw, err := Decode([]byte(base64.RawStdEncoding.EncodeToString(payload)), Base64)
		require.NoError(t, err)
		require.Equal(t, payload, raw)
	}
}

func TestEncodeInvertsDecode(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x7f, 0x80, 0xff, 'a'}
	for _, m := range []Method{PlainText, Hexadecimal, Base64} {
		enc, err := Encode(payload, m)
		require.NoError(t, err, m.String())
		dec, err := Decode(enc, m)
		require.NoError(t, err, m.String())
		require.Equal(t, payload, dec, m.String())
	}
}

func TestUnknownMethod(t *testing.T) {
	_, err := Decode([]byte("x"), Method(9))
	require.ErrorIs(t, err, ErrUnknownMethod)
	_, err = Encode([]byte("x"), Method(9))
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"":            PlainText,
		"plain_text":  PlainText,
		"HEX":         Hexadecimal,
		"hexadecimal": Hexadecimal,
		" base64 ":    Base64,
	}
	for raw, want := range cases {
		got, err := ParseMethod(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}
	_, err := ParseMethod("rot13")
	require.ErrorIs(t, err, ErrUnknownMethod)
}
