package frame

// Wrap surrounds body with the delimiters mode expects, producing bytes the
// matching Detector reads back as exactly one frame provided body does not
// contain the end delimiter.
func Wrap(mode Mode, delims Delimiters, body []byte) []byte {
	switch mode {
	case EndDelimiterOnly:
		out := make([]byte, 0, len(body)+len(delims.End))
		out = append(out, body...)
		return append(out, delims.End...)
	case StartAndEndDelimiter:
		out := make([]byte, 0, len(delims.Start)+len(body)+len(delims.End))
		out = append(out, delims.Start...)
		out = append(out, body...)
		return append(out, delims.End...)
	default:
		return append([]byte{}, body...)
	}
}
