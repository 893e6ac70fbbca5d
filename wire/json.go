package wire

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// MarshalJSON emits the {"type": tag, "value": ...} form. Strings pass
// through encoding/json, which escapes control characters, so the output
// never contains a raw newline.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) appendJSON(buf *bytes.Buffer) error {
	buf.WriteString(`{"type":"`)
	buf.WriteString(string(v.Tag))
	buf.WriteString(`","value":`)

	switch v.Tag {
	case TagInteger:
		buf.WriteString(strconv.FormatInt(v.Int, 10))
	case TagDouble:
		buf.WriteString(doubleJSON(v.Float))
	case TagString:
		b, err := json.Marshal(v.Str)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).Cause(err).Build()
		}
		buf.Write(b)
	case TagBoolean:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case TagNull:
		buf.WriteString("null")
	case TagObject:
		b, err := json.Marshal(v.Handle)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).Cause(err).Build()
		}
		buf.Write(b)
	case TagResource:
		buf.WriteString(strconv.Itoa(v.Resource))
	case TagException:
		if v.Exception == nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Detail("thrownException value without payload").Build()
		}
		b, err := json.Marshal(v.Exception)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).Cause(err).Build()
		}
		buf.Write(b)
	case TagArray:
		if err := v.appendArrayJSON(buf); err != nil {
			return err
		}
	default:
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("cannot marshal wire tag %q", string(v.Tag)).Build()
	}

	buf.WriteByte('}')
	return nil
}

func (v Value) appendArrayJSON(buf *bytes.Buffer) error {
	if v.Sequential() {
		buf.WriteByte('[')
		for i, e := range v.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.Value.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	buf.WriteByte('{')
	for i, e := range v.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := e.Key.Str
		if e.Key.IsInt {
			key = strconv.FormatInt(e.Key.Int, 10)
		}
		b, err := json.Marshal(key)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).Cause(err).Build()
		}
		buf.Write(b)
		buf.WriteByte(':')
		if err := e.Value.appendJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// doubleJSON formats a float with an explicit fraction or exponent so a
// whole-valued double does not read back as an integer, and spells the
// non-finite values as strings because JSON has no token for them.
func doubleJSON(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NAN"`
	case math.IsInf(f, 1):
		return `"INF"`
	case math.IsInf(f, -1):
		return `"-INF"`
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// UnmarshalJSON parses the {"type": tag, "value": ...} form, preserving key
// order inside JSON-object arrays.
func (v *Value) UnmarshalJSON(b []byte) error {
	var env struct {
		Type  *string         `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("malformed wire value").Cause(err).Build()
	}
	if env.Type == nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("wire value has no type field").Build()
	}
	return v.decodeTagged(Tag(*env.Type), env.Value)
}

func (v *Value) decodeTagged(tag Tag, raw json.RawMessage) error {
	*v = Value{Tag: tag}

	switch tag {
	case TagInteger:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return invalidValue(tag, err)
		}
		i, err := n.Int64()
		if err != nil {
			return invalidValue(tag, err)
		}
		v.Int = i
	case TagDouble:
		if len(raw) > 0 && raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return invalidValue(tag, err)
			}
			switch s {
			case "NAN":
				v.Float = math.NaN()
			case "INF":
				v.Float = math.Inf(1)
			case "-INF":
				v.Float = math.Inf(-1)
			default:
				return errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Detail("unknown double token %q", s).Build()
			}
			return nil
		}
		if err := json.Unmarshal(raw, &v.Float); err != nil {
			return invalidValue(tag, err)
		}
	case TagString:
		if err := json.Unmarshal(raw, &v.Str); err != nil {
			return invalidValue(tag, err)
		}
	case TagBoolean:
		if err := json.Unmarshal(raw, &v.Bool); err != nil {
			return invalidValue(tag, err)
		}
	case TagNull:
		// value is ignored; the original emits null here
	case TagObject:
		if err := json.Unmarshal(raw, &v.Handle); err != nil {
			return invalidValue(tag, err)
		}
	case TagResource:
		if err := json.Unmarshal(raw, &v.Resource); err != nil {
			return invalidValue(tag, err)
		}
	case TagException:
		var exc Exception
		if err := json.Unmarshal(raw, &exc); err != nil {
			return invalidValue(tag, err)
		}
		v.Exception = &exc
	case TagArray:
		return v.decodeArray(raw)
	default:
		return errors.UnknownTag(string(tag))
	}
	return nil
}

func (v *Value) decodeArray(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("array value is empty").Build()
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return invalidValue(TagArray, err)
		}
		v.Entries = make([]Entry, 0, len(items))
		for i, item := range items {
			var elem Value
			if err := elem.UnmarshalJSON(item); err != nil {
				return err
			}
			v.Entries = append(v.Entries, Entry{Key: bridge.IntKey(int64(i)), Value: elem})
		}
		return nil
	}

	// JSON object form: walk tokens so key order survives.
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return invalidValue(TagArray, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("array value is neither list nor object").Build()
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return invalidValue(TagArray, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("non-string array key %v", keyTok).Build()
		}
		var itemRaw json.RawMessage
		if err := dec.Decode(&itemRaw); err != nil {
			return invalidValue(TagArray, err)
		}
		var elem Value
		if err := elem.UnmarshalJSON(itemRaw); err != nil {
			return err
		}
		v.Entries = append(v.Entries, Entry{Key: parseKey(key), Value: elem})
	}
	return nil
}

// parseKey restores integer array keys: a canonical base-10 key ("0", "42",
// "-3", but not "05" or "1e3") decodes as an integer, anything else stays a
// string.
func parseKey(s string) bridge.Key {
	if s == "0" {
		return bridge.IntKey(0)
	}
	digits := s
	if strings.HasPrefix(digits, "-") {
		digits = digits[1:]
	}
	if len(digits) == 0 || digits[0] < '1' || digits[0] > '9' {
		return bridge.StringKey(s)
	}
	for i := 1; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return bridge.StringKey(s)
		}
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return bridge.StringKey(s)
	}
	return bridge.IntKey(i)
}

func invalidValue(tag Tag, cause error) error {
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Detail("malformed %s value", string(tag)).Cause(cause).Build()
}
