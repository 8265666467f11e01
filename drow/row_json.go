package drow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// UnmarshalJSON implements the json.Unmarshaler interface, objects are
// decoded as rows preserving the key order and arrays of objects as []Row.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	v, err := jsonReadValue(dec, nil)
	if err != nil {
		return err
	}

	switch v := v.(type) {
	case Row:
		*r = v
	default:
		return fmt.Errorf("Row.UnmarshalJSON: unexpected type: %T", v)
	}

	return nil
}

// MarshalJSON implements the json.Marshaler interface keeping the field order.
func (r Row) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "{")
	for i, f := range r {
		data, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("Row.MarshalJSON: field %q: %w", f.Name, err)
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(data)
		if i < len(r)-1 {
			fmt.Fprintf(buf, ",")
		}
	}
	fmt.Fprintf(buf, "}")
	return buf.Bytes(), nil
}

func jsonReadArray(dec *json.Decoder) (any, error) {
	data := []any{}
	rows := true
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if v, ok := tok.(json.Delim); ok && v == ']' {
			break
		}

		v, err := jsonReadValue(dec, tok)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(Row); !ok {
			rows = false
		}
		data = append(data, v)
	}
	if !rows || len(data) == 0 {
		return data, nil
	}
	ret := make([]Row, len(data))
	for i, v := range data {
		ret[i] = v.(Row)
	}
	return ret, nil
}

func jsonReadValue(dec *json.Decoder, tok json.Token) (any, error) {
	if tok == nil {
		t, err := dec.Token()
		if err != nil {
			return nil, err
		}
		tok = t
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return jsonReadObject(dec)
		case '[':
			return jsonReadArray(dec)
		}
	default:
		return t, nil
	}
	return nil, errors.New("unexpected json delimiter")
}

func jsonReadObject(dec *json.Decoder) (Row, error) {
	row := Row{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if t, ok := tok.(json.Delim); ok && t == '}' {
			return row, nil
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key: %v", tok)
		}
		value, err := jsonReadValue(dec, nil)
		if err != nil {
			return nil, err
		}
		row.set(key, value)
	}
}
