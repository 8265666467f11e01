package etlparquet

import (
	"fmt"
	"math/big"
	"time"

	"github.com/cockroachdb/apd"
	"github.com/fraugster/parquet-go/floor/interfaces"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"
	"github.com/stdiopt/rollup/drow"
)

// decimalPrecision is the precision declared for DECIMAL columns.
const decimalPrecision = 38

type drowUnmarshaler struct {
	schema *parquetschema.SchemaDefinition
	row    drow.Row
}

func (u *drowUnmarshaler) UnmarshalParquet(obj interfaces.UnmarshalObject) error {
	data := obj.GetData()
	u.row = make(drow.Row, 0, len(u.schema.RootColumn.Children))
	for _, ch := range u.schema.RootColumn.Children {
		el := ch.SchemaElement
		v, err := decodeValue(el, data[el.Name])
		if err != nil {
			return fmt.Errorf("column %q: %w", el.Name, err)
		}
		u.row = append(u.row, drow.F(el.Name, v))
	}
	return nil
}

func decodeValue(el *parquet.SchemaElement, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if lt := el.LogicalType; lt != nil && lt.TIMESTAMP != nil && lt.TIMESTAMP.Unit != nil {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("timestamp is %T, want int64", v)
		}
		switch u := lt.TIMESTAMP.Unit; {
		case u.MILLIS != nil:
			return time.UnixMilli(n).UTC(), nil
		case u.MICROS != nil:
			return time.UnixMicro(n).UTC(), nil
		default:
			return time.Unix(0, n).UTC(), nil
		}
	}
	if el.ConvertedType == nil {
		if b, ok := v.([]byte); ok && el.LogicalType != nil && el.LogicalType.STRING != nil {
			return string(b), nil
		}
		return v, nil
	}
	switch el.GetConvertedType() {
	case parquet.ConvertedType_UTF8:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("string is %T, want []byte", v)
		}
		return string(b), nil
	case parquet.ConvertedType_TIMESTAMP_MILLIS:
		return time.UnixMilli(v.(int64)).UTC(), nil
	case parquet.ConvertedType_TIMESTAMP_MICROS, parquet.ConvertedType_TIME_MICROS:
		return time.UnixMicro(v.(int64)).UTC(), nil
	case parquet.ConvertedType_DECIMAL:
		exp := -el.GetScale()
		switch vv := v.(type) {
		case []byte:
			return decimalFromBytes(vv, exp), nil
		case int32:
			return apd.New(int64(vv), exp), nil
		case int64:
			return apd.New(vv, exp), nil
		default:
			return nil, fmt.Errorf("decimal is %T", v)
		}
	}
	return v, nil
}

type drowMarshaler struct {
	schema *parquetschema.SchemaDefinition
	row    drow.Row
}

func (m *drowMarshaler) MarshalParquet(obj interfaces.MarshalObject) error {
	for _, ch := range m.schema.RootColumn.Children {
		name := ch.SchemaElement.Name
		f, ok := m.row.Lookup(name)
		if !ok || f.Value == nil {
			continue
		}
		e := obj.AddField(name)
		switch v := f.Value.(type) {
		case string:
			e.SetByteArray([]byte(v))
		case []byte:
			e.SetByteArray(v)
		case int:
			e.SetInt64(int64(v))
		case int8:
			e.SetInt32(int32(v))
		case int16:
			e.SetInt32(int32(v))
		case int32:
			e.SetInt32(v)
		case int64:
			e.SetInt64(v)
		case uint8:
			e.SetInt32(int32(v))
		case uint16:
			e.SetInt32(int32(v))
		case uint32:
			e.SetInt64(int64(v))
		case uint64:
			e.SetInt64(int64(v))
		case uint:
			e.SetInt64(int64(v))
		case float32:
			e.SetFloat32(v)
		case float64:
			e.SetFloat64(v)
		case bool:
			e.SetBool(v)
		case time.Time:
			e.SetInt64(v.UnixNano())
		case *apd.Decimal:
			b, err := decimalBytes(v, ch.SchemaElement.GetScale())
			if err != nil {
				return fmt.Errorf("column %q: %w", name, err)
			}
			e.SetByteArray(b)
		default:
			return fmt.Errorf("column %q: unsupported type: %T", name, v)
		}
	}
	return nil
}

// schemaFrom builds a schema from the value types of r, every column is
// optional so later rows may hold nil values.
func schemaFrom(r drow.Row) (*parquetschema.SchemaDefinition, error) {
	root := &parquetschema.SchemaDefinition{
		RootColumn: &parquetschema.ColumnDefinition{
			SchemaElement: &parquet.SchemaElement{Name: "row"},
		},
	}
	for _, f := range r {
		el, err := schemaElement(f)
		if err != nil {
			return nil, err
		}
		root.RootColumn.Children = append(root.RootColumn.Children, &parquetschema.ColumnDefinition{
			SchemaElement: el,
		})
	}
	return root, nil
}

func schemaElement(f drow.Field) (*parquet.SchemaElement, error) {
	rep := parquet.FieldRepetitionType_OPTIONAL
	el := &parquet.SchemaElement{
		Name:           f.Name,
		RepetitionType: &rep,
	}
	typ := func(t parquet.Type) { el.Type = &t }

	switch v := f.Value.(type) {
	case int8, int16, int32, uint8, uint16:
		typ(parquet.Type_INT32)
	case int, int64, uint, uint32, uint64:
		typ(parquet.Type_INT64)
	case float32:
		typ(parquet.Type_FLOAT)
	case float64:
		typ(parquet.Type_DOUBLE)
	case bool:
		typ(parquet.Type_BOOLEAN)
	case []byte:
		typ(parquet.Type_BYTE_ARRAY)
	case string:
		typ(parquet.Type_BYTE_ARRAY)
		el.ConvertedType = parquet.ConvertedTypePtr(parquet.ConvertedType_UTF8)
		el.LogicalType = &parquet.LogicalType{STRING: &parquet.StringType{}}
	case time.Time:
		typ(parquet.Type_INT64)
		el.LogicalType = &parquet.LogicalType{
			TIMESTAMP: &parquet.TimestampType{
				IsAdjustedToUTC: true,
				Unit:            &parquet.TimeUnit{NANOS: &parquet.NanoSeconds{}},
			},
		}
	case *apd.Decimal:
		scale := int32(0)
		if v != nil && v.Exponent < 0 {
			scale = -v.Exponent
		}
		precision := int32(decimalPrecision)
		typ(parquet.Type_BYTE_ARRAY)
		el.ConvertedType = parquet.ConvertedTypePtr(parquet.ConvertedType_DECIMAL)
		el.Scale = &scale
		el.Precision = &precision
		el.LogicalType = &parquet.LogicalType{
			DECIMAL: &parquet.DecimalType{Scale: scale, Precision: precision},
		}
	case nil:
		return nil, fmt.Errorf("column %q: cannot infer type from nil", f.Name)
	default:
		return nil, fmt.Errorf("column %q: unsupported type %T", f.Name, v)
	}
	return el, nil
}

// decimalBytes returns the big endian two's complement coefficient of d at
// the given scale.
func decimalBytes(d *apd.Decimal, scale int32) ([]byte, error) {
	q := new(apd.Decimal)
	ctx := apd.BaseContext.WithPrecision(decimalPrecision)
	if _, err := ctx.Quantize(q, d, -scale); err != nil {
		return nil, err
	}
	c := new(big.Int).Set(&q.Coeff)
	if q.Negative {
		c.Neg(c)
	}
	return toTwosComplement(c), nil
}

func toTwosComplement(c *big.Int) []byte {
	if c.Sign() >= 0 {
		b := c.Bytes()
		if len(b) == 0 || b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// smallest n with -2^(8n-1) <= c
	abs := new(big.Int).Neg(c)
	abs.Sub(abs, big.NewInt(1))
	n := len(abs.Bytes()) + 1
	if ab := abs.Bytes(); len(ab) > 0 && ab[0]&0x80 == 0 {
		n = len(ab)
	}
	t := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	t.Add(t, c)
	b := t.Bytes()
	for len(b) < n {
		b = append([]byte{0xff}, b...)
	}
	return b
}

// decimalFromBytes keeps the sign in Negative and a non negative Coeff.
func decimalFromBytes(b []byte, exp int32) *apd.Decimal {
	c := fromTwosComplement(b)
	d := apd.NewWithBigInt(c, exp)
	d.Negative = c.Sign() < 0
	d.Coeff.Abs(&d.Coeff)
	return d
}

func fromTwosComplement(b []byte) *big.Int {
	c := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		c.Sub(c, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return c
}
