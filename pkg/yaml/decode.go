package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder reads YAML documents from a stream and converts parse failures
// into [*Error]s carrying the offending token.
type Decoder struct {
	d *yaml.Decoder
}

// DecodeOpt configures a [Decoder].
type DecodeOpt func(*decodeOptions)

type decodeOptions struct {
	strict bool
}

// WithStrict rejects duplicate map keys and fields not present in the
// target type.
func WithStrict() DecodeOpt {
	return func(o *decodeOptions) {
		o.strict = true
	}
}

// NewDecoder returns a [Decoder] reading from r. Duplicate keys are allowed
// unless [WithStrict] is given; the last value wins.
func NewDecoder(r io.Reader, opts ...DecodeOpt) *Decoder {
	o := &decodeOptions{}
	for _, opt := range opts {
		opt(o)
	}

	yopts := []yaml.DecodeOption{}
	if o.strict {
		yopts = append(yopts, yaml.DisallowUnknownField())
	} else {
		yopts = append(yopts, yaml.AllowDuplicateMapKey())
	}

	return &Decoder{d: yaml.NewDecoder(r, yopts...)}
}

// Decode reads the next document into v. It returns [io.EOF] when the
// stream is exhausted.
func (d *Decoder) Decode(v any) error {
	return toError(d.d.Decode(v))
}

// Unmarshal decodes a single YAML document from data into v.
func Unmarshal(data []byte, v any, opts ...DecodeOpt) error {
	return NewDecoder(bytes.NewReader(data), opts...).Decode(v)
}

// toError converts a goccy error into an [*Error] positioned at its token.
// Other errors, including [io.EOF], pass through unchanged.
func toError(err error) error {
	if err == nil {
		return nil
	}

	var yerr yaml.Error
	if !errors.As(err, &yerr) {
		return err
	}

	return NewError(errors.New(yerr.GetMessage()), WithToken(yerr.GetToken()))
}
