// Package intent decodes the structured intent object produced by the
// natural-language layer into a model.Command. Decoding happens once at the
// transport boundary; nothing downstream inspects the raw object again.
package intent

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/mission-orbit-sim/core"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// Wire field names.
const (
	FieldIntent     = "intent"
	FieldDistanceKm = "distance_km"
	FieldSpeedKmps  = "speed_kmps"
)

// Intent values.
const (
	IntentUpdate = "update"
	IntentNone   = "none"
)

// ErrMalformed is returned when the payload is not a JSON object.
var ErrMalformed = errors.New("malformed intent")

// Decode parses a JSON intent object. Only a payload that is not a JSON
// object is an error; bad field values become a NoOp carrying the reason.
func Decode(raw []byte) (model.Command, error) {
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return FromStruct(s), nil
}

// FromStruct converts an intent object into a Command. A nil struct is the
// empty intent.
func FromStruct(s *structpb.Struct) model.Command {
	fields := s.GetFields()

	kind, err := intentKind(fields[FieldIntent])
	if err != nil {
		return noOp(err)
	}
	switch kind {
	case IntentNone:
		return model.NoOp{Reason: model.ReasonNoParameters}
	case "", IntentUpdate:
	default:
		return noOp(&core.ValidationError{Field: FieldIntent, Reason: fmt.Sprintf("unsupported value %q", kind)})
	}

	altitude, err := number(FieldDistanceKm, fields[FieldDistanceKm])
	if err != nil {
		return noOp(err)
	}
	speed, err := number(FieldSpeedKmps, fields[FieldSpeedKmps])
	if err != nil {
		return noOp(err)
	}
	return model.NewCommand(altitude, speed)
}

// ToStruct renders cmd in the wire shape accepted by FromStruct.
func ToStruct(cmd model.Command) *structpb.Struct {
	altitude, speed := model.CommandFields(cmd)
	fields := map[string]*structpb.Value{}
	if altitude == nil && speed == nil {
		fields[FieldIntent] = structpb.NewStringValue(IntentNone)
		return &structpb.Struct{Fields: fields}
	}
	fields[FieldIntent] = structpb.NewStringValue(IntentUpdate)
	if altitude != nil {
		fields[FieldDistanceKm] = structpb.NewNumberValue(*altitude)
	}
	if speed != nil {
		fields[FieldSpeedKmps] = structpb.NewNumberValue(*speed)
	}
	return &structpb.Struct{Fields: fields}
}

// intentKind reads the optional intent discriminator. Absent and null
// both mean update.
func intentKind(v *structpb.Value) (string, error) {
	if v == nil {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return strings.ToLower(strings.TrimSpace(k.StringValue)), nil
	default:
		return "", &core.ValidationError{Field: FieldIntent, Reason: "must be a string"}
	}
}

// number reads an optional non-negative number. Numeric strings are
// accepted because language models often quote them.
func number(field string, v *structpb.Value) (*float64, error) {
	if v == nil {
		return nil, nil
	}

	var f float64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		f = k.NumberValue
	case *structpb.Value_StringValue:
		str := strings.TrimSpace(k.StringValue)
		if str == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, &core.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a number", k.StringValue)}
		}
		f = parsed
	default:
		return nil, &core.ValidationError{Field: field, Reason: "must be a number"}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &core.ValidationError{Field: field, Reason: "must be finite"}
	}
	if f < 0 {
		return nil, &core.ValidationError{Field: field, Reason: fmt.Sprintf("must not be negative, got %g", f)}
	}
	return &f, nil
}

func noOp(err error) model.Command {
	return model.NoOp{Reason: err.Error()}
}
