package model

import "fmt"

// ReasonNoParameters is reported when a command asks for nothing.
const ReasonNoParameters = "no specific parameters requested"

// CommandKind tags the Command variants.
type CommandKind int

const (
	KindNoOp CommandKind = iota
	KindUpdateAltitude
	KindUpdateSpeed
	KindUpdateBoth
)

func (k CommandKind) String() string {
	switch k {
	case KindNoOp:
		return "noop"
	case KindUpdateAltitude:
		return "update_altitude"
	case KindUpdateSpeed:
		return "update_speed"
	case KindUpdateBoth:
		return "update_both"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is a decoded orbit intent. The concrete types are NoOp,
// UpdateAltitude, UpdateSpeed and UpdateBoth; no other package can add
// variants.
type Command interface {
	Kind() CommandKind
	isCommand()
}

// NoOp leaves the orbit untouched. Reason is shown to the user.
type NoOp struct {
	Reason string
}

// UpdateAltitude moves the orbit to a new altitude above the body surface.
type UpdateAltitude struct {
	AltitudeKm float64
}

// UpdateSpeed sets the linear orbital speed.
type UpdateSpeed struct {
	SpeedKmps float64
}

// UpdateBoth sets altitude first, then speed against the new radius.
type UpdateBoth struct {
	AltitudeKm float64
	SpeedKmps  float64
}

func (NoOp) Kind() CommandKind           { return KindNoOp }
func (UpdateAltitude) Kind() CommandKind { return KindUpdateAltitude }
func (UpdateSpeed) Kind() CommandKind    { return KindUpdateSpeed }
func (UpdateBoth) Kind() CommandKind     { return KindUpdateBoth }

func (NoOp) isCommand()           {}
func (UpdateAltitude) isCommand() {}
func (UpdateSpeed) isCommand()    {}
func (UpdateBoth) isCommand()     {}

// NewCommand builds the variant matching which optionals are set.
func NewCommand(altitudeKm, speedKmps *float64) Command {
	switch {
	case altitudeKm != nil && speedKmps != nil:
		return UpdateBoth{AltitudeKm: *altitudeKm, SpeedKmps: *speedKmps}
	case altitudeKm != nil:
		return UpdateAltitude{AltitudeKm: *altitudeKm}
	case speedKmps != nil:
		return UpdateSpeed{SpeedKmps: *speedKmps}
	default:
		return NoOp{Reason: ReasonNoParameters}
	}
}

// CommandFields unpacks a Command back into its optional fields.
func CommandFields(cmd Command) (altitudeKm, speedKmps *float64) {
	switch c := cmd.(type) {
	case UpdateAltitude:
		return &c.AltitudeKm, nil
	case UpdateSpeed:
		return nil, &c.SpeedKmps
	case UpdateBoth:
		return &c.AltitudeKm, &c.SpeedKmps
	default:
		return nil, nil
	}
}
