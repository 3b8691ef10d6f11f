package bgcp

import "encoding/hex"

// Endian selects the byte order used to interpret a register's raw bytes
// as an integer. The zero value is big-endian, the protocol default.
type Endian int

// Byte orders for multi-byte register values.
const (
	// BigEndian is the default byte order for register values.
	BigEndian Endian = iota

	// LittleEndian is used by a handful of sensor registers (temperature
	// probes, fan tachometers).
	LittleEndian
)

// Register describes one addressable device parameter.
//
// Descriptors are immutable: the catalog below is built once and passed
// by value into the session and codec layers. The low byte of Parameter
// is the wire key under which the device reports the value in replies.
type Register struct {
	// Name is a stable lookup key, distinct from the wire address. It is
	// used as the result key in ReadMany and as the MQTT topic segment.
	Name string

	// Parameter is the 2-byte big-endian register address.
	Parameter [2]byte

	// Count is the declared payload width in bytes. It must equal the
	// exact byte length Format requires; getting this wrong is a
	// catalog bug, not a runtime condition (see TestCatalogShape).
	Count int

	// Format selects the engineering value representation.
	Format Format

	// ReadOnly marks registers that reject writes.
	ReadOnly bool

	// Scale, when nonzero, relates the wire integer to the engineering
	// value: wire = round(engineering / Scale), engineering = wire * Scale.
	Scale float64

	// Endian is the byte order of the raw integer form. Default big.
	Endian Endian

	// Min and Max are optional inclusive engineering-value bounds,
	// enforced only on writes of numeric and boolean registers.
	Min, Max *float64
}

// Key returns the one-byte wire key the device uses for this register
// in replies: the low byte of the parameter address.
func (r Register) Key() byte {
	return r.Parameter[1]
}

// ResultKey returns the key under which this register appears in a
// ReadMany result: the name, or the hex address when no name is set.
func (r Register) ResultKey() string {
	if r.Name != "" {
		return r.Name
	}
	return hex.EncodeToString(r.Parameter[:])
}

// limit builds an optional bound for catalog entries.
func limit(v float64) *float64 {
	return &v
}

// Writable registers.
var (
	// PowerOn switches the unit on and off.
	PowerOn = Register{Name: "power_on", Parameter: [2]byte{0x00, 0x01}, Count: 1, Format: FormatBoolean, Min: limit(0), Max: limit(1)}

	// Mode selects the operating mode: 0 ventilation, 1 heating,
	// 2 cooling, 3 auto.
	Mode = Register{Name: "mode", Parameter: [2]byte{0x00, 0x0E}, Count: 1, Format: FormatInteger, Min: limit(0), Max: limit(3)}

	// Speed selects the fan speed step (1-3).
	Speed = Register{Name: "speed", Parameter: [2]byte{0x00, 0x02}, Count: 1, Format: FormatInteger, Min: limit(1), Max: limit(3)}

	// TargetTemp is the temperature setpoint in whole degrees.
	TargetTemp = Register{Name: "target_temp", Parameter: [2]byte{0x00, 0x18}, Count: 1, Format: FormatInteger, Min: limit(15), Max: limit(30)}

	// Supply/exhaust fan curve setpoints per speed step.
	SupplyFanSpeed1  = Register{Name: "supply_fan_speed_1", Parameter: [2]byte{0x00, 0x3A}, Count: 1, Format: FormatInteger}
	SupplyFanSpeed2  = Register{Name: "supply_fan_speed_2", Parameter: [2]byte{0x00, 0x3C}, Count: 1, Format: FormatInteger}
	SupplyFanSpeed3  = Register{Name: "supply_fan_speed_3", Parameter: [2]byte{0x00, 0x3E}, Count: 1, Format: FormatInteger}
	ExhaustFanSpeed1 = Register{Name: "exhaust_fan_speed_1", Parameter: [2]byte{0x00, 0x3B}, Count: 1, Format: FormatInteger}
	ExhaustFanSpeed2 = Register{Name: "exhaust_fan_speed_2", Parameter: [2]byte{0x00, 0x3D}, Count: 1, Format: FormatInteger}
	ExhaustFanSpeed3 = Register{Name: "exhaust_fan_speed_3", Parameter: [2]byte{0x00, 0x3F}, Count: 1, Format: FormatInteger}

	// WeeklyScheduleMode enables the built-in weekly schedule.
	WeeklyScheduleMode = Register{Name: "weekly_schedule_mode", Parameter: [2]byte{0x00, 0x72}, Count: 1, Format: FormatBoolean}
)

// Read-only registers.
var (
	// BoostMode reports whether boost ventilation is active.
	BoostMode = Register{Name: "boost_mode", Parameter: [2]byte{0x00, 0x06}, Count: 1, Format: FormatBoolean, ReadOnly: true}

	// CurrentHumidity is the relative humidity in percent.
	CurrentHumidity = Register{Name: "current_humidity", Parameter: [2]byte{0x00, 0x25}, Count: 1, Format: FormatFloat, ReadOnly: true}

	// Duct temperature probes, 0.1 degree resolution, little-endian.
	ExhaustInTemperature  = Register{Name: "exhaust_in_temperature", Parameter: [2]byte{0x00, 0x1F}, Count: 2, Format: FormatFloat, ReadOnly: true, Scale: 0.1, Endian: LittleEndian}
	SupplyOutTemperature  = Register{Name: "supply_out_temperature", Parameter: [2]byte{0x00, 0x1E}, Count: 2, Format: FormatFloat, ReadOnly: true, Scale: 0.1, Endian: LittleEndian}
	SupplyInTemperature   = Register{Name: "supply_in_temperature", Parameter: [2]byte{0x00, 0x21}, Count: 2, Format: FormatFloat, ReadOnly: true, Scale: 0.1, Endian: LittleEndian}
	ExhaustOutTemperature = Register{Name: "exhaust_out_temperature", Parameter: [2]byte{0x00, 0x22}, Count: 2, Format: FormatFloat, ReadOnly: true, Scale: 0.1, Endian: LittleEndian}

	// Fan tachometer readings in RPM.
	Fan1Speed = Register{Name: "fan1_speed", Parameter: [2]byte{0x00, 0x4A}, Count: 2, Format: FormatInteger, ReadOnly: true, Endian: LittleEndian}
	Fan2Speed = Register{Name: "fan2_speed", Parameter: [2]byte{0x00, 0x4B}, Count: 2, Format: FormatInteger, ReadOnly: true, Endian: LittleEndian}

	// AlarmIndicator reports the unit's alarm state.
	AlarmIndicator = Register{Name: "alarm_indicator", Parameter: [2]byte{0x00, 0x83}, Count: 1, Format: FormatBoolean, ReadOnly: true}
)

// Catalog is the fixed set of registers this client knows how to poll
// and write. The controller documents many more parameters (Wi-Fi setup,
// RTC, filter timers); those stay out of the catalog until they have
// been verified against real hardware, so they cannot affect runtime
// behaviour.
var Catalog = []Register{
	PowerOn,
	Mode,
	Speed,
	TargetTemp,
	SupplyFanSpeed1,
	SupplyFanSpeed2,
	SupplyFanSpeed3,
	ExhaustFanSpeed1,
	ExhaustFanSpeed2,
	ExhaustFanSpeed3,
	WeeklyScheduleMode,
	BoostMode,
	CurrentHumidity,
	ExhaustInTemperature,
	SupplyOutTemperature,
	SupplyInTemperature,
	ExhaustOutTemperature,
	Fan1Speed,
	Fan2Speed,
	AlarmIndicator,
}

// FindByName looks up a catalog register by its stable name.
//
// Returns:
//   - Register: The matching descriptor (zero value if not found)
//   - bool: Whether a match was found
func FindByName(name string) (Register, bool) {
	for _, r := range Catalog {
		if r.Name == name {
			return r, true
		}
	}
	return Register{}, false
}

// FindByParameter looks up a catalog register by its 2-byte wire address.
//
// Returns:
//   - Register: The matching descriptor (zero value if not found)
//   - bool: Whether a match was found
func FindByParameter(param [2]byte) (Register, bool) {
	for _, r := range Catalog {
		if r.Parameter == param {
			return r, true
		}
	}
	return Register{}, false
}

// Sensors returns the read-only subset of the catalog.
func Sensors() []Register {
	out := make([]Register, 0, len(Catalog))
	for _, r := range Catalog {
		if r.ReadOnly {
			out = append(out, r)
		}
	}
	return out
}

// Actuators returns the writable subset of the catalog.
func Actuators() []Register {
	out := make([]Register, 0, len(Catalog))
	for _, r := range Catalog {
		if !r.ReadOnly {
			out = append(out, r)
		}
	}
	return out
}
