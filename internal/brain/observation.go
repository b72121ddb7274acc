package brain

import (
	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/novelty"
)

// VisionPayload is the value carried by a vision-sensor Observation.
type VisionPayload struct {
	Event action.VisionEvent
	Name  string
}

// Observation is a single pushed sensor reading, pre-dispatch.
type Observation struct {
	Sensor novelty.SensorType
	Value  any
}

// NewNumericObservation builds an Observation for ultrasonic/imu sensors.
func NewNumericObservation(sensor novelty.SensorType, value float64) Observation {
	return Observation{Sensor: sensor, Value: value}
}

// NewTouchObservation builds an Observation for the touch sensor.
func NewTouchObservation(style action.TouchStyle) Observation {
	return Observation{Sensor: novelty.Touch, Value: style}
}

// NewVisionObservation builds an Observation for the vision sensor.
func NewVisionObservation(event action.VisionEvent, name string) Observation {
	return Observation{Sensor: novelty.Vision, Value: VisionPayload{Event: event, Name: name}}
}
