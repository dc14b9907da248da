package model

import "fmt"

type DeviceType string

const (
	DeviceSwitch            DeviceType = "esp.device.switch"
	DeviceLightbulb         DeviceType = "esp.device.lightbulb"
	DeviceFan               DeviceType = "esp.device.fan"
	DeviceThermostat        DeviceType = "esp.device.thermostat"
	DeviceTemperatureSensor DeviceType = "esp.device.temperature-sensor"
	DeviceLock              DeviceType = "esp.device.lock"
	DeviceSensor            DeviceType = "esp.device.sensor"
	DeviceOutlet            DeviceType = "esp.device.outlet"
)

var deviceTypes = map[DeviceType]struct{}{
	DeviceSwitch: {}, DeviceLightbulb: {}, DeviceFan: {}, DeviceThermostat: {},
	DeviceTemperatureSensor: {}, DeviceLock: {}, DeviceSensor: {}, DeviceOutlet: {},
}

func ParseDeviceType(s string) (DeviceType, error) {
	t := DeviceType(s)
	if _, ok := deviceTypes[t]; !ok {
		return "", fmt.Errorf("unknown device type %q", s)
	}
	return t, nil
}
