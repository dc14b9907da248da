package model

import "encoding/json"

// ParamTypeName is the param type carrying a user-assigned device name.
const ParamTypeName = "esp.param.name"

// Node is a physical controller with one or more devices.
type Node struct {
	ID            string    `json:"id"`
	ConfigVersion string    `json:"-"`
	Info          *NodeInfo `json:"-"`
	Devices       []Device  `json:"devices"`
	Primary       []string  `json:"primary,omitempty"`
	Secondary     []string  `json:"secondary,omitempty"`
	Services      []Service `json:"services,omitempty"`

	SchedulingSupported   bool   `json:"isSchedulingSupported,omitempty"`
	MaxSchedulesCount     int    `json:"maxSchedulesCount,omitempty"`
	CurrentSchedulesCount int    `json:"currentSchedulesCount,omitempty"`
	SupportsEncryption    bool   `json:"supportsEncryption,omitempty"`
	PoP                   string `json:"pop,omitempty"`
}

type NodeInfo struct {
	Name      string `json:"name,omitempty"`
	FWVersion string `json:"fw_version,omitempty"`
	Type      string `json:"type,omitempty"`
}

type Service struct {
	Name   string  `json:"name,omitempty"`
	Type   string  `json:"type,omitempty"`
	Params []Param `json:"params,omitempty"`
}

type nodeConfig struct {
	ConfigVersion string    `json:"config_version"`
	Info          *NodeInfo `json:"info,omitempty"`
}

type nodeAlias Node

type nodeWire struct {
	nodeAlias
	Config nodeConfig `json:"config"`
}

// MarshalJSON nests config_version and info under "config" as the cloud does.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeWire{
		nodeAlias: nodeAlias(n),
		Config:    nodeConfig{ConfigVersion: n.ConfigVersion, Info: n.Info},
	})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var w nodeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*n = Node(w.nodeAlias)
	n.ConfigVersion = w.Config.ConfigVersion
	n.Info = w.Config.Info
	return nil
}

// Device looks up a device by its internal name.
func (n Node) Device(name string) (Device, bool) {
	for _, d := range n.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// DeviceNames returns the display name of every device on the node.
func (n Node) DeviceNames() []string {
	out := make([]string, 0, len(n.Devices))
	for _, d := range n.Devices {
		out = append(out, d.DisplayName())
	}
	return out
}

type Device struct {
	Name       string      `json:"name"`
	Type       string      `json:"type,omitempty"`
	Primary    string      `json:"primary,omitempty"`
	Params     []Param     `json:"params,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	// DeviceName is a cached display name set by the client.
	DeviceName string `json:"deviceName,omitempty"`
}

// DisplayName prefers the value of the esp.param.name param, then the
// cached DeviceName, then the internal Name.
func (d Device) DisplayName() string {
	for _, p := range d.Params {
		if p.Type != ParamTypeName {
			continue
		}
		if s, ok := p.Value.(string); ok && s != "" {
			return s
		}
	}
	if d.DeviceName != "" {
		return d.DeviceName
	}
	return d.Name
}

// Param looks up a param by name.
func (d Device) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

type Attribute struct {
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
}

type Param struct {
	Name       string             `json:"name,omitempty"`
	Type       string             `json:"type,omitempty"`
	DataType   string             `json:"data_type,omitempty"`
	UIType     string             `json:"ui_type,omitempty"`
	Properties []string           `json:"properties,omitempty"`
	Bounds     map[string]float64 `json:"bounds,omitempty"`
	ValidStrs  []string           `json:"valid_strs,omitempty"`
	Value      any                `json:"value,omitempty"`
}
