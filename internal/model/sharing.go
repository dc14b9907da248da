package model

import "encoding/json"

// SharingRequest is a pending or resolved node-sharing request. On the wire
// metadata is {"devices":[{"name":...}]}; it is flattened to DeviceNames.
type SharingRequest struct {
	RequestID        string   `json:"request_id"`
	RequestStatus    string   `json:"request_status,omitempty"`
	RequestTimestamp float64  `json:"request_timestamp,omitempty"`
	NodeIDs          []string `json:"node_ids,omitempty"`
	UserName         string   `json:"user_name,omitempty"`
	PrimaryUserName  string   `json:"primary_user_name,omitempty"`
	DeviceNames      []string `json:"-"`
}

type sharingMetadata struct {
	Devices []struct {
		Name string `json:"name"`
	} `json:"devices"`
}

type sharingAlias SharingRequest

type sharingWire struct {
	sharingAlias
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

func (r *SharingRequest) UnmarshalJSON(b []byte) error {
	var w sharingWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = SharingRequest(w.sharingAlias)
	if len(w.Metadata) == 0 {
		return nil
	}
	var md sharingMetadata
	// Unexpected metadata shapes are ignored rather than failing the request.
	if err := json.Unmarshal(w.Metadata, &md); err != nil {
		return nil
	}
	for _, d := range md.Devices {
		if d.Name != "" {
			r.DeviceNames = append(r.DeviceNames, d.Name)
		}
	}
	return nil
}

func (r SharingRequest) MarshalJSON() ([]byte, error) {
	w := sharingWire{sharingAlias: sharingAlias(r)}
	if r.DeviceNames != nil {
		var md sharingMetadata
		for _, name := range r.DeviceNames {
			md.Devices = append(md.Devices, struct {
				Name string `json:"name"`
			}{Name: name})
		}
		b, err := json.Marshal(md)
		if err != nil {
			return nil, err
		}
		w.Metadata = b
	}
	return json.Marshal(w)
}
