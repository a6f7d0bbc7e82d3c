package rpc

// Wire structs for the seven VolumeDriver endpoints plus Plugin.Activate
// and Capabilities. Field names are PascalCase — a compatibility
// requirement with the container-platform plugin protocol, not a Go
// convention choice (§4.4/§6).

type activateResponse struct {
	Implements []string `json:"Implements"`
}

type capabilitiesResponse struct {
	Scope string `json:"Scope"`
}

type createRequest struct {
	Name string            `json:"Name"`
	Opts map[string]string `json:"Opts,omitempty"`
}

type nameRequest struct {
	Name string `json:"Name"`
}

type mountRequest struct {
	Name string `json:"Name"`
	ID   string `json:"ID"`
}

type errResponse struct {
	Err string `json:"Err"`
}

type mountResponse struct {
	Mountpoint string `json:"Mountpoint"`
	Err        string `json:"Err"`
}

type volumeWire struct {
	Name       string `json:"Name"`
	Mountpoint string `json:"Mountpoint,omitempty"`
}

type getResponse struct {
	Volume volumeWire `json:"Volume"`
	Err    string     `json:"Err"`
}

type listResponse struct {
	Volumes []volumeWire `json:"Volumes"`
	Err     string       `json:"Err"`
}
